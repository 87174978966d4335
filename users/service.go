// Package users resolves wallet addresses to profiles.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/models"
)

var ErrCorrupted = errors.New("corrupted user data")

type Service struct {
	store docstore.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store docstore.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// ResolveWallet returns the profile for address, creating it on first
// sight. The profile is keyed by the address, so concurrent first lookups
// converge on one document.
func (s *Service) ResolveWallet(ctx context.Context, address string) (models.Wallet, error) {
	const op = "users.ResolveWallet"

	if address == "" {
		return models.Wallet{}, models.Invalidf("Wallet address is required.")
	}
	now := s.now().UTC()

	w, err := s.lookup(ctx, address, now)
	if err == nil || !errors.Is(err, docstore.ErrNotFound) {
		return w, err
	}

	w = models.NewWallet(address, now)
	err = s.store.Create(ctx, db.WalletsCollection, address, models.WalletToDoc(w))
	switch {
	case err == nil:
		s.log.Info("wallet created", slog.String("op", op), slog.String("walletAddress", address))
		return w, nil
	case errors.Is(err, docstore.ErrAlreadyExists):
		snap, err := s.store.Get(ctx, db.WalletsCollection, address)
		if err != nil {
			return models.Wallet{}, fmt.Errorf("%s: read after race: %w", op, err)
		}
		return fromSnapshot(snap, address, now)
	default:
		return models.Wallet{}, fmt.Errorf("%s: create: %w", op, err)
	}
}

// lookup finds the profile by id, then falls back to older documents that
// were stored under generated ids.
func (s *Service) lookup(ctx context.Context, address string, now time.Time) (models.Wallet, error) {
	const op = "users.lookup"

	snap, err := s.store.Get(ctx, db.WalletsCollection, address)
	if err == nil {
		return fromSnapshot(snap, address, now)
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return models.Wallet{}, fmt.Errorf("%s: %w", op, err)
	}

	legacy, err := s.store.Find(ctx, db.WalletsCollection, docstore.Where("walletAddress", address).WithLimit(1))
	if err != nil {
		return models.Wallet{}, fmt.Errorf("%s: legacy query: %w", op, err)
	}
	if len(legacy) == 0 {
		return models.Wallet{}, docstore.ErrNotFound
	}
	return fromSnapshot(legacy[0], address, now)
}

func fromSnapshot(snap docstore.Snapshot, address string, now time.Time) (models.Wallet, error) {
	if snap.Data == nil {
		return models.Wallet{}, fmt.Errorf("wallet %s: %w", address, ErrCorrupted)
	}
	return models.WalletFromDoc(snap.Data, address, now), nil
}

// UserExists looks the address up in the registered users collection.
func (s *Service) UserExists(ctx context.Context, address string) (map[string]any, bool, error) {
	if address == "" {
		return nil, false, models.Invalidf("Wallet address is required.")
	}
	found, err := s.store.Find(ctx, db.UsersCollection, docstore.Where("wallet_address", address).WithLimit(1))
	if err != nil {
		return nil, false, fmt.Errorf("users.UserExists: %w", err)
	}
	if len(found) == 0 {
		return nil, false, nil
	}
	return found[0].Data, true, nil
}

// Tasks lists every reward task, flagging the ones the wallet completed.
func (s *Service) Tasks(ctx context.Context, address string) ([]models.Task, error) {
	w, err := s.ResolveWallet(ctx, address)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(w.CompletedTasks))
	for _, id := range w.CompletedTasks {
		done[id] = true
	}

	snaps, err := s.store.Find(ctx, db.TasksCollection, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("users.Tasks: %w", err)
	}
	out := make([]models.Task, 0, len(snaps))
	for _, snap := range snaps {
		t := models.TaskFromDoc(snap.ID, snap.Data)
		t.Completed = done[t.ID]
		out = append(out, t)
	}
	return out, nil
}
