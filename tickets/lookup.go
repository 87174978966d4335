package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"hackconnect/blobstore"
	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/logger"
	"hackconnect/models"
)

func (s *Service) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	snap, err := s.store.Get(ctx, db.TicketsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Ticket{}, models.NotFoundf("Ticket not found")
	}
	if err != nil {
		return models.Ticket{}, fmt.Errorf("tickets.GetTicket: %w", err)
	}
	return models.TicketFromDoc(snap.ID, snap.Data), nil
}

// TicketsForWallet lists a wallet's tickets, newest first.
func (s *Service) TicketsForWallet(ctx context.Context, wallet string) ([]models.Ticket, error) {
	if wallet == "" {
		return nil, models.Invalidf("walletAddress is required")
	}
	return s.find(ctx, "tickets.TicketsForWallet", docstore.Where("walletAddress", wallet))
}

// TicketsForEvent lists an event's tickets in purchase order.
func (s *Service) TicketsForEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	out, err := s.find(ctx, "tickets.TicketsForEvent", docstore.Where("eventId", eventID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseTimestamp.Before(out[j].PurchaseTimestamp)
	})
	return out, nil
}

func (s *Service) find(ctx context.Context, op string, q docstore.Query) ([]models.Ticket, error) {
	snaps, err := s.store.Find(ctx, db.TicketsCollection, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.Ticket, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, models.TicketFromDoc(snap.ID, snap.Data))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseTimestamp.After(out[j].PurchaseTimestamp)
	})
	return out, nil
}

// TicketQR returns the stored QR image, re-rendering it from the record
// when the blob is gone.
func (s *Service) TicketQR(ctx context.Context, id string) (models.Ticket, []byte, error) {
	t, err := s.GetTicket(ctx, id)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	if t.QRCodePath != "" {
		obj, err := s.blobs.Open(ctx, t.QRCodePath)
		if err == nil {
			return t, obj.Data, nil
		}
		if !errors.Is(err, blobstore.ErrNotFound) {
			return models.Ticket{}, nil, fmt.Errorf("tickets.TicketQR: %w", err)
		}
		s.log.Warn("qr image missing, re-rendering",
			slog.String("op", "tickets.TicketQR"),
			slog.String("ticketId", id),
			logger.Err(err),
		)
	}
	png, err := RenderQR(SignedPayload{Payload: PayloadOf(t), Signature: t.Signature})
	if err != nil {
		return models.Ticket{}, nil, err
	}
	return t, png, nil
}

func (s *Service) TicketPDF(ctx context.Context, id string) (models.Ticket, []byte, error) {
	t, png, err := s.TicketQR(ctx, id)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	doc, err := RenderPDF(t, png)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	return t, doc, nil
}
