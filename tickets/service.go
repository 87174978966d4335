// Package tickets issues signed QR tickets and checks them in at the door.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hackconnect/blobstore"
	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/logger"
	"hackconnect/metrics"
	"hackconnect/models"
	"hackconnect/mq"

	"github.com/google/uuid"
)

// purchasedAtLayout is ISO-8601 with millisecond precision.
const purchasedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type Service struct {
	store   docstore.Store
	blobs   blobstore.Store
	signer  Signer
	pub     mq.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store docstore.Store, blobs blobstore.Store, signer Signer, pub mq.Publisher, m *metrics.Metrics, log *slog.Logger) *Service {
	if pub == nil {
		pub = mq.Nop{}
	}
	return &Service{
		store:   store,
		blobs:   blobs,
		signer:  signer,
		pub:     pub,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

type IssueRequest struct {
	EventID       string
	WalletAddress string
	TierName      string
	PriceBought   float64
	EventTitle    string
}

// IssueTicket signs a new ticket, stores its QR image and record, and moves
// one unit of the tier from remaining to sold.
func (s *Service) IssueTicket(ctx context.Context, req IssueRequest) (models.Ticket, error) {
	const op = "tickets.IssueTicket"
	log := s.log.With(slog.String("op", op), slog.String("eventId", req.EventID))

	if req.EventID == "" || req.WalletAddress == "" {
		return models.Ticket{}, models.Invalidf("eventId and walletAddress are required")
	}

	now := s.now().UTC()
	p := Payload{
		EventTitle:    req.EventTitle,
		EventID:       req.EventID,
		WalletAddress: req.WalletAddress,
		TicketID:      s.newID(),
		PurchasedAt:   now.Format(purchasedAtLayout),
		PriceBought:   req.PriceBought,
		TierName:      req.TierName,
		Status:        models.TicketActive,
	}
	sig, err := s.signer.Sign(p)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%s: sign: %w", op, err)
	}

	png, err := RenderQR(SignedPayload{Payload: p, Signature: sig})
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	path := qrPath(p.EventID, p.WalletAddress, p.TicketID)
	if err := s.blobs.Upload(ctx, path, png, "image/png"); err != nil {
		return models.Ticket{}, fmt.Errorf("%s: upload qr: %w", op, err)
	}
	if err := s.blobs.MakePublic(ctx, path); err != nil {
		return models.Ticket{}, fmt.Errorf("%s: publish qr: %w", op, err)
	}

	t := models.Ticket{
		ID:                p.TicketID,
		EventID:           p.EventID,
		EventTitle:        p.EventTitle,
		WalletAddress:     p.WalletAddress,
		TierName:          p.TierName,
		PriceBought:       p.PriceBought,
		PurchasedAt:       p.PurchasedAt,
		PurchaseTimestamp: now,
		Status:            models.TicketActive,
		Signature:         sig,
		QRCodeURL:         s.blobs.PublicURL(path),
		QRCodePath:        path,
	}
	// An uploaded image is left behind if this write fails.
	if err := s.store.Set(ctx, db.TicketsCollection, t.ID, models.TicketToDoc(t)); err != nil {
		return models.Ticket{}, fmt.Errorf("%s: save ticket: %w", op, err)
	}

	if err := s.sellFromTier(ctx, t.EventID, t.TierName); err != nil {
		return models.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.TicketIssued(t.TierName)
	s.emit(ctx, log, mq.Message{
		Type:          mq.TicketIssued,
		TicketID:      t.ID,
		EventID:       t.EventID,
		WalletAddress: t.WalletAddress,
		TierName:      t.TierName,
		At:            now,
	})

	log.Info("ticket issued", slog.String("ticketId", t.ID), slog.String("tier", t.TierName))
	return t, nil
}

var errNoTier = errors.New("tier not found")

// sellFromTier decrements the remaining count of the named tier (never
// below zero) and increments its sold count. Unknown events and tiers are
// left untouched.
func (s *Service) sellFromTier(ctx context.Context, eventID, tierName string) error {
	err := s.store.Transact(ctx, db.EventsCollection, eventID, func(d docstore.Document) (docstore.Document, error) {
		tiers := models.AsList(d["ticketTiers"])
		for i, raw := range tiers {
			tier := models.AsDoc(raw)
			name := models.AsString(tier["tierName"])
			if name == "" {
				name = models.AsString(tier["name"])
			}
			if name != tierName {
				continue
			}
			sold, ok := tier["ticketsSold"]
			if !ok {
				sold = tier["ticketSold"]
				delete(tier, "ticketSold")
			}
			tier["ticketCount"] = max(0, models.AsInt(tier["ticketCount"])-1)
			tier["ticketsSold"] = models.AsInt(sold) + 1
			tiers[i] = tier
			d["ticketTiers"] = tiers
			return d, nil
		}
		return nil, errNoTier
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNoTier), errors.Is(err, docstore.ErrNotFound):
		s.log.Warn("tier not adjusted",
			slog.String("op", "tickets.sellFromTier"),
			slog.String("eventId", eventID),
			slog.String("tier", tierName),
			logger.Err(err),
		)
		return nil
	default:
		return fmt.Errorf("adjust tier: %w", err)
	}
}

func (s *Service) emit(ctx context.Context, log *slog.Logger, msg mq.Message) {
	if err := s.pub.Emit(ctx, msg); err != nil {
		log.Warn("failed to publish ticket event", slog.String("type", msg.Type), logger.Err(err))
	}
}
