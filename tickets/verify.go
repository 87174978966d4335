package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/models"
	"hackconnect/mq"
)

// Rejection reasons, also used as metric labels.
const (
	reasonEvent     = "event"
	reasonSignature = "signature"
	reasonStatus    = "status"
)

const (
	msgWrongEvent       = "Ticket does not belong to this event"
	msgBadSignature     = "Invalid ticket signature"
	msgAlreadyCheckedIn = "Ticket has already been checked in"
)

// VerifyResult is the outcome of a successful check-in.
type VerifyResult struct {
	Valid   bool
	Message string
	Ticket  models.Ticket
}

type rejection struct {
	reason string
	err    error
}

func (r *rejection) Error() string { return r.err.Error() }
func (r *rejection) Unwrap() error { return r.err }

func reject(reason, format string, args ...any) error {
	return &rejection{reason: reason, err: models.Rejectedf(format, args...)}
}

// VerifyTicket checks in a ticket from its scanned QR body. The business
// fields are taken from the stored record; the submitted ones must carry
// the same signature.
func (s *Service) VerifyTicket(ctx context.Context, eventID string, submitted map[string]any) (VerifyResult, error) {
	sig := models.AsString(submitted["signature"])
	ticketID := models.AsString(submitted["ticketId"])
	if sig == "" || ticketID == "" {
		return VerifyResult{}, models.Invalidf("Missing signature or ticketId in payload")
	}

	return s.checkIn(ctx, "qr", ticketID, func(t models.Ticket) error {
		if t.EventID != eventID {
			return reject(reasonEvent, msgWrongEvent)
		}
		if !s.signer.Matches(PayloadOf(t), sig) || !s.signer.Matches(payloadFromSubmitted(submitted), sig) {
			return reject(reasonSignature, msgBadSignature)
		}
		return checkStatus(t)
	})
}

// VerifyTicketByID is the staff override: no signature, status first.
func (s *Service) VerifyTicketByID(ctx context.Context, ticketID, eventID string) (VerifyResult, error) {
	if ticketID == "" {
		return VerifyResult{}, models.Invalidf("ticketId is required")
	}
	return s.checkIn(ctx, "staff", ticketID, func(t models.Ticket) error {
		if err := checkStatus(t); err != nil {
			return err
		}
		if t.EventID != eventID {
			return reject(reasonEvent, msgWrongEvent)
		}
		return nil
	})
}

func checkStatus(t models.Ticket) error {
	switch t.Status {
	case models.TicketActive:
		return nil
	case models.TicketCheckedIn:
		return reject(reasonStatus, msgAlreadyCheckedIn)
	default:
		return reject(reasonStatus, "Ticket is not active (status %q)", t.Status)
	}
}

// checkIn runs check against the stored ticket and flips it to checkedIn in
// the same atomic step.
func (s *Service) checkIn(ctx context.Context, path, ticketID string, check func(models.Ticket) error) (VerifyResult, error) {
	const op = "tickets.checkIn"
	log := s.log.With(slog.String("op", op), slog.String("path", path), slog.String("ticketId", ticketID))

	var t models.Ticket
	err := s.store.Transact(ctx, db.TicketsCollection, ticketID, func(d docstore.Document) (docstore.Document, error) {
		if d == nil {
			return nil, fmt.Errorf("ticket %s has no data", ticketID)
		}
		t = models.TicketFromDoc(ticketID, d)
		if err := check(t); err != nil {
			return nil, err
		}
		at := s.now().UTC()
		t.Status = models.TicketCheckedIn
		t.CheckedInAt = &at
		d["status"] = t.Status
		d["checkedInAt"] = at
		return d, nil
	})

	var rej *rejection
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrNotFound):
		return VerifyResult{}, models.NotFoundf("Ticket not found")
	case errors.As(err, &rej):
		s.metrics.VerificationRejected(rej.reason)
		log.Info("ticket rejected", slog.String("reason", rej.reason))
		return VerifyResult{}, rej.err
	default:
		return VerifyResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.TicketCheckedIn(path)
	s.emit(ctx, log, mq.Message{
		Type:          mq.TicketCheckedIn,
		TicketID:      t.ID,
		EventID:       t.EventID,
		WalletAddress: t.WalletAddress,
		TierName:      t.TierName,
		At:            *t.CheckedInAt,
	})
	log.Info("ticket checked in")

	return VerifyResult{Valid: true, Message: "Ticket verified and checked in", Ticket: t}, nil
}
