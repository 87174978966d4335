// Package events is the event catalog: listing, lookup, creation and the
// attendee views built on top of issued tickets.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"hackconnect/blobstore"
	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TicketLister returns the tickets issued for an event.
type TicketLister interface {
	TicketsForEvent(ctx context.Context, eventID string) ([]models.Ticket, error)
}

type Service struct {
	store    docstore.Store
	blobs    blobstore.Store
	tickets  TicketLister
	validate *validator.Validate
	log      *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store docstore.Store, blobs blobstore.Store, tickets TicketLister, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		tickets:  tickets,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ListEvents returns every event, newest first.
func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	snaps, err := s.store.Find(ctx, db.EventsCollection, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("events.ListEvents: %w", err)
	}
	now := s.now().UTC()
	out := make([]models.Event, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, models.EventFromDoc(snap.ID, snap.Data, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (models.Event, error) {
	if id == "" {
		return models.Event{}, models.Invalidf("Event id is required")
	}
	snap, err := s.store.Get(ctx, db.EventsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Event{}, models.NotFoundf("Event not found")
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("events.GetEvent: %w", err)
	}
	return models.EventFromDoc(snap.ID, snap.Data, s.now().UTC()), nil
}

// EventInput is the creation payload. Dates are ISO-8601 strings.
type EventInput struct {
	Link        string `json:"event_link"`
	Title       string `json:"event_title" validate:"required"`
	StartDate   string `json:"date_start" validate:"required"`
	EndDate     string `json:"date_end"`
	Description string `json:"description"`
	HostAddress string `json:"host_address" validate:"required"`
	Status      string `json:"status"`
	TicketTiers Tiers  `json:"ticket_tiers" validate:"unique=Name,dive"`
}

// CreateEvent validates and stores a new event. The image, when given, is
// stored with a thumbnail before the event document is written.
func (s *Service) CreateEvent(ctx context.Context, in EventInput, img *Upload) (models.Event, error) {
	const op = "events.CreateEvent"

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return models.Event{}, models.Invalidf("%s", validationMessage(verrs))
		}
		return models.Event{}, fmt.Errorf("%s: validate: %w", op, err)
	}

	start, ok := models.AsTime(in.StartDate)
	if !ok {
		return models.Event{}, models.Invalidf("Invalid date_start %q", in.StartDate)
	}
	end := start
	if in.EndDate != "" {
		if end, ok = models.AsTime(in.EndDate); !ok {
			return models.Event{}, models.Invalidf("Invalid date_end %q", in.EndDate)
		}
	}
	if end.Before(start) {
		return models.Event{}, models.Invalidf("date_end must not be before date_start")
	}

	e := models.Event{
		ID:          s.newID(),
		Link:        in.Link,
		Title:       in.Title,
		StartDate:   start,
		EndDate:     end,
		Description: in.Description,
		HostAddress: in.HostAddress,
		Status:      in.Status,
		CreatedAt:   s.now().UTC(),
		TicketTiers: []models.TicketTier(in.TicketTiers),
	}
	if e.Status == "" {
		e.Status = models.EventUpcoming
	}
	if e.TicketTiers == nil {
		e.TicketTiers = []models.TicketTier{}
	}

	if img != nil {
		if err := s.storeImage(ctx, &e, img); err != nil {
			return models.Event{}, err
		}
	}

	if err := s.store.Set(ctx, db.EventsCollection, e.ID, models.EventToDoc(e)); err != nil {
		return models.Event{}, fmt.Errorf("%s: save event: %w", op, err)
	}
	s.log.Info("event created", slog.String("op", op), slog.String("eventId", e.ID), slog.Int("tiers", len(e.TicketTiers)))
	return e, nil
}

func (s *Service) storeImage(ctx context.Context, e *models.Event, img *Upload) error {
	const op = "events.storeImage"

	ct, ext, err := sniffImage(img.Data)
	if err != nil {
		return err
	}
	thumb, err := thumbnail(img.Data)
	if err != nil {
		return err
	}

	imagePath := fmt.Sprintf("events/%s/image%s", e.ID, ext)
	thumbPath := fmt.Sprintf("events/%s/thumb.jpg", e.ID)
	for _, b := range []struct {
		path string
		data []byte
		ct   string
	}{
		{imagePath, img.Data, ct},
		{thumbPath, thumb, "image/jpeg"},
	} {
		if err := s.blobs.Upload(ctx, b.path, b.data, b.ct); err != nil {
			return fmt.Errorf("%s: upload %s: %w", op, b.path, err)
		}
		if err := s.blobs.MakePublic(ctx, b.path); err != nil {
			return fmt.Errorf("%s: publish %s: %w", op, b.path, err)
		}
	}
	e.ImageURL = s.blobs.PublicURL(imagePath)
	e.ThumbnailURL = s.blobs.PublicURL(thumbPath)
	return nil
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", fe.Field()))
		case "unique":
			msgs = append(msgs, "ticket tier names must be unique")
		case "ltefield":
			msgs = append(msgs, fmt.Sprintf("%s: ticketsSold cannot exceed ticketCount", fe.Namespace()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must not be negative", fe.Namespace()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
