package events

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"hackconnect/models"

	"github.com/shopspring/decimal"
)

type Attendee struct {
	TicketID      string     `json:"ticketId"`
	WalletAddress string     `json:"walletAddress"`
	TierName      string     `json:"tierName"`
	PriceBought   float64    `json:"priceBought"`
	Status        string     `json:"status"`
	PurchasedAt   time.Time  `json:"purchasedAt"`
	CheckedInAt   *time.Time `json:"checkedInAt,omitempty"`
}

// AttendeeList is the door view of an event. Revenue is summed in decimal
// so cents do not drift.
type AttendeeList struct {
	EventID   string          `json:"eventId"`
	Title     string          `json:"eventTitle"`
	Attendees []Attendee      `json:"attendees"`
	Total     int             `json:"total"`
	CheckedIn int             `json:"checkedIn"`
	Revenue   decimal.Decimal `json:"revenue"`
}

func (s *Service) Attendees(ctx context.Context, eventID string) (AttendeeList, error) {
	e, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return AttendeeList{}, err
	}
	list, err := s.tickets.TicketsForEvent(ctx, eventID)
	if err != nil {
		return AttendeeList{}, fmt.Errorf("events.Attendees: %w", err)
	}

	out := AttendeeList{
		EventID:   e.ID,
		Title:     e.Title,
		Attendees: make([]Attendee, 0, len(list)),
		Revenue:   decimal.Zero,
	}
	for _, t := range list {
		out.Attendees = append(out.Attendees, Attendee{
			TicketID:      t.ID,
			WalletAddress: t.WalletAddress,
			TierName:      t.TierName,
			PriceBought:   t.PriceBought,
			Status:        t.Status,
			PurchasedAt:   t.PurchaseTimestamp,
			CheckedInAt:   t.CheckedInAt,
		})
		if t.Status == models.TicketCheckedIn {
			out.CheckedIn++
		}
		out.Revenue = out.Revenue.Add(decimal.NewFromFloat(t.PriceBought))
	}
	out.Total = len(out.Attendees)
	return out, nil
}

var csvHeader = []string{"ticketId", "walletAddress", "tierName", "priceBought", "status", "purchasedAt", "checkedInAt"}

// WriteAttendeesCSV writes the attendee spreadsheet for an event.
func (s *Service) WriteAttendeesCSV(ctx context.Context, eventID string, w io.Writer) error {
	list, err := s.Attendees(ctx, eventID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range list.Attendees {
		checkedIn := ""
		if a.CheckedInAt != nil {
			checkedIn = a.CheckedInAt.Format(time.RFC3339)
		}
		row := []string{
			a.TicketID,
			a.WalletAddress,
			a.TierName,
			decimal.NewFromFloat(a.PriceBought).StringFixed(2),
			a.Status,
			a.PurchasedAt.Format(time.RFC3339),
			checkedIn,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"", "", "total", list.Revenue.StringFixed(2), strconv.Itoa(list.CheckedIn) + "/" + strconv.Itoa(list.Total) + " checked in", "", ""}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
