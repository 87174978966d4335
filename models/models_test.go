package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAsTime(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]any{
		"time":        want,
		"rfc3339":     "2025-06-01T12:00:00Z",
		"millis str":  "2025-06-01T12:00:00.000Z",
		"offset":      "2025-06-01T14:00:00+02:00",
		"bson date":   primitive.NewDateTimeFromTime(want),
		"unix secs":   want.Unix(),
		"unix millis": float64(want.UnixMilli()),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := AsTime(in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, ok := AsTime("not a date")
	assert.False(t, ok)
	_, ok = AsTime(nil)
	assert.False(t, ok)

	fallback := time.Unix(0, 0)
	assert.Equal(t, fallback, TimeOr(nil, fallback))
}

func TestNumberCoercion(t *testing.T) {
	assert.Equal(t, 3, AsInt(int32(3)))
	assert.Equal(t, 3, AsInt(int64(3)))
	assert.Equal(t, 3, AsInt(3.0))
	assert.Equal(t, 3, AsInt("3"))
	assert.Equal(t, 0, AsInt(nil))
	assert.Equal(t, 12.5, AsFloat(mustDecimal(t, "12.5")))
	assert.Equal(t, "42", AsString(int64(42)))
	assert.Equal(t, "", AsString(true))
}

func mustDecimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestEventFromDocReadsLegacySpellings(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := EventFromDoc("E1", Doc{
		"title":     "HackNight",
		"startDate": "2025-06-01T18:00:00Z",
		"ticketTiers": primitive.A{
			primitive.M{"name": "GA", "ticketCount": int32(10), "ticketSold": int32(4), "price": 5.5},
			"garbage",
		},
	}, now)

	assert.Equal(t, "E1", e.ID)
	assert.Equal(t, "HackNight", e.Title)
	assert.Equal(t, e.StartDate, e.EndDate)
	assert.Equal(t, now, e.CreatedAt)
	require.Len(t, e.TicketTiers, 1)
	assert.Equal(t, TicketTier{Name: "GA", TicketCount: 10, TicketsSold: 4, Price: 5.5}, e.TicketTiers[0])

	tier, ok := e.Tier("GA")
	assert.True(t, ok)
	assert.Equal(t, 10, tier.TicketCount)
	_, ok = e.Tier("VIP")
	assert.False(t, ok)
}

func TestEventDocMapping(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	e := Event{
		ID:          "E1",
		Title:       "HackNight",
		StartDate:   start,
		EndDate:     start.Add(3 * time.Hour),
		HostAddress: "0xHOST",
		Status:      EventUpcoming,
		CreatedAt:   start.Add(-time.Hour),
		TicketTiers: []TicketTier{{Name: "GA", TicketCount: 2, Price: 10}},
	}

	got := EventFromDoc("E1", EventToDoc(e), time.Now())
	assert.Equal(t, e, got)
}

func TestTicketDocMapping(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	checked := at.Add(time.Hour)
	tk := Ticket{
		ID:                "T1",
		EventID:           "E1",
		EventTitle:        "HackNight",
		WalletAddress:     "0xA",
		TierName:          "GA",
		PriceBought:       10,
		PurchasedAt:       "2025-06-01T12:00:00.000Z",
		PurchaseTimestamp: at,
		Status:            TicketCheckedIn,
		Signature:         "abc",
		CheckedInAt:       &checked,
	}

	assert.Equal(t, tk, TicketFromDoc("T1", TicketToDoc(tk)))

	// purchaseTimestamp falls back to the string form
	legacy := TicketFromDoc("", Doc{"ticketId": "T2", "purchasedAt": "2025-06-01T12:00:00.000Z"})
	assert.Equal(t, "T2", legacy.ID)
	assert.True(t, at.Equal(legacy.PurchaseTimestamp))
	assert.Nil(t, legacy.CheckedInAt)
}

func TestWalletMapping(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "0x1234...", DefaultUsername("0x123456789"))
	assert.Equal(t, "0x1...", DefaultUsername("0x1"))

	w := NewWallet("0xABCDEF99", now)
	assert.Equal(t, "0xABCD...", w.Username)
	assert.Equal(t, w, WalletFromDoc(WalletToDoc(w), "", time.Now()))

	legacy := WalletFromDoc(Doc{"completedTasks": primitive.A{"t1", 7, ""}}, "0xFALL...", now)
	assert.Equal(t, "0xFALL...", legacy.WalletAddress)
	assert.Equal(t, "0xFALL...", legacy.Username)
	assert.Equal(t, []string{"t1", "7"}, legacy.CompletedTasks)
	assert.Equal(t, now, legacy.CreatedAt)
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("tickets.Verify: %w", Rejectedf("Invalid ticket signature"))

	assert.True(t, IsRejected(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, "tickets.Verify: Invalid ticket signature", wrapped.Error())

	assert.True(t, IsNotFound(NotFoundf("Event %s not found", "E1")))
	assert.True(t, IsInvalid(Invalidf("bad")))
	assert.False(t, IsInvalid(errors.New("plain")))
}
