package events

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"hackconnect/blobstore"
	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/logger"
	"hackconnect/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTickets struct {
	byEvent map[string][]models.Ticket
}

func (f fakeTickets) TicketsForEvent(_ context.Context, eventID string) ([]models.Ticket, error) {
	return f.byEvent[eventID], nil
}

type fixture struct {
	svc   *Service
	store *docstore.Memory
	blobs *blobstore.Memory
	clock time.Time
}

func newFixture(t *testing.T, tickets fakeTickets) *fixture {
	t.Helper()
	f := &fixture{
		store: docstore.NewMemory(),
		blobs: blobstore.NewMemory("http://localhost:8000"),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, f.blobs, tickets, logger.Discard())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func validInput() EventInput {
	return EventInput{
		Link:        "https://hackconnect.example/summit",
		Title:       "HackConnect Summit",
		StartDate:   "2025-07-01T09:00:00Z",
		Description: "Two days of building",
		HostAddress: "0xhost",
		TicketTiers: []models.TicketTier{
			{Name: "GA", TicketCount: 100, Price: 10},
			{Name: "VIP", TicketCount: 10, TicketsSold: 2, Price: 50, HackRewards: 5},
		},
	}
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateEventDefaults(t *testing.T) {
	f := newFixture(t, fakeTickets{})

	e, err := f.svc.CreateEvent(context.Background(), validInput(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, models.EventUpcoming, e.Status)
	assert.Equal(t, e.StartDate, e.EndDate)
	assert.Equal(t, f.clock, e.CreatedAt)
	assert.Empty(t, e.ImageURL)

	got, err := f.svc.GetEvent(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.True(t, e.StartDate.Equal(got.StartDate))
	require.Len(t, got.TicketTiers, 2)
	assert.Equal(t, models.TicketTier{Name: "VIP", TicketCount: 10, TicketsSold: 2, Price: 50, HackRewards: 5}, got.TicketTiers[1])
}

func TestCreateEventValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EventInput)
		want   string
	}{
		{"missing title", func(in *EventInput) { in.Title = "" }, "Title is required"},
		{"missing host", func(in *EventInput) { in.HostAddress = "" }, "HostAddress is required"},
		{"missing start", func(in *EventInput) { in.StartDate = "" }, "StartDate is required"},
		{"bad start", func(in *EventInput) { in.StartDate = "next tuesday" }, "Invalid date_start"},
		{"end before start", func(in *EventInput) { in.EndDate = "2025-06-30" }, "date_end must not be before"},
		{"duplicate tiers", func(in *EventInput) { in.TicketTiers[1].Name = "GA" }, "must be unique"},
		{"oversold tier", func(in *EventInput) { in.TicketTiers[0].TicketsSold = 101 }, "cannot exceed ticketCount"},
		{"negative price", func(in *EventInput) { in.TicketTiers[0].Price = -1 }, "must not be negative"},
		{"unnamed tier", func(in *EventInput) { in.TicketTiers[0].Name = "" }, "Name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, fakeTickets{})
			in := validInput()
			tt.mutate(&in)

			_, err := f.svc.CreateEvent(context.Background(), in, nil)
			require.Error(t, err)
			assert.True(t, models.IsInvalid(err), err.Error())
			assert.Contains(t, err.Error(), tt.want)

			list, err := f.svc.ListEvents(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestCreateEventStoresImageAndThumbnail(t *testing.T) {
	f := newFixture(t, fakeTickets{})

	e, err := f.svc.CreateEvent(context.Background(), validInput(), &Upload{Filename: "cover.png", Data: pngImage(t, 600, 400)})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/blobs/events/"+e.ID+"/image.png", e.ImageURL)
	assert.Equal(t, "http://localhost:8000/blobs/events/"+e.ID+"/thumb.jpg", e.ThumbnailURL)

	thumb, err := f.blobs.Open(context.Background(), "events/"+e.ID+"/thumb.jpg")
	require.NoError(t, err)
	assert.True(t, thumb.Public)
	img, err := imaging.Decode(bytes.NewReader(thumb.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(300, 200), img.Bounds().Size())
}

func TestCreateEventRejectsNonImage(t *testing.T) {
	f := newFixture(t, fakeTickets{})

	_, err := f.svc.CreateEvent(context.Background(), validInput(), &Upload{Filename: "x.png", Data: []byte("not an image at all")})
	require.Error(t, err)
	assert.True(t, models.IsInvalid(err))
}

func TestListEventsNewestFirst(t *testing.T) {
	f := newFixture(t, fakeTickets{})

	first, err := f.svc.CreateEvent(context.Background(), validInput(), nil)
	require.NoError(t, err)
	f.clock = f.clock.Add(time.Hour)
	second, err := f.svc.CreateEvent(context.Background(), validInput(), nil)
	require.NoError(t, err)

	list, err := f.svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestGetEventToleratesLegacyDocuments(t *testing.T) {
	f := newFixture(t, fakeTickets{})
	require.NoError(t, f.store.Set(context.Background(), db.EventsCollection, "legacy", docstore.Document{
		"event_title": "Old Meetup",
		"date_start":  "2024-03-01T18:00:00",
		"ticketTiers": []any{map[string]any{"tierName": "GA", "ticketCount": int64(5), "ticketSold": 1.0, "price": 3}},
	}))

	e, err := f.svc.GetEvent(context.Background(), "legacy")
	require.NoError(t, err)
	assert.Equal(t, "Old Meetup", e.Title)
	assert.Equal(t, e.StartDate, e.EndDate)
	assert.Equal(t, f.clock, e.CreatedAt)
	require.Len(t, e.TicketTiers, 1)
	assert.Equal(t, 1, e.TicketTiers[0].TicketsSold)

	_, err = f.svc.GetEvent(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestAttendeesAndCSV(t *testing.T) {
	checked := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	tickets := fakeTickets{byEvent: map[string][]models.Ticket{}}
	f := newFixture(t, tickets)

	e, err := f.svc.CreateEvent(context.Background(), validInput(), nil)
	require.NoError(t, err)
	tickets.byEvent[e.ID] = []models.Ticket{
		{ID: "t1", EventID: e.ID, WalletAddress: "0xA", TierName: "GA", PriceBought: 10.1, Status: models.TicketCheckedIn, CheckedInAt: &checked},
		{ID: "t2", EventID: e.ID, WalletAddress: "0xB", TierName: "GA", PriceBought: 10.2, Status: models.TicketActive},
	}

	list, err := f.svc.Attendees(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.CheckedIn)
	assert.Equal(t, "20.3", list.Revenue.String())

	var buf bytes.Buffer
	require.NoError(t, f.svc.WriteAttendeesCSV(context.Background(), e.ID, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ticketId,walletAddress,tierName,priceBought,status,purchasedAt,checkedInAt", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "t1,0xA,GA,10.10,checkedIn,"))
	assert.True(t, strings.HasSuffix(lines[1], "2025-07-01T09:30:00Z"))
	assert.Equal(t, ",,total,20.30,1/2 checked in,,", lines[3])

	_, err = f.svc.Attendees(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
}
