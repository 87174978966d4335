package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hackconnect/auth"
	"hackconnect/blobstore"
	"hackconnect/chats"
	"hackconnect/docstore"
	"hackconnect/events"
	"hackconnect/logger"
	"hackconnect/metrics"
	"hackconnect/mq"
	"hackconnect/ratelim"
	"hackconnect/tickets"
	"hackconnect/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBot struct{}

func (echoBot) Complete(_ context.Context, msg string) (string, error) { return "echo: " + msg, nil }

func newTestRouter(t *testing.T, staffSecret string) http.Handler {
	t.Helper()
	return New(testDeps(t, staffSecret))
}

func testDeps(t *testing.T, staffSecret string) Deps {
	t.Helper()
	log := logger.Discard()
	store := docstore.NewMemory()
	blobs := blobstore.NewMemory("http://localhost:8000")
	m := metrics.New()

	ticketSvc := tickets.NewService(store, blobs, tickets.NewSigner(""), mq.Nop{}, m, log)
	eventSvc := events.NewService(store, blobs, ticketSvc, log)
	hub := chats.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	return Deps{
		Events:  events.NewHandlers(eventSvc, log),
		Tickets: tickets.NewHandlers(ticketSvc, eventSvc, log),
		Users:   users.NewHandlers(users.NewService(store, log), log),
		Chats:   chats.NewHandlers(echoBot{}, hub, log),
		Staff:   auth.NewStaff("staff", "", staffSecret, log),
		Blobs:   blobs,
		Metrics: m,
		Limiter: ratelim.NewRateLimiter(1000, 1000),
		Checks: map[string]Pinger{
			"store": func(context.Context) error { return nil },
		},
		Log: log,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestTicketLifecycle(t *testing.T) {
	h := newTestRouter(t, "")

	code, body := do(t, h, http.MethodPost, "/events/create", map[string]any{
		"eventInfo": map[string]any{
			"event_title":  "HackNight",
			"date_start":   "2030-05-01T18:00:00Z",
			"host_address": "0xHOST",
			"ticket_tiers": []map[string]any{{"tierName": "GA", "ticketCount": 1, "price": 5}},
		},
	})
	require.Equal(t, http.StatusCreated, code, body)
	eventID := body["eventInfo"].(map[string]any)["event_id"].(string)

	code, body = do(t, h, http.MethodPost, "/events/joinEvent/"+eventID+"/0xWALLET", map[string]any{"tierName": "GA"})
	require.Equal(t, http.StatusOK, code, body)
	ticket := body["ticket"].(map[string]any)
	assert.Equal(t, 5.0, ticket["priceBought"])

	scan := map[string]any{}
	for _, k := range []string{"eventTitle", "eventId", "walletAddress", "ticketId", "purchasedAt", "priceBought", "tierName", "status", "signature"} {
		scan[k] = ticket[k]
	}

	code, body = do(t, h, http.MethodPost, "/events/verifyTicket/"+eventID, scan)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["valid"])

	code, body = do(t, h, http.MethodPost, "/events/verifyTicket/"+eventID, scan)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Ticket has already been checked in", body["error"])

	code, body = do(t, h, http.MethodGet, "/events/attendees/"+eventID, nil)
	require.Equal(t, http.StatusOK, code, body)

	code, body = do(t, h, http.MethodGet, "/events/retrieveTickets/0xWALLET", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["tickets"], 1)
}

func TestStaffRouteRequiresTokenWhenConfigured(t *testing.T) {
	h := newTestRouter(t, "secret")

	code, body := do(t, h, http.MethodPost, "/events/verifyTicketById/t1/e1", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Missing token", body["error"])
}

func TestStaffRouteOpenWithoutSecret(t *testing.T) {
	h := newTestRouter(t, "")

	code, body := do(t, h, http.MethodPost, "/events/verifyTicketById/missing/e1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Ticket not found", body["error"])
}

func TestUtilityRoutes(t *testing.T) {
	h := newTestRouter(t, "")

	code, body := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["message"])

	code, body = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = do(t, h, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", body["error"])

	code, _ = do(t, h, http.MethodGet, "/blobs/events/none.png", nil)
	assert.Equal(t, http.StatusNotFound, code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}

func TestHealthReportsFailingDependency(t *testing.T) {
	h := health(map[string]Pinger{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, logger.Discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestChatbotInputRoute(t *testing.T) {
	h := newTestRouter(t, "")

	code, body := do(t, h, http.MethodPost, "/chatbot/chatbotInput", map[string]any{"user_message": "hi"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "echo: hi", body["response"])
}

func TestScanRoutesHaveTheirOwnLimiter(t *testing.T) {
	d := testDeps(t, "")
	d.Limiter = ratelim.NewRateLimiter(0.001, 2)
	d.ScanLimiter = ratelim.NewRateLimiter(1000, 1000)
	h := New(d)

	for i := 0; i < 20; i++ {
		code, _ := do(t, h, http.MethodPost, "/events/verifyTicketById/missing/e1", nil)
		require.Equal(t, http.StatusNotFound, code, "scan %d", i)
		code, _ = do(t, h, http.MethodPost, "/events/verifyTicket/e1", map[string]any{"ticketId": "missing"})
		require.NotEqual(t, http.StatusTooManyRequests, code, "scan %d", i)
	}

	var last int
	for i := 0; i < 3; i++ {
		last, _ = do(t, h, http.MethodPost, "/events/create", map[string]any{})
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
