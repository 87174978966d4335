package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hackconnect/auth"
	"hackconnect/blobstore"
	"hackconnect/chats"
	"hackconnect/events"
	"hackconnect/logger"
	"hackconnect/metrics"
	"hackconnect/middleware"
	"hackconnect/ratelim"
	"hackconnect/tickets"
	"hackconnect/users"
	"hackconnect/utils"

	"github.com/julienschmidt/httprouter"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Deps is everything the HTTP surface needs.
type Deps struct {
	Events      *events.Handlers
	Tickets     *tickets.Handlers
	Users       *users.Handlers
	Chats       *chats.Handlers
	Staff       *auth.Staff
	Blobs       blobstore.Store
	Metrics     *metrics.Metrics
	Limiter     *ratelim.RateLimiter
	// ScanLimiter throttles ticket check-in. Door scanners often share one
	// NAT'd address, so it gets its own larger bucket. Nil falls back to
	// Limiter.
	ScanLimiter *ratelim.RateLimiter
	Checks      map[string]Pinger
	Log         *slog.Logger
}

type router struct {
	*httprouter.Router
	m *metrics.Metrics
}

func (rt router) handle(method, path string, h httprouter.Handle, mws ...middleware.Middleware) {
	chain := append([]middleware.Middleware{middleware.Measure(rt.m, path)}, mws...)
	rt.Handle(method, path, middleware.Chain(chain...)(h))
}

// New builds the router with every route of the service.
func New(d Deps) *httprouter.Router {
	rt := router{Router: httprouter.New(), m: d.Metrics}
	rt.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	rt.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	addUtilityRoutes(rt, d)
	addEventsRoutes(rt, d)
	addTicketRoutes(rt, d)
	addUserRoutes(rt, d)
	addChatRoutes(rt, d)
	addStaffRoutes(rt, d)
	return rt.Router
}

func addUtilityRoutes(rt router, d Deps) {
	rt.handle(http.MethodGet, "/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Welcome to the HackConnect API"})
	})
	rt.handle(http.MethodGet, "/health", health(d.Checks, d.Log))
	rt.Handler(http.MethodGet, "/metrics", d.Metrics.Handler())
	rt.handle(http.MethodGet, blobstore.Route, blobstore.Handler(d.Blobs))
}

func addEventsRoutes(rt router, d Deps) {
	rt.handle(http.MethodGet, "/events/listEvents", d.Events.ListEvents)
	rt.handle(http.MethodGet, "/events/getEventById/:id", d.Events.GetEventByID)
	rt.handle(http.MethodPost, "/events/create", d.Events.CreateEvent, d.Limiter.Limit)
	rt.handle(http.MethodGet, "/events/attendees/:eventId", d.Events.Attendees)
	rt.handle(http.MethodGet, "/events/downloadAttendeesList/:eventId", d.Events.DownloadAttendeesList)
}

func addTicketRoutes(rt router, d Deps) {
	scan := d.ScanLimiter
	if scan == nil {
		scan = d.Limiter
	}
	rt.handle(http.MethodPost, "/events/joinEvent/:eventId/:wallet", d.Tickets.JoinEvent, d.Limiter.Limit)
	rt.handle(http.MethodPost, "/events/verifyTicket/:eventId", d.Tickets.VerifyTicket, scan.Limit)
	rt.handle(http.MethodPost, "/events/verifyTicketById/:ticketId/:eventId", d.Tickets.VerifyTicketByID,
		scan.Limit, middleware.StaffOnly(d.Staff, d.Log))
	rt.handle(http.MethodGet, "/events/downloadTicketQr/:ticketId", d.Tickets.DownloadTicketQR)
	rt.handle(http.MethodGet, "/events/downloadTicketPdf/:ticketId", d.Tickets.DownloadTicketPDF)
	rt.handle(http.MethodGet, "/events/retrieveTickets/:wallet", d.Tickets.RetrieveTickets)
}

func addUserRoutes(rt router, d Deps) {
	rt.handle(http.MethodPost, "/users/retrieveWalletInfo", d.Users.RetrieveWalletInfo, d.Limiter.Limit)
	rt.handle(http.MethodPost, "/users/getUserInfo", d.Users.GetUserInfo)
	rt.handle(http.MethodGet, "/users/retrieveTasks/:wallet", d.Users.RetrieveTasks)
}

func addChatRoutes(rt router, d Deps) {
	rt.handle(http.MethodPost, "/chatbot/chatbotInput", d.Chats.ChatbotInput, d.Limiter.Limit)
	rt.handle(http.MethodGet, "/chatbot/ws", d.Chats.WebSocket)
}

func addStaffRoutes(rt router, d Deps) {
	rt.handle(http.MethodPost, "/staff/login", d.Staff.LoginHandler, d.Limiter.Limit)
}

func health(checks map[string]Pinger, log *slog.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := utils.M{}
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				log.Warn("health check failed", slog.String("op", "routes.health"), slog.String("dependency", name), logger.Err(err))
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		utils.RespondWithJSON(w, status, utils.M{"status": state, "dependencies": deps})
	}
}
