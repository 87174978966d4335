package tickets

import (
	"context"
	"log/slog"
	"net/http"

	"hackconnect/globals"
	"hackconnect/models"
	"hackconnect/utils"

	"github.com/julienschmidt/httprouter"
)

// EventGetter resolves the event a ticket is joined against.
type EventGetter interface {
	GetEvent(ctx context.Context, id string) (models.Event, error)
}

type Handlers struct {
	svc    *Service
	events EventGetter
	log    *slog.Logger
}

func NewHandlers(svc *Service, events EventGetter, log *slog.Logger) *Handlers {
	return &Handlers{svc: svc, events: events, log: log}
}

type joinRequest struct {
	TierName    string   `json:"tierName"`
	PriceBought *float64 `json:"priceBought"`
}

// JoinEvent issues a ticket for the wallet in the requested tier. The price
// defaults to the tier price.
func (h *Handlers) JoinEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("op", "tickets.JoinEvent"))
	eventID := ps.ByName("eventId")
	wallet := ps.ByName("wallet")

	var req joinRequest
	if err := utils.DecodeOptionalJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	if req.TierName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "tierName is required")
		return
	}

	event, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	tier, ok := event.Tier(req.TierName)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Ticket tier not found: "+req.TierName)
		return
	}
	price := tier.Price
	if req.PriceBought != nil {
		price = *req.PriceBought
	}

	t, err := h.svc.IssueTicket(r.Context(), IssueRequest{
		EventID:       event.ID,
		WalletAddress: wallet,
		TierName:      tier.Name,
		PriceBought:   price,
		EventTitle:    event.Title,
	})
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Ticket issued successfully",
		"ticket":  t,
	})
}

// VerifyTicket checks in a scanned QR payload and echoes it back.
func (h *Handlers) VerifyTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("op", "tickets.VerifyTicket"))

	var submitted map[string]any
	if err := utils.DecodeJSON(w, r, &submitted); err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	res, err := h.svc.VerifyTicket(r.Context(), ps.ByName("eventId"), submitted)
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":  "success",
		"valid":   res.Valid,
		"message": res.Message,
		"ticket":  submitted,
	})
}

func (h *Handlers) VerifyTicketByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("op", "tickets.VerifyTicketByID"))
	if staff, ok := globals.StaffFromContext(r.Context()); ok {
		log = log.With(slog.String("staff", staff))
	}

	res, err := h.svc.VerifyTicketByID(r.Context(), ps.ByName("ticketId"), ps.ByName("eventId"))
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	log.Info("manual check-in", slog.String("ticketId", res.Ticket.ID))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":  "success",
		"valid":   res.Valid,
		"message": res.Message,
		"ticket":  res.Ticket,
	})
}

func (h *Handlers) DownloadTicketQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, png, err := h.svc.TicketQR(r.Context(), ps.ByName("ticketId"))
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "tickets.DownloadTicketQR")), err)
		return
	}
	utils.SendAttachment(w, "image/png", "ticket-"+t.ID+".png", png)
}

func (h *Handlers) DownloadTicketPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, doc, err := h.svc.TicketPDF(r.Context(), ps.ByName("ticketId"))
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "tickets.DownloadTicketPDF")), err)
		return
	}
	utils.SendAttachment(w, "application/pdf", "ticket-"+t.ID+".pdf", doc)
}

// RetrieveTickets lists every ticket held by a wallet.
func (h *Handlers) RetrieveTickets(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wallet := ps.ByName("wallet")
	list, err := h.svc.TicketsForWallet(r.Context(), wallet)
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "tickets.RetrieveTickets")), err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"wallet_address": wallet,
		"tickets":        list,
	})
}
