package events

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"hackconnect/models"
	"hackconnect/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	svc *Service
	log *slog.Logger
}

func NewHandlers(svc *Service, log *slog.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.svc.ListEvents(r.Context())
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "events.ListEvents")), err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"events": list})
}

func (h *Handlers) GetEventByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.svc.GetEvent(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "events.GetEventByID")), err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":   "Event retrieved successfully",
		"eventInfo": e,
	})
}

// CreateEvent accepts either a multipart form with an optional image or a
// JSON body of the form {"eventInfo": {...}}.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("op", "events.CreateEvent"))

	var (
		in  EventInput
		img *Upload
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, img, err = parseEventForm(r)
	} else {
		in, err = parseEventJSON(w, r)
	}
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}

	e, err := h.svc.CreateEvent(r.Context(), in, img)
	if err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message":   "Event created successfully",
		"eventInfo": e,
	})
}

func parseEventJSON(w http.ResponseWriter, r *http.Request) (EventInput, error) {
	var body struct {
		EventInfo *EventInput `json:"eventInfo"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return EventInput{}, err
	}
	if body.EventInfo == nil {
		return EventInput{}, models.Invalidf("eventInfo is required")
	}
	return *body.EventInfo, nil
}

func parseEventForm(r *http.Request) (EventInput, *Upload, error) {
	if err := r.ParseMultipartForm(maxImage); err != nil {
		return EventInput{}, nil, models.Invalidf("Unable to parse form: %v", err)
	}

	in := EventInput{
		Link:        r.FormValue("eventLink"),
		Title:       r.FormValue("title"),
		StartDate:   r.FormValue("startDate"),
		EndDate:     r.FormValue("endDate"),
		Description: r.FormValue("description"),
		HostAddress: r.FormValue("hostAddress"),
		Status:      r.FormValue("status"),
	}
	if raw := r.FormValue("ticketTiers"); raw != "" {
		tiers, err := ParseTiers([]byte(raw))
		if err != nil {
			return EventInput{}, nil, err
		}
		in.TicketTiers = tiers
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return EventInput{}, nil, models.Invalidf("Error retrieving image: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImage+1))
	if err != nil {
		return EventInput{}, nil, models.Invalidf("Error reading image: %v", err)
	}
	return in, &Upload{Filename: header.Filename, Data: data}, nil
}

func (h *Handlers) Attendees(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	list, err := h.svc.Attendees(r.Context(), ps.ByName("eventId"))
	if err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "events.Attendees")), err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handlers) DownloadAttendeesList(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventId")

	var buf bytes.Buffer
	if err := h.svc.WriteAttendeesCSV(r.Context(), eventID, &buf); err != nil {
		utils.RespondWithErr(w, h.log.With(slog.String("op", "events.DownloadAttendeesList")), err)
		return
	}
	utils.SendAttachment(w, "text/csv; charset=utf-8", "attendees-"+eventID+".csv", buf.Bytes())
}
