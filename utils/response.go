package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hackconnect/logger"
	"hackconnect/models"
)

type M map[string]any

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithErr maps domain errors to their status codes. Anything else is
// logged and reported as a 500 carrying the cause text.
func RespondWithErr(w http.ResponseWriter, log *slog.Logger, err error) {
	switch models.KindOf(err) {
	case models.KindInvalid, models.KindRejected:
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case models.KindNotFound:
		RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		log.Error("request failed", logger.Err(err))
		RespondWithError(w, http.StatusInternalServerError, "Internal server error: "+err.Error())
	}
}
