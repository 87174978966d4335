package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"hackconnect/models"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a required JSON request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if models.KindOf(err) != 0 {
			return err
		}
		if errors.Is(err, io.EOF) {
			return models.Invalidf("Request body is required")
		}
		return models.Invalidf("Invalid JSON body: %v", err)
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints where the body may be empty.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if models.KindOf(err) != 0 {
		return err
	}
	return models.Invalidf("Invalid JSON body: %v", err)
}

// SendAttachment writes a file download.
func SendAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
