// Package blobstore stores binary objects by path and exposes public ones
// over HTTP.
package blobstore

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"hackconnect/utils"

	"github.com/julienschmidt/httprouter"
)

var (
	ErrNotFound  = errors.New("blob not found")
	ErrNotPublic = errors.New("blob is not public")
	ErrBadPath   = errors.New("invalid blob path")
)

type Object struct {
	Path        string
	ContentType string
	Data        []byte
	Public      bool
}

type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	MakePublic(ctx context.Context, path string) error
	PublicURL(path string) string
	Open(ctx context.Context, path string) (Object, error)
}

// Route is where Handler is mounted; PublicURL values point below it.
const Route = "/blobs/*path"

// Clean normalises a blob path and rejects escapes out of the store root.
func Clean(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(p)), "/")
	if p == "" || p == "." || strings.HasPrefix(p, "..") {
		return "", ErrBadPath
	}
	return p, nil
}

func publicURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/blobs/" + p
}

func contentTypeFor(p, given string) string {
	if given != "" {
		return given
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Handler serves public objects. Private and missing objects are both 404.
func Handler(store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		obj, err := store.Open(r.Context(), ps.ByName("path"))
		if err != nil || !obj.Public {
			utils.RespondWithError(w, http.StatusNotFound, "Not found")
			return
		}
		w.Header().Set("Content-Type", obj.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		w.Write(obj.Data)
	}
}
