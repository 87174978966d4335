package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hackconnect/auth"
	"hackconnect/globals"
	"hackconnect/utils"

	"github.com/julienschmidt/httprouter"
)

// Middleware wraps a routed handler.
type Middleware func(httprouter.Handle) httprouter.Handle

// Chain applies mws so that the first one listed runs first.
func Chain(mws ...Middleware) Middleware {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// TokenValidator checks staff bearer tokens.
type TokenValidator interface {
	Enabled() bool
	Validate(raw string) (*auth.Claims, error)
}

// StaffOnly requires a staff bearer token. When the validator has no secret
// configured the route stays open.
func StaffOnly(v TokenValidator, log *slog.Logger) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if !v.Enabled() {
				next(w, r, ps)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			claims, err := v.Validate(raw)
			if err != nil {
				log.Warn("rejected staff token", slog.String("op", "middleware.StaffOnly"), slog.String("error", err.Error()))
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), globals.UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
			next(w, r.WithContext(ctx), ps)
		}
	}
}
