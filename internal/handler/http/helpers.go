package http

import (
	"net/http"

	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/middleware"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20
)

// actor returns the authenticated caller. Only valid behind middleware.Auth.
func actor(r *http.Request) service.Actor {
	return service.Actor{
		ID:   middleware.UserIDFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}
}

// limitBody caps the request body at n bytes.
func limitBody(w http.ResponseWriter, r *http.Request, n int64) {
	r.Body = http.MaxBytesReader(w, r.Body, n)
}
