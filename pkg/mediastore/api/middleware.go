package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// Requester is the already-verified identity attached to an authenticated
// request. The core service never sees credentials, only these values.
type Requester struct {
	ID   uuid.UUID
	Role mediastore.Role
}

type contextKey string

const requesterKey contextKey = "mediastore.requester"

// RequesterFromContext returns the requester attached by RequireRequester.
func RequesterFromContext(ctx context.Context) (Requester, bool) {
	req, ok := ctx.Value(requesterKey).(Requester)
	return req, ok
}

// WithRequester attaches a requester to the context. Exposed for tests that
// exercise handlers without the JWT middleware chain.
func WithRequester(ctx context.Context, req Requester) context.Context {
	return context.WithValue(ctx, requesterKey, req)
}

// RequireRequester extracts the user_id and role claims from the verified
// JWT and rejects requests without a usable identity. It must run after
// jwtauth.Verifier.
func RequireRequester(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: "authentication required"})
			return
		}

		rawID, _ := claims["user_id"].(string)
		id, err := uuid.Parse(rawID)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: "token is missing a valid user id"})
			return
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = string(mediastore.RoleUser)
		}

		requester := Requester{ID: id, Role: mediastore.Role(role)}
		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
	})
}
