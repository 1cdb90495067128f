package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// NewRouter assembles the API routes. Reads are public; writes go through
// JWT verification and requester extraction, so every handler past that
// point has an authenticated identity in the context.
func NewRouter(service mediastore.Service, tokenAuth *jwtauth.JWTAuth, limits UploadLimits) chi.Router {
	images := NewImagesHandler(service, limits)
	locations := NewLocationsHandler(service)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Get("/locations", locations.List)
		r.Get("/locations/{locationID}", locations.Get)
		r.Get("/locations/{locationID}/images", images.List)
		r.Get("/locations/{locationID}/reviews", locations.ListReviews)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(RequireRequester)
		r.Post("/locations", locations.Create)
		r.Post("/locations/{locationID}/reviews", locations.CreateReview)
		r.Post("/locations/{locationID}/images", images.Upload)
		r.Delete("/images/{imageID}", images.Delete)
	})

	return r
}
