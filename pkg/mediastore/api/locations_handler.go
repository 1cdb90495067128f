package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// LocationsHandler handles the location and review pass-through endpoints.
// These have no consistency concerns of their own; they exist so uploaded
// images have something to attach to.
type LocationsHandler struct {
	service mediastore.Service
}

// NewLocationsHandler creates a new locations handler
func NewLocationsHandler(service mediastore.Service) *LocationsHandler {
	return &LocationsHandler{service: service}
}

// CreateLocationRequest is the request body for creating a location
type CreateLocationRequest struct {
	Name      string   `json:"name"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// LocationResponse is the response body for a location
type LocationResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Longitude       float64   `json:"longitude"`
	Latitude        float64   `json:"latitude"`
	IsUserGenerated bool      `json:"is_user_generated"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	AverageRating   *float64  `json:"average_rating,omitempty"`
	PreviewURL      *string   `json:"preview_url,omitempty"`
}

// CreateReviewRequest is the request body for creating a review
type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// ReviewResponse is the response body for a review
type ReviewResponse struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	AuthorID   string    `json:"author_id"`
	Rating     int       `json:"rating"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// List handles GET /locations
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListLocations(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]LocationResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = LocationResponse{
			ID:              s.ID.String(),
			Name:            s.Name,
			Longitude:       s.Longitude,
			Latitude:        s.Latitude,
			IsUserGenerated: s.IsUserGenerated,
			CreatedBy:       s.CreatedBy.String(),
			CreatedAt:       s.CreatedAt,
			AverageRating:   s.AverageRating,
			PreviewURL:      s.PreviewURL,
		}
	}
	render.JSON(w, r, resp)
}

// Get handles GET /locations/{locationID}
func (h *LocationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid location id"})
		return
	}

	loc, err := h.service.GetLocation(r.Context(), locationID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, toLocationResponse(loc))
}

// Create handles POST /locations
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester, ok := RequesterFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "authentication required"})
		return
	}

	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" || req.Longitude == nil || req.Latitude == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "name and coordinates are required"})
		return
	}

	loc, err := h.service.CreateLocation(r.Context(), mediastore.CreateLocationRequest{
		Name:      req.Name,
		Longitude: *req.Longitude,
		Latitude:  *req.Latitude,
		CreatedBy: requester.ID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLocationResponse(loc))
}

// ListReviews handles GET /locations/{locationID}/reviews
func (h *LocationsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid location id"})
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), locationID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]ReviewResponse, len(reviews))
	for i, rev := range reviews {
		resp[i] = toReviewResponse(rev)
	}
	render.JSON(w, r, resp)
}

// CreateReview handles POST /locations/{locationID}/reviews
func (h *LocationsHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid location id"})
		return
	}

	requester, ok := RequesterFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "authentication required"})
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	review, err := h.service.CreateReview(r.Context(), mediastore.CreateReviewRequest{
		LocationID: locationID,
		AuthorID:   requester.ID,
		Rating:     req.Rating,
		Body:       req.Body,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toReviewResponse(review))
}

func toLocationResponse(loc *mediastore.Location) LocationResponse {
	return LocationResponse{
		ID:              loc.ID.String(),
		Name:            loc.Name,
		Longitude:       loc.Longitude,
		Latitude:        loc.Latitude,
		IsUserGenerated: loc.IsUserGenerated,
		CreatedBy:       loc.CreatedBy.String(),
		CreatedAt:       loc.CreatedAt,
	}
}

func toReviewResponse(rev *mediastore.Review) ReviewResponse {
	return ReviewResponse{
		ID:         rev.ID.String(),
		LocationID: rev.LocationID.String(),
		AuthorID:   rev.AuthorID.String(),
		Rating:     rev.Rating,
		Body:       rev.Body,
		CreatedAt:  rev.CreatedAt,
	}
}
