package mediastore

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the capability level of a requester.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Image is a metadata row describing one stored photo. StorageKey is the
// only field binding the row to its blob object; URL is derived from it at
// insert time and never recomputed.
type Image struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	StorageKey string    `json:"storage_key"`
	LocationID uuid.UUID `json:"location_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileInput is one file submitted for upload. Size and MIME validation
// happens at the API boundary; the service assumes inputs are valid.
type FileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Location is a place photos and reviews attach to.
type Location struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Longitude       float64   `json:"longitude"`
	Latitude        float64   `json:"latitude"`
	IsUserGenerated bool      `json:"is_user_generated"`
	CreatedBy       uuid.UUID `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// LocationSummary is a Location with listing extras: the average review
// rating and the URL of the earliest attached image, when present.
type LocationSummary struct {
	Location
	AverageRating *float64 `json:"average_rating,omitempty"`
	PreviewURL    *string  `json:"preview_url,omitempty"`
}

// Review is a rating plus free-form text left on a location.
type Review struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Rating     int       `json:"rating"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadImagesRequest contains parameters for uploading a batch of images.
// UploaderID comes from already-verified authentication.
type UploadImagesRequest struct {
	LocationID uuid.UUID
	UploaderID uuid.UUID
	Files      []FileInput
}

// DeleteImageRequest contains parameters for deleting one image.
type DeleteImageRequest struct {
	ImageID       uuid.UUID
	RequesterID   uuid.UUID
	RequesterRole Role
}

// CreateLocationRequest contains parameters for creating a location.
type CreateLocationRequest struct {
	Name      string
	Longitude float64
	Latitude  float64
	CreatedBy uuid.UUID
}

// CreateReviewRequest contains parameters for creating a review.
type CreateReviewRequest struct {
	LocationID uuid.UUID
	AuthorID   uuid.UUID
	Rating     int
	Body       string
}
