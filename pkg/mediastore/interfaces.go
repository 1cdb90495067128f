package mediastore

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for blob storage backends. Implementations
// must be safe for concurrent use with distinct keys. No transactional
// guarantee is assumed beyond per-key atomicity: after Upload returns, the
// object either exists in full or not at all.
type BlobStore interface {
	// Upload stores an object under objectKey.
	Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error

	// Download returns the object bytes for objectKey.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object if present. Deleting a missing key is not
	// an error; compensation retries depend on that.
	Delete(ctx context.Context, objectKey string) error

	// DeleteBatch deletes the given keys concurrently and returns one error
	// slot per key, nil on success. Used only for compensation, never on
	// the critical success path.
	DeleteBatch(ctx context.Context, objectKeys []string) []error
}

// Repository defines the interface for metadata persistence. The metadata
// store is the source of truth for image existence.
type Repository interface {
	// CreateImages inserts all rows in a single transaction and fills in
	// each record's ID and CreatedAt. Either every row is committed or none.
	CreateImages(ctx context.Context, images []*Image) error

	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)

	// ListImagesByLocation returns images ordered oldest first.
	ListImagesByLocation(ctx context.Context, locationID uuid.UUID) ([]*Image, error)

	// BeginImageTx opens a transaction for a serialized image deletion.
	BeginImageTx(ctx context.Context) (ImageTx, error)

	// Location operations
	CreateLocation(ctx context.Context, location *Location) error
	GetLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	ListLocations(ctx context.Context) ([]*LocationSummary, error)

	// Review operations
	CreateReview(ctx context.Context, review *Review) error
	ListReviewsByLocation(ctx context.Context, locationID uuid.UUID) ([]*Review, error)
}

// ImageTx is a metadata transaction scoped to deleting one image. The row
// lock taken by GetImageForUpdate is held until Commit or Rollback, which
// is what serializes concurrent deletes of the same image.
type ImageTx interface {
	// GetImageForUpdate reads the image row and locks it, blocking other
	// transactions on the same row. Returns ErrImageNotFound if the row is
	// absent (including when a concurrent delete committed first).
	GetImageForUpdate(ctx context.Context, id uuid.UUID) (*Image, error)

	DeleteImage(ctx context.Context, id uuid.UUID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
