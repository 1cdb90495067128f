package mediastore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parkroll/mediastore/pkg/mediastore/objectkey"
	"github.com/parkroll/mediastore/pkg/mediastore/urlstrategy"
)

// Service is the main interface for media attachment operations.
type Service interface {
	// UploadImages stores every file's blob and then commits one metadata
	// row per file in a single transaction. On success the records come
	// back in submission order. A metadata row is never committed unless
	// its blob was already durably stored.
	UploadImages(ctx context.Context, req UploadImagesRequest) ([]*Image, error)

	// DeleteImage removes one image's metadata row under a row lock and
	// then deletes its blob best-effort. Returns ErrImageNotFound when the
	// row is absent and ErrForbidden when the requester lacks capability.
	DeleteImage(ctx context.Context, req DeleteImageRequest) error

	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	ListImages(ctx context.Context, locationID uuid.UUID) ([]*Image, error)

	// Location operations
	CreateLocation(ctx context.Context, req CreateLocationRequest) (*Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	ListLocations(ctx context.Context) ([]*LocationSummary, error)

	// Review operations
	CreateReview(ctx context.Context, req CreateReviewRequest) (*Review, error)
	ListReviews(ctx context.Context, locationID uuid.UUID) ([]*Review, error)
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithURLStrategy sets the strategy used to derive public URLs from
// storage keys
func WithURLStrategy(strategy urlstrategy.Strategy) Option {
	return func(s *service) {
		s.urls = strategy
	}
}

// WithKeyGenerator sets the storage key generator
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithOrphanSink sets the sink that receives orphaned-blob events
func WithOrphanSink(sink OrphanSink) Option {
	return func(s *service) {
		s.orphans = sink
	}
}

// New creates a new service instance with the given options. A repository
// and a blob store are required; the key generator, URL strategy and orphan
// sink have working defaults.
func New(options ...Option) (Service, error) {
	s := &service{
		keys:    objectkey.NewRandomGenerator(),
		orphans: NewSlogOrphanSink(nil),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.urls == nil {
		return nil, fmt.Errorf("url strategy is required")
	}

	return s, nil
}
