// Package memory provides an in-memory mediastore.Repository used in tests
// and local development. Image delete transactions emulate the database row
// lock with a repository-wide transaction mutex: coarser than a real row
// lock, but it gives concurrent deletes the same total ordering.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// Repository is an in-memory implementation of mediastore.Repository
type Repository struct {
	mu         sync.RWMutex
	images     map[uuid.UUID]mediastore.Image
	imageOrder []uuid.UUID
	locations  map[uuid.UUID]mediastore.Location
	reviews    map[uuid.UUID]mediastore.Review
	revOrder   []uuid.UUID

	// txMu serializes image delete transactions, standing in for
	// SELECT ... FOR UPDATE.
	txMu sync.Mutex
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		images:    make(map[uuid.UUID]mediastore.Image),
		locations: make(map[uuid.UUID]mediastore.Location),
		reviews:   make(map[uuid.UUID]mediastore.Review),
	}
}

func (r *Repository) CreateImages(ctx context.Context, images []*mediastore.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, img := range images {
		img.ID = uuid.New()
		img.CreatedAt = now
		r.images[img.ID] = *img
		r.imageOrder = append(r.imageOrder, img.ID)
	}
	return nil
}

func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*mediastore.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return nil, mediastore.ErrImageNotFound
	}
	return &img, nil
}

func (r *Repository) ListImagesByLocation(ctx context.Context, locationID uuid.UUID) ([]*mediastore.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*mediastore.Image
	for _, id := range r.imageOrder {
		img, ok := r.images[id]
		if !ok || img.LocationID != locationID {
			continue
		}
		out = append(out, &img)
	}
	return out, nil
}

func (r *Repository) BeginImageTx(ctx context.Context) (mediastore.ImageTx, error) {
	r.txMu.Lock()
	return &imageTx{repo: r}, nil
}

// imageTx stages its deletion and applies it on Commit, so Rollback leaves
// the repository untouched.
type imageTx struct {
	repo   *Repository
	staged []uuid.UUID
	done   bool
}

func (tx *imageTx) GetImageForUpdate(ctx context.Context, id uuid.UUID) (*mediastore.Image, error) {
	tx.repo.mu.RLock()
	defer tx.repo.mu.RUnlock()

	img, ok := tx.repo.images[id]
	if !ok {
		return nil, mediastore.ErrImageNotFound
	}
	return &img, nil
}

func (tx *imageTx) DeleteImage(ctx context.Context, id uuid.UUID) error {
	tx.staged = append(tx.staged, id)
	return nil
}

func (tx *imageTx) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.repo.mu.Lock()
	for _, id := range tx.staged {
		delete(tx.repo.images, id)
	}
	tx.repo.mu.Unlock()

	tx.done = true
	tx.repo.txMu.Unlock()
	return nil
}

func (tx *imageTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.repo.txMu.Unlock()
	return nil
}

// Location operations

func (r *Repository) CreateLocation(ctx context.Context, location *mediastore.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	location.ID = uuid.New()
	location.CreatedAt = time.Now().UTC()
	r.locations[location.ID] = *location
	return nil
}

func (r *Repository) GetLocation(ctx context.Context, id uuid.UUID) (*mediastore.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.locations[id]
	if !ok {
		return nil, mediastore.ErrLocationNotFound
	}
	return &loc, nil
}

func (r *Repository) ListLocations(ctx context.Context) ([]*mediastore.LocationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*mediastore.LocationSummary
	for _, loc := range r.locations {
		summary := &mediastore.LocationSummary{Location: loc}

		var sum, count int
		for _, id := range r.revOrder {
			rev, ok := r.reviews[id]
			if ok && rev.LocationID == loc.ID {
				sum += rev.Rating
				count++
			}
		}
		if count > 0 {
			avg := float64(sum) / float64(count)
			summary.AverageRating = &avg
		}

		for _, id := range r.imageOrder {
			img, ok := r.images[id]
			if ok && img.LocationID == loc.ID {
				url := img.URL
				summary.PreviewURL = &url
				break
			}
		}

		out = append(out, summary)
	}
	return out, nil
}

// Review operations

func (r *Repository) CreateReview(ctx context.Context, review *mediastore.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review.ID = uuid.New()
	review.CreatedAt = time.Now().UTC()
	r.reviews[review.ID] = *review
	r.revOrder = append(r.revOrder, review.ID)
	return nil
}

func (r *Repository) ListReviewsByLocation(ctx context.Context, locationID uuid.UUID) ([]*mediastore.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*mediastore.Review
	for i := len(r.revOrder) - 1; i >= 0; i-- {
		rev, ok := r.reviews[r.revOrder[i]]
		if !ok || rev.LocationID != locationID {
			continue
		}
		out = append(out, &rev)
	}
	return out, nil
}

var _ mediastore.Repository = (*Repository)(nil)
