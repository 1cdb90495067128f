package mediastore

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parkroll/mediastore/pkg/mediastore/objectkey"
	"github.com/parkroll/mediastore/pkg/mediastore/urlstrategy"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	urls       urlstrategy.Strategy
	keys       objectkey.Generator
	orphans    OrphanSink
}

// UploadImages runs the two-phase upload: all blob writes first, one
// metadata transaction second. Blobs-first ordering means a failure between
// the phases leaves orphaned blobs, which are harmless and cleanable, never
// metadata rows pointing at missing blobs.
func (s *service) UploadImages(ctx context.Context, req UploadImagesRequest) ([]*Image, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFilesProvided
	}

	keys := make([]string, len(req.Files))
	for i, f := range req.Files {
		keys[i] = s.keys.GenerateKey(f.FileName)
	}

	// Phase A: parallel blob writes. The writes run on a context detached
	// from caller cancellation so every in-flight put reaches a known
	// state; a cancelled caller is handled after the join.
	putCtx := context.WithoutCancel(ctx)
	putErrs := make([]error, len(req.Files))
	var wg sync.WaitGroup
	for i, f := range req.Files {
		wg.Add(1)
		go func(i int, f FileInput) {
			defer wg.Done()
			putErrs[i] = s.blobStore.Upload(putCtx, keys[i], bytes.NewReader(f.Data), f.ContentType)
		}(i, f)
	}
	wg.Wait()

	var stored []string
	var firstErr error
	for i, err := range putErrs {
		switch {
		case err == nil:
			stored = append(stored, keys[i])
		case firstErr == nil:
			firstErr = &StorageError{Key: keys[i], Op: "put", Err: err}
		}
	}
	if firstErr != nil {
		s.cleanupBlobs(putCtx, stored, OrphanOpUploadCompensation)
		return nil, firstErr
	}

	if err := ctx.Err(); err != nil {
		// Caller gave up while the blobs were being written. All writes
		// finished, so compensate exactly as for a blob-phase failure; the
		// metadata transaction must not begin.
		s.cleanupBlobs(putCtx, keys, OrphanOpUploadCompensation)
		return nil, err
	}

	// Phase B: single metadata transaction over the whole batch.
	images := make([]*Image, len(req.Files))
	for i := range req.Files {
		url, err := s.urls.PublicURL(ctx, keys[i])
		if err != nil {
			s.cleanupBlobs(putCtx, keys, OrphanOpUploadCompensation)
			return nil, &PersistenceError{Op: "derive url", Err: err}
		}
		images[i] = &Image{
			URL:        url,
			StorageKey: keys[i],
			LocationID: req.LocationID,
			OwnerID:    req.UploaderID,
		}
	}

	if err := s.repository.CreateImages(ctx, images); err != nil {
		// Compensating action: every blob in the batch is now an orphan.
		// The database error stays authoritative regardless of how the
		// cleanup goes.
		s.cleanupBlobs(putCtx, keys, OrphanOpUploadCompensation)
		return nil, &PersistenceError{Op: "create images", Err: err}
	}

	return images, nil
}

// DeleteImage removes one image. The commit of the metadata delete is the
// irreversible transition; everything after it is best effort.
func (s *service) DeleteImage(ctx context.Context, req DeleteImageRequest) error {
	tx, err := s.repository.BeginImageTx(ctx)
	if err != nil {
		return &PersistenceError{Op: "begin delete", Err: err}
	}

	img, err := tx.GetImageForUpdate(ctx, req.ImageID)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, ErrImageNotFound) {
			return ErrImageNotFound
		}
		return &PersistenceError{Op: "lock image", Err: err}
	}

	if !CanModify(req.RequesterID, req.RequesterRole, img.OwnerID) {
		_ = tx.Rollback(ctx)
		return ErrForbidden
	}

	if err := tx.DeleteImage(ctx, req.ImageID); err != nil {
		_ = tx.Rollback(ctx)
		return &PersistenceError{Op: "delete image", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "commit delete", Err: err}
	}

	// The row is gone; no caller can reach the blob anymore. A failed blob
	// delete leaves invisible garbage for the sweeper, not an error for
	// the user.
	if err := s.blobStore.Delete(context.WithoutCancel(ctx), img.StorageKey); err != nil {
		s.orphans.OrphanedBlob(ctx, OrphanEvent{
			StorageKey: img.StorageKey,
			Operation:  OrphanOpDeleteCleanup,
			Err:        err,
			Timestamp:  time.Now().UTC(),
		})
	}

	return nil
}

// cleanupBlobs deletes keys best-effort. Failures are reported to the
// orphan sink and otherwise swallowed; they must never change the error the
// caller sees.
func (s *service) cleanupBlobs(ctx context.Context, keys []string, op OrphanOperation) {
	if len(keys) == 0 {
		return
	}
	for i, err := range s.blobStore.DeleteBatch(ctx, keys) {
		if err != nil {
			s.orphans.OrphanedBlob(ctx, OrphanEvent{
				StorageKey: keys[i],
				Operation:  op,
				Err:        err,
				Timestamp:  time.Now().UTC(),
			})
		}
	}
}

func (s *service) GetImage(ctx context.Context, id uuid.UUID) (*Image, error) {
	return s.repository.GetImage(ctx, id)
}

func (s *service) ListImages(ctx context.Context, locationID uuid.UUID) ([]*Image, error) {
	return s.repository.ListImagesByLocation(ctx, locationID)
}

// Location operations

func (s *service) CreateLocation(ctx context.Context, req CreateLocationRequest) (*Location, error) {
	location := &Location{
		Name:            req.Name,
		Longitude:       req.Longitude,
		Latitude:        req.Latitude,
		IsUserGenerated: true,
		CreatedBy:       req.CreatedBy,
	}
	if err := s.repository.CreateLocation(ctx, location); err != nil {
		return nil, &PersistenceError{Op: "create location", Err: err}
	}
	return location, nil
}

func (s *service) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	return s.repository.GetLocation(ctx, id)
}

func (s *service) ListLocations(ctx context.Context) ([]*LocationSummary, error) {
	return s.repository.ListLocations(ctx)
}

// Review operations

func (s *service) CreateReview(ctx context.Context, req CreateReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.repository.GetLocation(ctx, req.LocationID); err != nil {
		return nil, err
	}
	review := &Review{
		LocationID: req.LocationID,
		AuthorID:   req.AuthorID,
		Rating:     req.Rating,
		Body:       req.Body,
	}
	if err := s.repository.CreateReview(ctx, review); err != nil {
		return nil, &PersistenceError{Op: "create review", Err: err}
	}
	return review, nil
}

func (s *service) ListReviews(ctx context.Context, locationID uuid.UUID) ([]*Review, error) {
	return s.repository.ListReviewsByLocation(ctx, locationID)
}
