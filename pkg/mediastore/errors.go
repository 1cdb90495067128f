package mediastore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrImageNotFound indicates the target image row is absent
	ErrImageNotFound = errors.New("image not found")

	// ErrLocationNotFound indicates a location was not found
	ErrLocationNotFound = errors.New("location not found")

	// ErrForbidden indicates the requester is neither the owner nor an admin
	ErrForbidden = errors.New("forbidden")

	// ErrNoFilesProvided indicates an upload request with an empty batch
	ErrNoFilesProvided = errors.New("no files provided")

	// ErrTooManyFiles indicates the batch exceeds the configured maximum
	ErrTooManyFiles = errors.New("too many files")

	// ErrFileTooLarge indicates a file exceeds the per-file size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedContentType indicates a MIME type outside the allow-list
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrInvalidRating indicates a review rating outside 1..5
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// StorageError represents a blob store failure on the critical path of an
// operation. Failures during compensation are never wrapped in this type;
// they go to the OrphanSink instead.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError represents a metadata store failure. When one is returned
// from an upload, every blob written in that batch has already been handed
// to the compensation path.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence operation %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
