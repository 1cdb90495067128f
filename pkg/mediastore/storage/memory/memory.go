package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// Backend is an in-memory implementation of the mediastore.BlobStore
// interface, used as a test double.
type Backend struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Upload stores the object bytes under objectKey
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.contentTypes[objectKey] = contentType
	return nil
}

// Download returns the object bytes for objectKey
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the object if present. A missing key is success.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectKey)
	delete(b.contentTypes, objectKey)
	return nil
}

// DeleteBatch deletes the given keys and returns one error slot per key
func (b *Backend) DeleteBatch(ctx context.Context, objectKeys []string) []error {
	errs := make([]error, len(objectKeys))
	for i, key := range objectKeys {
		errs[i] = b.Delete(ctx, key)
	}
	return errs
}

// Len reports how many objects the backend currently holds
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// ContentType returns the stored content type for objectKey
func (b *Backend) ContentType(objectKey string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ct, ok := b.contentTypes[objectKey]
	return ct, ok
}

var _ mediastore.BlobStore = (*Backend)(nil)
