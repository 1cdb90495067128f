package mediastore

import (
	"context"
	"log/slog"
	"time"
)

// OrphanOperation names the path that produced an orphaned blob.
type OrphanOperation string

const (
	// OrphanOpUploadCompensation marks a blob whose cleanup failed after a
	// blob-phase or metadata-phase upload failure.
	OrphanOpUploadCompensation OrphanOperation = "upload_compensation"

	// OrphanOpDeleteCleanup marks a blob whose post-commit delete failed.
	OrphanOpDeleteCleanup OrphanOperation = "delete_cleanup"
)

// OrphanEvent describes a blob object left behind with no metadata row.
// This record is the contract consumed by the external reconciliation
// sweeper; its fields must stay queryable as-is.
type OrphanEvent struct {
	StorageKey string
	Operation  OrphanOperation
	Err        error
	Timestamp  time.Time
}

// OrphanSink receives orphan events. Sinks must not block the calling
// operation; events are advisory and their handling never changes the
// outcome of the operation that produced them.
type OrphanSink interface {
	OrphanedBlob(ctx context.Context, event OrphanEvent)
}

type slogOrphanSink struct {
	logger *slog.Logger
}

// NewSlogOrphanSink returns an OrphanSink that emits one structured log
// record per event. Passing nil uses slog.Default.
func NewSlogOrphanSink(logger *slog.Logger) OrphanSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogOrphanSink{logger: logger}
}

func (s *slogOrphanSink) OrphanedBlob(ctx context.Context, event OrphanEvent) {
	s.logger.ErrorContext(ctx, "orphaned blob needs cleanup",
		"storage_key", event.StorageKey,
		"operation", string(event.Operation),
		"error", event.Err,
		"timestamp", event.Timestamp.UTC().Format(time.RFC3339Nano),
	)
}

type noopOrphanSink struct{}

// NewNoopOrphanSink returns an OrphanSink that discards events.
func NewNoopOrphanSink() OrphanSink { return noopOrphanSink{} }

func (noopOrphanSink) OrphanedBlob(context.Context, OrphanEvent) {}
