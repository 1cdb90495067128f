// Package mediastore manages photo attachments for location records across
// two stores that cannot be updated atomically: an S3-compatible blob store
// holding the image bytes and a relational database holding the metadata
// rows that are the source of truth for whether an image exists.
//
// It exposes a single Service interface with two orchestrated operations.
// UploadImages writes all blobs in parallel and only then commits the
// metadata rows in one transaction, compensating with best-effort blob
// deletes when the transaction fails. DeleteImage removes the metadata row
// under a row lock and then deletes the blob outside the transaction, so a
// failed blob delete can never resurrect an image the caller already saw
// disappear. The only divergence either path can leave behind is an orphaned
// blob with no metadata row; those are reported through an OrphanSink for an
// external reconciliation sweeper, never surfaced to callers.
//
// Implementations of the Repository (memory, Postgres) and BlobStore
// (memory, filesystem, S3) interfaces are provided under subpackages.
package mediastore
