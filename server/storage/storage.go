package storage

import (
	"context"
	"io"
	"time"
)

// Info is the metadata a store can recover for a stored blob without any
// database: the key encodes the identifier and the original filename.
type Info struct {
	ID           string
	OriginalName string
	SizeBytes    int64
	ModTime      time.Time
}

// BlobStore persists attachment content under an identifier. Identifiers
// are assigned by the caller and must be unique; stores never overwrite an
// existing blob for a different upload because of that.
type BlobStore interface {
	// Save durably writes data under id before returning.
	Save(ctx context.Context, id, originalName string, data []byte) error
	// Open returns the stored content and its recovered metadata.
	Open(ctx context.Context, id string) (io.ReadCloser, Info, error)
	// SaveThumbnail stores a JPEG thumbnail alongside the blob.
	SaveThumbnail(ctx context.Context, id string, data []byte) error
	// OpenThumbnail returns the thumbnail for id, if one was stored.
	OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, error)
}

// thumbSuffix starts with a dot so a thumbnail key can never collide with
// a content key: content keys are always "<id>_<name>" with a non-empty
// sanitized name, and "." is not "_".
const thumbSuffix = ".thumb.jpg"
