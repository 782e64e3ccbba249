package storage

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound reports that no object exists under the given path.
// Callers in the trash lifecycle and the archive exporter treat it as a
// tolerated condition, never a failure.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the opaque byte store behind stored files, addressed by the
// path string kept on the file row.
type BlobStore interface {
	// Put streams content into the store under path.
	Put(ctx context.Context, path string, content io.Reader, size int64, contentType string) error

	// Get opens the object for streaming. Returns ErrBlobNotFound when the
	// object is absent.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes the object. Removing an already-absent object is
	// success, not an error.
	Remove(ctx context.Context, path string) error

	// Size reports the object's byte length, or ErrBlobNotFound.
	Size(ctx context.Context, path string) (int64, error)
}
