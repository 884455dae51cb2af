package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for accessing the data blobs that make up a
// table: segment files, index files, and the manifest. A table never
// assumes a local filesystem; the same composite table can be backed by
// local disk, S3, or MinIO.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create opens a blob for writing. The blob is not visible to Open
	// until Close (or, for append-style backends, Sync) completes.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically in one call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs whose name starts with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off, like io.ReaderAt but
	// context-aware for remote backends.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadRange returns a streaming reader over [off, off+length).
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a handle to a blob being written.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes any buffered data to the backing store without closing.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
// Readable stores and readable indexes use this for zero-copy random
// access into immutable, readonly-segment files.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}
