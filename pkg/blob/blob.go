// Package blob provides the object store client used to persist uploaded
// bytes and processed outputs.
//
// The pool only depends on the narrow Store contract; the backing store is
// opaque to scheduling. MinioStore talks to any S3-compatible endpoint and
// MemoryStore keeps objects in process memory for tests and examples.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("blob: object not found")

// Info describes a stored object.
type Info struct {
	Key          string
	SizeBytes    int64
	ContentType  string
	LastModified time.Time
}

// Store is the narrow object-store contract the pool consumes. It never
// needs transactional or versioned semantics.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Info, error)
	Stat(ctx context.Context, key string) (Info, error)
}
