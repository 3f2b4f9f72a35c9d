package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates no blob is stored under the requested key.
var ErrNotFound = errors.New("blob not found")

// BlobStore is a key/value store of opaque serialized records. The gauntlet
// keeps its whole state under a single key, so implementations only need
// last-writer-wins semantics.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
