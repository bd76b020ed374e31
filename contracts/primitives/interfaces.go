package primitives

import (
	"context"
	"time"
)

// KVStore is the capability a key-value provider must expose. Get reports
// a miss through the boolean, not through an error.
type KVStore interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Cache is the capability a caching provider must expose. A zero ttl
// stores the value without expiry.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Secrets is the capability a secret backend must expose. A missing
// secret must surface model.ErrSecretNotFound; returning an empty value
// instead is a contract violation.
type Secrets interface {
	Get(ctx context.Context, name string) (string, error)
}

// ObjectStorage is the capability an object store must expose. A missing
// object must surface model.ErrObjectNotFound on download.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// DocumentDatabase is the capability a document-oriented database must
// expose. Filters and updates are flat field maps with subset-match
// semantics.
type DocumentDatabase interface {
	InsertOne(ctx context.Context, collection string, doc map[string]any) (id string, err error)
	FindOne(ctx context.Context, collection string, filter map[string]any) (doc map[string]any, ok bool, err error)
	UpdateOne(ctx context.Context, collection string, filter, update map[string]any) (matched bool, err error)
	DeleteOne(ctx context.Context, collection string, filter map[string]any) (deleted bool, err error)
	FindMany(ctx context.Context, collection string, filter map[string]any) ([]map[string]any, error)
}
