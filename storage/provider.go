package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound returned when the requested key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo metadata of a stored object
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Provider key addressed object storage
type Provider interface {
	// SaveWithContext writes r under key. size may be -1 when unknown.
	SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// GetWithContext opens the object for reading
	GetWithContext(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteWithContext removes the object. Missing keys return ErrObjectNotFound
	// or nil, depending on what the backend can tell.
	DeleteWithContext(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns ErrObjectNotFound for missing keys
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// List calls fn for every object whose key starts with prefix
	List(ctx context.Context, prefix string, fn func(ObjectInfo) error) error

	Health(ctx context.Context) error

	Name() string
}
