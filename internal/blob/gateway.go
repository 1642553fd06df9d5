package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/anoixa/memlane/internal/apperr"
	"github.com/anoixa/memlane/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultDeleteConcurrency = 4

// Options gateway settings
type Options struct {
	Bucket            string
	PublicBaseURL     string
	DeleteConcurrency int
}

// Gateway translates upload and delete requests into storage provider calls
type Gateway struct {
	provider          storage.Provider
	bucket            string
	publicBaseURL     string
	deleteConcurrency int
	now               func() time.Time
}

// UploadResult key, bucket qualified path and public URL of a stored object
type UploadResult struct {
	Key       string `json:"key"`
	FullPath  string `json:"full_path"`
	PublicURL string `json:"public_url"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// BatchDeleteResult Keys holds the keys that were removed (or already absent)
type BatchDeleteResult struct {
	Success bool              `json:"success"`
	Keys    []string          `json:"keys"`
	Failed  map[string]string `json:"failed,omitempty"`
}

func NewGateway(provider storage.Provider, opts Options) *Gateway {
	concurrency := opts.DeleteConcurrency
	if concurrency <= 0 {
		concurrency = defaultDeleteConcurrency
	}
	return &Gateway{
		provider:          provider,
		bucket:            opts.Bucket,
		publicBaseURL:     strings.TrimRight(opts.PublicBaseURL, "/"),
		deleteConcurrency: concurrency,
		now:               time.Now,
	}
}

// Provider underlying storage provider
func (g *Gateway) Provider() storage.Provider {
	return g.provider
}

// Upload stores r under a freshly generated key
func (g *Gateway) Upload(ctx context.Context, r io.Reader, size int64, filename, contentType string) (UploadResult, error) {
	const op = "blob.Upload"

	key, err := GenerateKey(g.now(), filename, contentType)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := g.provider.SaveWithContext(ctx, key, r, size, contentType); err != nil {
		return UploadResult{}, apperr.StorageWrite(op, "Failed to store uploaded file", err)
	}

	return UploadResult{
		Key:       key,
		FullPath:  g.fullPath(key),
		PublicURL: g.ResolvePublicURL(key),
	}, nil
}

// Delete removes one object. Missing objects count as deleted.
func (g *Gateway) Delete(ctx context.Context, keyOrURL string) (DeleteResult, error) {
	const op = "blob.Delete"

	key, err := g.key(op, keyOrURL)
	if err != nil {
		return DeleteResult{}, err
	}

	if err := g.provider.DeleteWithContext(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return DeleteResult{Key: key}, apperr.StorageDelete(op, "Failed to delete stored file", err)
	}
	return DeleteResult{Success: true, Key: key}, nil
}

// DeleteMany deletes every object it can. Failures are collected and returned
// together; successful deletions are never undone.
func (g *Gateway) DeleteMany(ctx context.Context, keysOrURLs []string) (BatchDeleteResult, error) {
	const op = "blob.DeleteMany"

	var (
		mu     sync.Mutex
		result = BatchDeleteResult{Keys: make([]string, 0, len(keysOrURLs))}
		errs   []error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.deleteConcurrency)

	for _, keyOrURL := range keysOrURLs {
		eg.Go(func() error {
			res, err := g.Delete(egCtx, keyOrURL)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if result.Failed == nil {
					result.Failed = make(map[string]string)
				}
				result.Failed[keyOrURL] = err.Error()
				errs = append(errs, err)
				return nil
			}
			result.Keys = append(result.Keys, res.Key)
			return nil
		})
	}
	_ = eg.Wait()

	result.Success = len(errs) == 0
	if !result.Success {
		return result, apperr.StorageDelete(op, fmt.Sprintf("Failed to delete %d of %d stored files", len(errs), len(keysOrURLs)), errors.Join(errs...))
	}
	return result, nil
}

// ResolvePublicURL derives the public URL of key without touching storage
func (g *Gateway) ResolvePublicURL(key string) string {
	return g.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// NormalizeKey returns the object key for a raw key or public URL
func (g *Gateway) NormalizeKey(keyOrURL string) string {
	return NormalizeKey(keyOrURL, g.publicBaseURL, g.bucket)
}

// Exists diagnostic probe, not used by delete paths
func (g *Gateway) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	key, err := g.key("blob.Exists", keyOrURL)
	if err != nil {
		return false, err
	}
	return g.provider.Exists(ctx, key)
}

// Metadata diagnostic probe, not used by delete paths
func (g *Gateway) Metadata(ctx context.Context, keyOrURL string) (storage.ObjectInfo, error) {
	const op = "blob.Metadata"

	key, err := g.key(op, keyOrURL)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := g.provider.Stat(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return storage.ObjectInfo{}, apperr.NotFound(op, "Stored file not found")
	}
	return info, err
}

// ListKeys calls fn for every stored key
func (g *Gateway) ListKeys(ctx context.Context, fn func(storage.ObjectInfo) error) error {
	return g.provider.List(ctx, "", fn)
}

// Open returns a reader for the object, used to serve local storage publicly
func (g *Gateway) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "blob.Open"

	key, err := g.key(op, key)
	if err != nil {
		return nil, err
	}
	rc, err := g.provider.GetWithContext(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, apperr.NotFound(op, "Stored file not found")
	}
	return rc, err
}

func (g *Gateway) key(op, keyOrURL string) (string, error) {
	key := g.NormalizeKey(keyOrURL)
	if key == "" || !storage.IsValidStoragePath(key) {
		return "", apperr.Validation(op, "Invalid storage key")
	}
	return key, nil
}

func (g *Gateway) fullPath(key string) string {
	if g.bucket == "" {
		return key
	}
	return g.bucket + "/" + key
}

// LogCleanupFailure records a best effort delete failure with enough context to remove the blob by hand
func LogCleanupFailure(err error, op, key string, fields map[string]string) {
	event := log.Warn().Err(err).Str("op", op).Str("image_key", key)
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg("Storage cleanup failed, blob left behind")
}
