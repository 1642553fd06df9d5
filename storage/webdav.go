package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV connection settings
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV backed storage
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage connects and verifies the root directory can be read
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: normalizeRoot(cfg.RootPath),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return s, nil
}

func normalizeRoot(rootPath string) string {
	rootPath = strings.Trim(rootPath, "/")
	if rootPath == "" {
		return ""
	}
	return "/" + rootPath
}

// fullPath maps a key onto the remote path
func (s *WebDAVStorage) fullPath(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + key
	}
	return "/" + key
}

// run executes a blocking client call, giving up when ctx is done
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-done:
		return res.v, res.err
	}
}

func (s *WebDAVStorage) SaveWithContext(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	fullPath := s.fullPath(key)

	if dir := path.Dir(fullPath); dir != "/" && dir != "." {
		if _, err := run(ctx, func() (struct{}, error) {
			return struct{}{}, s.client.MkdirAll(dir, 0755)
		}); err != nil {
			return fmt.Errorf("failed to ensure parent directory for %s: %w", key, err)
		}
	}

	_, err := run(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.WriteStream(fullPath, r, 0644)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}
	return nil
}

func (s *WebDAVStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := run(ctx, func() (io.ReadCloser, error) {
		return s.client.ReadStream(s.fullPath(key))
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", key, err)
	}
	return rc, nil
}

func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, key string) error {
	_, err := run(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.Remove(s.fullPath(key))
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (s *WebDAVStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *WebDAVStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	fi, err := run(ctx, func() (os.FileInfo, error) {
		return s.client.Stat(s.fullPath(key))
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return s.objectInfo(key, fi), nil
}

func (s *WebDAVStorage) objectInfo(key string, fi os.FileInfo) ObjectInfo {
	info := ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
	}
	if f, ok := fi.(interface{ ContentType() string }); ok {
		info.ContentType = f.ContentType()
	}
	if info.ContentType == "" {
		info.ContentType = mime.TypeByExtension(path.Ext(key))
	}
	return info
}

func (s *WebDAVStorage) List(ctx context.Context, prefix string, fn func(ObjectInfo) error) error {
	return s.walk(ctx, "", prefix, fn)
}

func (s *WebDAVStorage) walk(ctx context.Context, dir, prefix string, fn func(ObjectInfo) error) error {
	remote := s.rootPath + "/" + dir
	entries, err := run(ctx, func() ([]os.FileInfo, error) {
		return s.client.ReadDir(remote)
	})
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", remote, err)
	}

	for _, fi := range entries {
		key := path.Join(dir, fi.Name())
		if fi.IsDir() {
			if err := s.walk(ctx, key, prefix, fn); err != nil {
				return err
			}
			continue
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := fn(s.objectInfo(key, fi)); err != nil {
			return err
		}
	}
	return nil
}

func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	_, err := run(ctx, func() ([]os.FileInfo, error) {
		return s.client.ReadDir(root)
	})
	return err
}

func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return "webdav"
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
