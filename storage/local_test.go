package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"..",
		"",
		"/etc/passwd",
		"folder/../../../etc/passwd",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			err := storage.SaveWithContext(ctx, attempt, strings.NewReader("x"), 1, "text/plain")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid")
		})
	}

	err = storage.DeleteWithContext(ctx, "../../../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLocalStorage_SaveStatGet(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "1700000000000-abc123-photo.jpg"
	require.NoError(t, storage.SaveWithContext(ctx, key, strings.NewReader("jpeg bytes"), 10, "image/jpeg"))

	exists, err := storage.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := storage.Stat(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, info.Key)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.False(t, info.LastModified.IsZero())

	rc, err := storage.GetWithContext(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestLocalStorage_MissingObjects(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := storage.Exists(ctx, "missing.png")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = storage.Stat(ctx, "missing.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))

	err = storage.DeleteWithContext(ctx, "missing.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestLocalStorage_List(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"a-1.png", "a-2.png", "nested/b-1.png"} {
		require.NoError(t, storage.SaveWithContext(ctx, key, strings.NewReader("x"), 1, ""))
	}

	var all []string
	require.NoError(t, storage.List(ctx, "", func(info ObjectInfo) error {
		all = append(all, info.Key)
		return nil
	}))
	sort.Strings(all)
	assert.Equal(t, []string{"a-1.png", "a-2.png", "nested/b-1.png"}, all)

	var prefixed []string
	require.NoError(t, storage.List(ctx, "a-", func(info ObjectInfo) error {
		prefixed = append(prefixed, info.Key)
		return nil
	}))
	assert.Len(t, prefixed, 2)

	stop := errors.New("stop")
	err = storage.List(ctx, "", func(ObjectInfo) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestIsValidStoragePath(t *testing.T) {
	valid := []string{"photo.jpg", "2024/07/photo.jpg", "1700000000000-abc-x_y.png"}
	for _, p := range valid {
		assert.True(t, IsValidStoragePath(p), p)
	}

	invalid := []string{"", "../x", "/abs", "a/../../b", "white space.png", "semi;colon.png"}
	for _, p := range invalid {
		assert.False(t, IsValidStoragePath(p), p)
	}
}
