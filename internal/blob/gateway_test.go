package blob

import (
	"context"
	"strings"
	"testing"

	"github.com/anoixa/memlane/internal/apperr"
	"github.com/anoixa/memlane/storage"
	"github.com/anoixa/memlane/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://localhost:8080/files/memories"

func newTestGateway(t *testing.T) (*Gateway, *storagetest.FaultyProvider) {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	faulty := storagetest.NewFaultyProvider(local)
	return NewGateway(faulty, Options{Bucket: "memories", PublicBaseURL: testBaseURL}), faulty
}

func TestGateway_Upload(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	res, err := gw.Upload(ctx, strings.NewReader("img"), 3, "Rome.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Key, "-rome.png"))
	assert.Equal(t, "memories/"+res.Key, res.FullPath)
	assert.Equal(t, testBaseURL+"/"+res.Key, res.PublicURL)

	exists, err := gw.Exists(ctx, res.PublicURL)
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := gw.Metadata(ctx, res.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
}

func TestGateway_UploadFailure(t *testing.T) {
	gw, faulty := newTestGateway(t)
	faulty.FailSaves(true)

	_, err := gw.Upload(context.Background(), strings.NewReader("img"), 3, "a.png", "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorageWrite)
}

func TestGateway_DeleteAcceptsKeyOrURL(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	res, err := gw.Upload(ctx, strings.NewReader("img"), 3, "a.png", "image/png")
	require.NoError(t, err)

	del, err := gw.Delete(ctx, res.PublicURL)
	require.NoError(t, err)
	assert.True(t, del.Success)
	assert.Equal(t, res.Key, del.Key)

	exists, err := gw.Exists(ctx, res.Key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGateway_DeleteMissingIsNoop(t *testing.T) {
	gw, _ := newTestGateway(t)

	del, err := gw.Delete(context.Background(), "1700-abc-gone.png")
	require.NoError(t, err)
	assert.True(t, del.Success)
}

func TestGateway_DeleteFailure(t *testing.T) {
	gw, faulty := newTestGateway(t)
	faulty.FailDeletes()

	_, err := gw.Delete(context.Background(), "1700-abc-a.png")
	assert.ErrorIs(t, err, apperr.ErrStorageDelete)
}

func TestGateway_DeleteInvalidKey(t *testing.T) {
	gw, _ := newTestGateway(t)

	_, err := gw.Delete(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGateway_DeleteManyPartialFailure(t *testing.T) {
	gw, faulty := newTestGateway(t)
	ctx := context.Background()

	var keys []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		res, err := gw.Upload(ctx, strings.NewReader("img"), 3, name, "image/png")
		require.NoError(t, err)
		keys = append(keys, res.Key)
	}
	faulty.FailDeletes(keys[1])

	res, err := gw.DeleteMany(ctx, keys)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorageDelete)
	assert.False(t, res.Success)
	assert.ElementsMatch(t, []string{keys[0], keys[2]}, res.Keys)
	assert.Contains(t, res.Failed, keys[1])

	for _, k := range []string{keys[0], keys[2]} {
		exists, err := gw.Exists(ctx, k)
		require.NoError(t, err)
		assert.False(t, exists, "successful deletions are kept")
	}
	exists, err := gw.Exists(ctx, keys[1])
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGateway_ResolvePublicURL(t *testing.T) {
	gw, _ := newTestGateway(t)
	assert.Equal(t, testBaseURL+"/k.png", gw.ResolvePublicURL("k.png"))
	assert.Equal(t, "k.png", gw.NormalizeKey(gw.ResolvePublicURL("k.png")))
}
