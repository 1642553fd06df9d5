package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/database/dbtest"
	"github.com/anoixa/memlane/database/repo/counts"
	"github.com/anoixa/memlane/database/repo/memories"
	"github.com/anoixa/memlane/database/repo/timelines"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/anoixa/memlane/internal/session"
	"github.com/anoixa/memlane/storage"
	"github.com/anoixa/memlane/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dayOld = cleanOptions{MinAge: 24 * time.Hour}

type cleanFixture struct {
	local    *storage.LocalStorage
	gateway  *blob.Gateway
	faulty   *storagetest.FaultyProvider
	memories *memories.Repository
	kept     string
	orphans  []string
}

func setupClean(t *testing.T) *cleanFixture {
	t.Helper()
	ctx := context.Background()

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	faulty := storagetest.NewFaultyProvider(local)
	gw := blob.NewGateway(faulty, blob.Options{Bucket: "memories", PublicBaseURL: "http://localhost/files/memories"})

	sess := session.New(dbtest.NewProvider(t), "")
	mem := memories.NewRepository(sess, gw)
	tls := timelines.NewRepository(sess, mem, counts.NewPlanner(), timelines.DefaultOptions())

	tl, err := tls.Create(ctx, timelines.CreateInput{Name: "Rome", Description: "d"})
	require.NoError(t, err)

	upload := func(name string) string {
		res, err := gw.Upload(ctx, strings.NewReader("img"), 3, name, "image/png")
		require.NoError(t, err)
		return res.Key
	}

	kept := upload("kept.png")
	_, err = mem.Create(ctx, memories.CreateInput{
		TimelineID:  tl.ID,
		Name:        "m",
		Description: "d",
		ImageURL:    gw.ResolvePublicURL(kept),
		ImageKey:    kept,
		DateOfEvent: "2024-07-15",
	})
	require.NoError(t, err)

	f := &cleanFixture{
		local:    local,
		gateway:  gw,
		faulty:   faulty,
		memories: mem,
		kept:     kept,
		orphans:  []string{upload("leaked-1.png"), upload("leaked-2.png")},
	}
	f.age(t, 48*time.Hour, append([]string{kept}, f.orphans...)...)
	return f
}

func (f *cleanFixture) upload(t *testing.T, name string) string {
	t.Helper()
	res, err := f.gateway.Upload(context.Background(), strings.NewReader("img"), 3, name, "image/png")
	require.NoError(t, err)
	return res.Key
}

// age backdates the stored files' modification time
func (f *cleanFixture) age(t *testing.T, by time.Duration, keys ...string) {
	t.Helper()
	then := time.Now().Add(-by)
	for _, key := range keys {
		require.NoError(t, os.Chtimes(filepath.Join(f.local.BasePath(), filepath.FromSlash(key)), then, then))
	}
}

func TestRunCleanDeletesOrphans(t *testing.T) {
	f := setupClean(t)
	ctx := context.Background()

	stats, err := runClean(ctx, f.memories, f.gateway, dayOld)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.scanned)
	assert.Equal(t, 1, stats.referenced)
	assert.ElementsMatch(t, f.orphans, stats.orphans)
	assert.Equal(t, 2, stats.deleted)

	for _, key := range f.orphans {
		exists, err := f.gateway.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	}
	exists, err := f.gateway.Exists(ctx, f.kept)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunCleanDryRun(t *testing.T) {
	f := setupClean(t)
	ctx := context.Background()

	stats, err := runClean(ctx, f.memories, f.gateway, cleanOptions{DryRun: true, MinAge: 24 * time.Hour})
	require.NoError(t, err)
	assert.Len(t, stats.orphans, 2)
	assert.Zero(t, stats.deleted)
	assert.Empty(t, f.faulty.DeleteCalls())
}

func TestRunCleanReportsFailures(t *testing.T) {
	f := setupClean(t)
	f.faulty.FailDeletes(f.orphans[0])

	stats, err := runClean(context.Background(), f.memories, f.gateway, dayOld)
	require.Error(t, err)
	assert.Equal(t, 1, stats.deleted)
	assert.Contains(t, stats.failed, f.orphans[0])
}

func TestRunCleanKeepsFreshUploads(t *testing.T) {
	f := setupClean(t)
	ctx := context.Background()
	fresh := f.upload(t, "fresh.png")

	stats, err := runClean(ctx, f.memories, f.gateway, dayOld)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.scanned)
	assert.Equal(t, 1, stats.recent)
	assert.ElementsMatch(t, f.orphans, stats.orphans)
	assert.NotContains(t, f.faulty.DeleteCalls(), fresh)

	exists, err := f.gateway.Exists(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, exists, "an upload whose memory is not created yet must survive")
}

func TestRunCleanMinAgeBoundary(t *testing.T) {
	f := setupClean(t)
	ctx := context.Background()
	young := f.upload(t, "young.png")
	f.age(t, 23*time.Hour, young)

	stats, err := runClean(ctx, f.memories, f.gateway, dayOld)
	require.NoError(t, err)
	assert.NotContains(t, stats.orphans, young)

	stats, err = runClean(ctx, f.memories, f.gateway, cleanOptions{MinAge: 12 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, []string{young}, stats.orphans)
	assert.Equal(t, 1, stats.deleted)
}

func TestCheckCleanCredential(t *testing.T) {
	tests := []struct {
		name       string
		dbType     string
		credential string
		wantErr    bool
	}{
		{"sqlite without credential", database.TypeSQLite, "", false},
		{"default backend without credential", "", "", false},
		{"postgres without credential", database.TypePostgres, "", true},
		{"postgresql alias without credential", "postgresql", "", true},
		{"postgres with credential", database.TypePostgres, "service-token", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCleanCredential(tt.dbType, tt.credential)
			if tt.wantErr {
				assert.ErrorIs(t, err, errCleanCredentialRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
