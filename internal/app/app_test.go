package app

import (
	"context"
	"testing"

	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/database/dbtest"
	"github.com/anoixa/memlane/database/repo/timelines"
	"github.com/anoixa/memlane/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoriesAreScopedPerCredential(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	cfg := &config.Config{ServerPort: 8080, StorageBucket: "memories"}
	c := NewContainerWith(cfg, dbtest.NewProvider(t), local)

	alice := c.Repositories("alice-token")
	bob := c.Repositories("bob-token")
	assert.Equal(t, "alice-token", alice.Session.Credential())
	assert.Equal(t, "bob-token", bob.Session.Credential())
	assert.NotSame(t, alice.Timelines, bob.Timelines)

	tl, err := alice.Timelines.Create(context.Background(), timelines.CreateInput{Name: "Shared", Description: "d"})
	require.NoError(t, err)
	got, err := bob.Timelines.GetByID(context.Background(), tl.ID)
	require.NoError(t, err, "sqlite has no row level rules")
	assert.Equal(t, "shared", got.Slug)

	assert.Equal(t, "http://localhost:8080/files/memories/k.png", c.Gateway().ResolvePublicURL("k.png"))
}

func TestOptionsFromConfig(t *testing.T) {
	assert.Equal(t, timelines.Options{MaxAttempts: 100, InsertRetries: 0}, optionsFrom(&config.Config{}))
	assert.Equal(t, timelines.Options{MaxAttempts: 5, InsertRetries: 2},
		optionsFrom(&config.Config{SlugMaxAttempts: 5, SlugInsertRetries: 2}))
}
