package counts

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/memlane/database/dbtest"
	"github.com/anoixa/memlane/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB, memoriesPerTimeline ...int) []string {
	t.Helper()
	ids := make([]string, 0, len(memoriesPerTimeline))
	for i, n := range memoriesPerTimeline {
		tl := &models.Timeline{Name: "t", Description: "d", Slug: "t-" + string(rune('a'+i))}
		require.NoError(t, db.Create(tl).Error)
		ids = append(ids, tl.ID)
		for j := 0; j < n; j++ {
			require.NoError(t, db.Create(&models.Memory{
				TimelineID:  tl.ID,
				Name:        "m",
				Description: "d",
				ImageURL:    "http://x/y.png",
				ImageKey:    "y.png",
				DateOfEvent: models.DateOf(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)),
			}).Error)
		}
	}
	return ids
}

func TestPlanner_MemoryCounts(t *testing.T) {
	provider := dbtest.NewProvider(t)
	db := provider.WithContext(context.Background())
	ids := seed(t, db, 3, 0, 1)
	queries := dbtest.CountStatements(t, provider.DB(), "memory")

	counts, err := NewPlanner().MemoryCounts(db, append(ids, ids[0]))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{ids[0]: 3, ids[1]: 0, ids[2]: 1}, counts)
	assert.Equal(t, 1, *queries)
}

func TestPlanner_EmptyIDsSkipsQuery(t *testing.T) {
	provider := dbtest.NewProvider(t)
	db := provider.WithContext(context.Background())

	queries := dbtest.CountStatements(t, provider.DB(), "memory")

	counts, err := NewPlanner().MemoryCounts(db, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Zero(t, *queries)
}

func TestMerge(t *testing.T) {
	timelines := []*models.Timeline{{ID: "b"}, {ID: "a"}}
	merged := Merge(timelines, map[string]int64{"a": 2})
	require.Len(t, merged, 2)
	assert.Equal(t, "b", merged[0].ID)
	assert.Equal(t, int64(0), merged[0].MemoryCount)
	assert.Equal(t, int64(2), merged[1].MemoryCount)
}
