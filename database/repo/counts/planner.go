// Package counts batches per timeline memory counts into a single query.
package counts

import (
	"fmt"

	"github.com/anoixa/memlane/database/models"
	"gorm.io/gorm"
)

// Planner computes memory counts for a set of timelines
type Planner struct{}

func NewPlanner() *Planner {
	return &Planner{}
}

type timelineCount struct {
	TimelineID string
	Count      int64
}

// MemoryCounts returns timeline_id -> count for the given ids using one
// GROUP BY query. Ids without memories are present with a zero count.
func (p *Planner) MemoryCounts(tx *gorm.DB, timelineIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(timelineIDs))
	if len(timelineIDs) == 0 {
		return result, nil
	}
	for _, id := range timelineIDs {
		result[id] = 0
	}

	var rows []timelineCount
	err := tx.Model(&models.Memory{}).
		Select("timeline_id, COUNT(*) AS count").
		Where("timeline_id IN ?", uniq(timelineIDs)).
		Group("timeline_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}

	for _, r := range rows {
		result[r.TimelineID] = r.Count
	}
	return result, nil
}

// Merge attaches counts to a page of timelines, keeping order
func Merge(timelines []*models.Timeline, counts map[string]int64) []*models.TimelineWithCount {
	out := make([]*models.TimelineWithCount, len(timelines))
	for i, t := range timelines {
		out[i] = &models.TimelineWithCount{Timeline: *t, MemoryCount: counts[t.ID]}
	}
	return out
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
