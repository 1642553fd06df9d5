package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Timeline struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_timeline_slug" json:"slug"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Timeline) TableName() string {
	return "timeline"
}

// BeforeCreate assigns the immutable ID
func (t *Timeline) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TimelineWithCount timeline row joined with the number of memories it owns
type TimelineWithCount struct {
	Timeline
	MemoryCount int64 `json:"memory_count"`
}
