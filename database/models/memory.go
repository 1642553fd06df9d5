package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Memory struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TimelineID  string    `gorm:"type:varchar(36);not null;index:idx_memory_timeline_date,priority:1" json:"timeline_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImageURL    string    `gorm:"column:image_url;type:text;not null" json:"image_url"`
	ImageKey    string    `gorm:"column:image_key;type:varchar(512);not null" json:"image_key"`
	DateOfEvent Date      `gorm:"type:date;not null;index:idx_memory_timeline_date,priority:2" json:"date_of_event"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Timeline *Timeline `gorm:"foreignKey:TimelineID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Memory) TableName() string {
	return "memory"
}

func (m *Memory) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
