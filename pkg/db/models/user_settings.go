package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

// UserSettings holds UI preferences. At most one row per user.
type UserSettings struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Owner     string             `gorm:"column:owner;type:text;not null"`
	UserID    string             `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_user_settings_user_id"`
	Theme     enums.Theme        `gorm:"column:theme;type:text;not null"`
	UILayout  types.JSONDocument `gorm:"column:ui_layout;type:jsonb"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserSettings) TableName() string { return "user_settings" }
