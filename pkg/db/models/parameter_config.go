package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aquamesh/aquaview-backend/pkg/types"
)

// ParameterConfig describes how a parameter is derived from readings. A nil
// OrganizationID makes it the global default.
type ParameterConfig struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ParameterName         string             `gorm:"column:parameter_name;type:text;not null"`
	DisplayName           string             `gorm:"column:display_name;type:text;not null"`
	Unit                  string             `gorm:"column:unit;type:text;not null"`
	Description           *string            `gorm:"column:description"`
	CalculationMethod     *string            `gorm:"column:calculation_method"`
	CalculationParameters types.JSONDocument `gorm:"column:calculation_parameters;type:jsonb"`
	RequiredLEDs          pq.Float64Array    `gorm:"column:required_leds;type:double precision[]"`
	MinValidValue         *float64           `gorm:"column:min_valid_value"`
	MaxValidValue         *float64           `gorm:"column:max_valid_value"`
	OrganizationID        *uuid.UUID         `gorm:"column:organization_id;type:uuid"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
