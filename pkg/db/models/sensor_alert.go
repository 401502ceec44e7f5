package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// SensorAlert is an event raised for a sensor. OrganizationID is copied from
// the sensor link at write time.
type SensorAlert struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SensorID       uuid.UUID      `gorm:"column:sensor_id;type:uuid;not null;index:idx_sensor_alerts_sensor_ts,priority:1"`
	Type           string         `gorm:"column:type;type:text;not null"`
	Severity       enums.Severity `gorm:"column:severity;not null"`
	Message        string         `gorm:"column:message;type:text;not null"`
	Timestamp      time.Time      `gorm:"column:timestamp;not null;index:idx_sensor_alerts_sensor_ts,priority:2"`
	Acknowledged   bool           `gorm:"column:acknowledged;not null"`
	AcknowledgedBy *string        `gorm:"column:acknowledged_by"`
	AcknowledgedAt *time.Time     `gorm:"column:acknowledged_at"`
	OrganizationID *uuid.UUID     `gorm:"column:organization_id;type:uuid"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
