package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

// Sensor is a physical device in the field.
type Sensor struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SerialNumber         string             `gorm:"column:serial_number;type:text;not null;uniqueIndex:idx_sensors_serial_number"`
	Name                 string             `gorm:"column:name;type:text;not null"`
	Lat                  *float64           `gorm:"column:lat"`
	Long                 *float64           `gorm:"column:long"`
	LocationName         *string            `gorm:"column:location_name"`
	Status               enums.SensorStatus `gorm:"column:status;not null"`
	Enabled              bool               `gorm:"column:enabled;not null"`
	FirmwareVersion      *string            `gorm:"column:firmware_version"`
	HardwareVersion      *string            `gorm:"column:hardware_version"`
	BatteryLevel         *float64           `gorm:"column:battery_level"`
	LastServiceDate      *time.Time         `gorm:"column:last_service_date"`
	NextScheduledService *time.Time         `gorm:"column:next_scheduled_service"`
	LEDConfiguration     types.JSONDocument `gorm:"column:led_configuration;type:jsonb"`
	CalibrationData      types.JSONDocument `gorm:"column:calibration_data;type:jsonb"`
	MeasurableParameters pq.StringArray     `gorm:"column:measurable_parameters;type:text[]"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	LastUpdated          time.Time          `gorm:"column:last_updated;autoUpdateTime"`
}

// SensorOrganization links a sensor to an organization.
type SensorOrganization struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SensorID       uuid.UUID `gorm:"column:sensor_id;type:uuid;not null;uniqueIndex:idx_sensor_organizations_sensor_org,priority:1"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_sensor_organizations_sensor_org,priority:2;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
