package sensors

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

// SensorDTO is the transport shape for a sensor.
type SensorDTO struct {
	ID                   uuid.UUID          `json:"id"`
	SerialNumber         string             `json:"serialNumber"`
	Name                 string             `json:"name"`
	Lat                  *float64           `json:"lat,omitempty"`
	Long                 *float64           `json:"long,omitempty"`
	LocationName         *string            `json:"locationName,omitempty"`
	Status               enums.SensorStatus `json:"status"`
	StatusLabel          string             `json:"statusLabel"`
	Enabled              bool               `json:"enabled"`
	FirmwareVersion      *string            `json:"firmwareVersion,omitempty"`
	HardwareVersion      *string            `json:"hardwareVersion,omitempty"`
	BatteryLevel         *float64           `json:"batteryLevel,omitempty"`
	LastServiceDate      *time.Time         `json:"lastServiceDate,omitempty"`
	NextScheduledService *time.Time         `json:"nextScheduledService,omitempty"`
	LEDConfiguration     types.JSONDocument `json:"ledConfiguration,omitempty"`
	CalibrationData      types.JSONDocument `json:"calibrationData,omitempty"`
	MeasurableParameters []string           `json:"measurableParameters"`
	OrganizationIDs      []uuid.UUID        `json:"organizationIds,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	LastUpdated          time.Time          `json:"lastUpdated"`
}

// Fields lists writable sensor attributes. On update a nil pointer leaves
// the column untouched.
type Fields struct {
	SerialNumber         *string
	Name                 *string
	Lat                  *float64
	Long                 *float64
	LocationName         *string
	Status               *int
	Enabled              *bool
	FirmwareVersion      *string
	HardwareVersion      *string
	BatteryLevel         *float64
	LastServiceDate      *time.Time
	NextScheduledService *time.Time
	LEDConfiguration     json.RawMessage
	CalibrationData      json.RawMessage
	MeasurableParameters *[]string
}

func (f Fields) apply(s *models.Sensor) {
	if f.SerialNumber != nil {
		s.SerialNumber = *f.SerialNumber
	}
	if f.Name != nil {
		s.Name = *f.Name
	}
	if f.Lat != nil {
		s.Lat = copyFloat(f.Lat)
	}
	if f.Long != nil {
		s.Long = copyFloat(f.Long)
	}
	if f.LocationName != nil {
		s.LocationName = copyString(f.LocationName)
	}
	if f.Status != nil {
		s.Status = enums.SensorStatus(*f.Status)
	}
	if f.Enabled != nil {
		s.Enabled = *f.Enabled
	}
	if f.FirmwareVersion != nil {
		s.FirmwareVersion = copyString(f.FirmwareVersion)
	}
	if f.HardwareVersion != nil {
		s.HardwareVersion = copyString(f.HardwareVersion)
	}
	if f.BatteryLevel != nil {
		s.BatteryLevel = copyFloat(f.BatteryLevel)
	}
	if f.LastServiceDate != nil {
		t := f.LastServiceDate.UTC()
		s.LastServiceDate = &t
	}
	if f.NextScheduledService != nil {
		t := f.NextScheduledService.UTC()
		s.NextScheduledService = &t
	}
	if len(f.LEDConfiguration) > 0 {
		s.LEDConfiguration = types.JSONDocument(f.LEDConfiguration)
	}
	if len(f.CalibrationData) > 0 {
		s.CalibrationData = types.JSONDocument(f.CalibrationData)
	}
	if f.MeasurableParameters != nil {
		s.MeasurableParameters = append([]string{}, (*f.MeasurableParameters)...)
	}
}

func FromModel(s *models.Sensor) *SensorDTO {
	if s == nil {
		return nil
	}
	params := []string(s.MeasurableParameters)
	if params == nil {
		params = []string{}
	}
	return &SensorDTO{
		ID:                   s.ID,
		SerialNumber:         s.SerialNumber,
		Name:                 s.Name,
		Lat:                  s.Lat,
		Long:                 s.Long,
		LocationName:         s.LocationName,
		Status:               s.Status,
		StatusLabel:          s.Status.String(),
		Enabled:              s.Enabled,
		FirmwareVersion:      s.FirmwareVersion,
		HardwareVersion:      s.HardwareVersion,
		BatteryLevel:         s.BatteryLevel,
		LastServiceDate:      s.LastServiceDate,
		NextScheduledService: s.NextScheduledService,
		LEDConfiguration:     s.LEDConfiguration,
		CalibrationData:      s.CalibrationData,
		MeasurableParameters: params,
		CreatedAt:            s.CreatedAt,
		LastUpdated:          s.LastUpdated,
	}
}

func FromModels(rows []models.Sensor) []SensorDTO {
	out := make([]SensorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
