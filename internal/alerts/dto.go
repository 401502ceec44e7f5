package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// AlertDTO is the transport shape for a sensor alert.
type AlertDTO struct {
	ID             uuid.UUID      `json:"id"`
	SensorID       uuid.UUID      `json:"sensorId"`
	Type           string         `json:"type"`
	Severity       enums.Severity `json:"severity"`
	SeverityLabel  string         `json:"severityLabel"`
	Message        string         `json:"message"`
	Timestamp      time.Time      `json:"timestamp"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedBy *string        `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time     `json:"acknowledgedAt,omitempty"`
	OrganizationID *uuid.UUID     `json:"organizationId,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CreateAlertInput is the payload of the admin create call.
type CreateAlertInput struct {
	Type      string
	Severity  int
	Message   string
	Timestamp *time.Time
}

// ListFilter narrows ListBySensor. A nil Acknowledged returns both states.
type ListFilter struct {
	Acknowledged *bool
	Limit        int
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (f ListFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	}
	return f.Limit
}

func FromModel(m *models.SensorAlert) *AlertDTO {
	if m == nil {
		return nil
	}
	return &AlertDTO{
		ID:             m.ID,
		SensorID:       m.SensorID,
		Type:           m.Type,
		Severity:       m.Severity,
		SeverityLabel:  m.Severity.String(),
		Message:        m.Message,
		Timestamp:      m.Timestamp,
		Acknowledged:   m.Acknowledged,
		AcknowledgedBy: m.AcknowledgedBy,
		AcknowledgedAt: m.AcknowledgedAt,
		OrganizationID: m.OrganizationID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func FromModels(rows []models.SensorAlert) []AlertDTO {
	out := make([]AlertDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
