package paramconfigs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

// ConfigDTO is the transport shape for a parameter config.
type ConfigDTO struct {
	ID                    uuid.UUID          `json:"id"`
	ParameterName         string             `json:"parameterName"`
	DisplayName           string             `json:"displayName"`
	Unit                  string             `json:"unit"`
	Description           *string            `json:"description,omitempty"`
	CalculationMethod     *string            `json:"calculationMethod,omitempty"`
	CalculationParameters types.JSONDocument `json:"calculationParameters,omitempty"`
	RequiredLEDs          []float64          `json:"requiredLEDs"`
	MinValidValue         *float64           `json:"minValidValue,omitempty"`
	MaxValidValue         *float64           `json:"maxValidValue,omitempty"`
	OrganizationID        *uuid.UUID         `json:"organizationId"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// Input carries create and update payloads. On update nil fields are left
// alone and OrganizationID only applies when it was present in the body.
type Input struct {
	ParameterName         *string            `json:"parameterName"`
	DisplayName           *string            `json:"displayName"`
	Unit                  *string            `json:"unit"`
	Description           *string            `json:"description"`
	CalculationMethod     *string            `json:"calculationMethod"`
	CalculationParameters json.RawMessage    `json:"calculationParameters"`
	RequiredLEDs          *[]float64         `json:"requiredLEDs"`
	MinValidValue         *float64           `json:"minValidValue"`
	MaxValidValue         *float64           `json:"maxValidValue"`
	OrganizationID        types.NullableUUID `json:"organizationId"`
}

func (in Input) apply(m *models.ParameterConfig) {
	if in.ParameterName != nil {
		m.ParameterName = *in.ParameterName
	}
	if in.DisplayName != nil {
		m.DisplayName = *in.DisplayName
	}
	if in.Unit != nil {
		m.Unit = *in.Unit
	}
	if in.Description != nil {
		v := *in.Description
		m.Description = &v
	}
	if in.CalculationMethod != nil {
		v := *in.CalculationMethod
		m.CalculationMethod = &v
	}
	if len(in.CalculationParameters) > 0 {
		m.CalculationParameters = types.JSONDocument(in.CalculationParameters)
	}
	if in.RequiredLEDs != nil {
		m.RequiredLEDs = append([]float64{}, (*in.RequiredLEDs)...)
	}
	if in.MinValidValue != nil {
		v := *in.MinValidValue
		m.MinValidValue = &v
	}
	if in.MaxValidValue != nil {
		v := *in.MaxValidValue
		m.MaxValidValue = &v
	}
	m.OrganizationID = in.OrganizationID.Apply(m.OrganizationID)
}

func FromModel(m *models.ParameterConfig) *ConfigDTO {
	if m == nil {
		return nil
	}
	leds := []float64(m.RequiredLEDs)
	if leds == nil {
		leds = []float64{}
	}
	return &ConfigDTO{
		ID:                    m.ID,
		ParameterName:         m.ParameterName,
		DisplayName:           m.DisplayName,
		Unit:                  m.Unit,
		Description:           m.Description,
		CalculationMethod:     m.CalculationMethod,
		CalculationParameters: m.CalculationParameters,
		RequiredLEDs:          leds,
		MinValidValue:         m.MinValidValue,
		MaxValidValue:         m.MaxValidValue,
		OrganizationID:        m.OrganizationID,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}
