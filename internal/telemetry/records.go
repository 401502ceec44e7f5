package telemetry

import "time"

// timestampLayout matches the AWSDateTime strings written by the ingestion
// pipeline, so BETWEEN on the sort key compares lexically.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParameterValue is one derived measurement. PK sensorId, SK timestamp.
type ParameterValue struct {
	ID             string         `dynamodbav:"id" json:"id"`
	SensorID       string         `dynamodbav:"sensorId" json:"sensorId"`
	Timestamp      string         `dynamodbav:"timestamp" json:"timestamp"`
	Status         int            `dynamodbav:"status" json:"status"`
	ParameterName  string         `dynamodbav:"parameterName" json:"parameterName"`
	Value          float64        `dynamodbav:"value" json:"value"`
	Unit           string         `dynamodbav:"unit" json:"unit"`
	Confidence     *float64       `dynamodbav:"confidence,omitempty" json:"confidence,omitempty"`
	CalibrationID  *string        `dynamodbav:"calibrationId,omitempty" json:"calibrationId,omitempty"`
	Metadata       map[string]any `dynamodbav:"metadata,omitempty" json:"metadata,omitempty"`
	OrganizationID string         `dynamodbav:"organizationId" json:"organizationId"`
	CreatedAt      string         `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt      string         `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SpectrogramReading is one raw LED sweep. PK sensorId, SK timestamp.
type SpectrogramReading struct {
	ID                 string         `dynamodbav:"id" json:"id"`
	SensorID           string         `dynamodbav:"sensorId" json:"sensorId"`
	Timestamp          string         `dynamodbav:"timestamp" json:"timestamp"`
	LEDWavelength      float64        `dynamodbav:"ledWavelength" json:"ledWavelength"`
	LEDIntensity       float64        `dynamodbav:"ledIntensity" json:"ledIntensity"`
	Wavelengths        []float64      `dynamodbav:"wavelengths" json:"wavelengths"`
	Intensities        []float64      `dynamodbav:"intensities" json:"intensities"`
	CalibrationID      *string        `dynamodbav:"calibrationId,omitempty" json:"calibrationId,omitempty"`
	SignalToNoiseRatio *float64       `dynamodbav:"signalToNoiseRatio,omitempty" json:"signalToNoiseRatio,omitempty"`
	Temperature        *float64       `dynamodbav:"temperature,omitempty" json:"temperature,omitempty"`
	Status             int            `dynamodbav:"status" json:"status"`
	Metadata           map[string]any `dynamodbav:"metadata,omitempty" json:"metadata,omitempty"`
	OrganizationID     string         `dynamodbav:"organizationId" json:"organizationId"`
	CreatedAt          string         `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt          string         `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

func (p ParameterValue) organization() string     { return p.OrganizationID }
func (s SpectrogramReading) organization() string { return s.OrganizationID }

// Page holds one capped query result. Truncated is set when the store stopped
// at its item cap with matching rows left unread.
type Page[T any] struct {
	Items     []T
	Truncated bool
}
