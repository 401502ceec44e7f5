package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/telemetry"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

type cannedTelemetry struct {
	values    []telemetry.ParameterValue
	readings  []telemetry.SpectrogramReading
	truncated bool
}

func (c cannedTelemetry) ParameterValues(context.Context, authz.Principal, uuid.UUID, telemetry.ParameterQuery) (telemetry.Page[telemetry.ParameterValue], error) {
	return telemetry.Page[telemetry.ParameterValue]{Items: c.values, Truncated: c.truncated}, nil
}

func (c cannedTelemetry) SpectrogramReadings(context.Context, authz.Principal, uuid.UUID, telemetry.SpectrogramQuery) (telemetry.Page[telemetry.SpectrogramReading], error) {
	return telemetry.Page[telemetry.SpectrogramReading]{Items: c.readings, Truncated: c.truncated}, nil
}

func serveTelemetry(t *testing.T, svc telemetry.Service, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/sensors/{sensorID}/parameter-values", SensorParameterValues(svc, logger.Nop()))
	r.Get("/sensors/{sensorID}/spectrogram-readings", SensorSpectrogramReadings(svc, logger.Nop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

const telemetryWindow = "?start=2026-01-01T00:00:00Z&end=2026-01-02T00:00:00Z"

func TestTelemetryFlagsCappedResults(t *testing.T) {
	svc := cannedTelemetry{truncated: true, values: []telemetry.ParameterValue{{ID: "a"}, {ID: "b"}}}

	rec := serveTelemetry(t, svc, "/sensors/"+uuid.NewString()+"/parameter-values"+telemetryWindow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "true", rec.Header().Get(TruncatedHeader))

	var body struct {
		Data []telemetry.ParameterValue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestTelemetryCompleteResultsCarryNoFlag(t *testing.T) {
	svc := cannedTelemetry{readings: []telemetry.SpectrogramReading{{ID: "r1"}}}

	rec := serveTelemetry(t, svc, "/sensors/"+uuid.NewString()+"/spectrogram-readings"+telemetryWindow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Header().Get(TruncatedHeader))
}
