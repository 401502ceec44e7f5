// Package sensorquery implements the telemetry query functions that forward
// GraphQL to the data graph. Callers branch on the result shape: a bare array
// on success, an ErrorEnvelope on failure.
package sensorquery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamesh/aquaview-backend/pkg/appsync"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

const parameterValuesQuery = `query GetParameterValuesBySensor(
  $sensorId: String!
  $startTime: String!
  $endTime: String!
  $filter: ModelParameterValueFilterInput
) {
  parameterValuesBySensor(
    sensorId: $sensorId
    timestamp: { between: [$startTime, $endTime] }
    filter: $filter
  ) {
    items {
      id
      sensorId
      timestamp
      parameterName
      value
      unit
      confidence
      status
      metadata
      organizationId
      createdAt
      updatedAt
    }
  }
}`

const spectrogramReadingsQuery = `query GetSpectrogramReadingsBySensor(
  $sensorId: String!
  $startTime: String!
  $endTime: String!
  $filter: ModelSpectrogramReadingFilterInput
) {
  spectrogramReadingsBySensor(
    sensorId: $sensorId
    timestamp: { between: [$startTime, $endTime] }
    filter: $filter
  ) {
    items {
      id
      sensorId
      timestamp
      ledWavelength
      ledIntensity
      wavelengths
      intensities
      calibrationId
      signalToNoiseRatio
      temperature
      status
      metadata
      organizationId
      createdAt
      updatedAt
    }
  }
}`

const (
	parameterValuesField     = "parameterValuesBySensor"
	spectrogramReadingsField = "spectrogramReadingsBySensor"
)

// ParameterValuesInput is the event of the parameter values function.
type ParameterValuesInput struct {
	SensorID       string   `json:"sensorId"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	ParameterNames []string `json:"parameterNames,omitempty"`
}

// SpectrogramReadingsInput is the event of the spectrogram readings function.
type SpectrogramReadingsInput struct {
	SensorID      string   `json:"sensorId"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`
	LEDWavelength *float64 `json:"ledWavelength,omitempty"`
}

type graphLister interface {
	List(ctx context.Context, query string, variables map[string]any, field string) (*appsync.Result, error)
}

// Handler serves both query functions.
type Handler struct {
	graph graphLister
	logg  *logger.Logger
}

func NewHandler(graph graphLister, logg *logger.Logger) (*Handler, error) {
	if graph == nil {
		return nil, fmt.Errorf("graphql client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handler{graph: graph, logg: logg}, nil
}

// GetParameterValuesBySensor returns the matching items or an ErrorEnvelope.
// It never returns an error to the runtime.
func (h *Handler) GetParameterValuesBySensor(ctx context.Context, in ParameterValuesInput) (any, error) {
	var filter any
	if len(in.ParameterNames) > 0 {
		filter = map[string]any{"parameterName": map[string]any{"in": in.ParameterNames}}
	}
	vars := map[string]any{
		"sensorId":  in.SensorID,
		"startTime": in.StartTime,
		"endTime":   in.EndTime,
		"filter":    filter,
	}
	return h.run(ctx, in.SensorID, parameterValuesQuery, vars, parameterValuesField), nil
}

// GetSpectrogramReadingsBySensor returns the matching items or an
// ErrorEnvelope. It never returns an error to the runtime.
func (h *Handler) GetSpectrogramReadingsBySensor(ctx context.Context, in SpectrogramReadingsInput) (any, error) {
	var filter any
	if in.LEDWavelength != nil {
		filter = map[string]any{"ledWavelength": map[string]any{"eq": *in.LEDWavelength}}
	}
	vars := map[string]any{
		"sensorId":  in.SensorID,
		"startTime": in.StartTime,
		"endTime":   in.EndTime,
		"filter":    filter,
	}
	return h.run(ctx, in.SensorID, spectrogramReadingsQuery, vars, spectrogramReadingsField), nil
}

func (h *Handler) run(ctx context.Context, sensorID, query string, vars map[string]any, field string) any {
	ctx = h.logg.WithFields(ctx, map[string]any{"sensor_id": sensorID, "graphql_field": field})
	res, err := h.graph.List(ctx, query, vars, field)
	if err != nil {
		h.logg.Error(ctx, "sensorquery.graphql_failed", err)
		return NewErrorEnvelope(err)
	}
	if len(res.Errors) > 0 {
		ctx = h.logg.WithFields(ctx, map[string]any{"graphql_errors": res.Errors, "graphql_status": res.StatusCode})
		h.logg.Warn(ctx, "sensorquery.graphql_errors")
	}
	ctx = h.logg.WithField(ctx, "item_count", len(res.Items))
	h.logg.Info(ctx, "sensorquery.completed")
	return res.Items
}

// ErrorEnvelope is the failure shape of the query functions.
type ErrorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type errorBody struct {
	Errors []appsync.GraphQLError `json:"errors"`
}

func NewErrorEnvelope(err error) ErrorEnvelope {
	body, _ := json.Marshal(errorBody{Errors: []appsync.GraphQLError{{Message: err.Error()}}})
	return ErrorEnvelope{StatusCode: 500, Body: string(body)}
}
