package sensorquery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/pkg/appsync"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

type capturedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func graphServer(t *testing.T, respond func(w http.ResponseWriter), captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if captured != nil {
			require.NoError(t, json.Unmarshal(raw, captured))
		}
		respond(w)
	}))
}

func newHandler(t *testing.T, endpoint string) *Handler {
	t.Helper()
	client, err := appsync.NewWithCredentials(endpoint, "us-east-1",
		credentials.NewStaticCredentialsProvider("AKID", "secret", ""), appsync.Options{Timeout: time.Second})
	require.NoError(t, err)
	h, err := NewHandler(client, logger.Nop())
	require.NoError(t, err)
	return h
}

func TestParameterValuesReturnsItemsInOrderUnmodified(t *testing.T) {
	const n = 25
	items := make([]string, 0, n)
	for i := n; i > 0; i-- {
		items = append(items, fmt.Sprintf(`{"id":"pv-%02d","sensorId":"S1","timestamp":"2026-01-01T00:%02d:00.000Z","value":%d.250,"metadata":"{\"k\":1}"}`, i, i, i))
	}
	body := `{"data":{"parameterValuesBySensor":{"items":[` + strings.Join(items, ",") + `]}}}`

	var captured capturedRequest
	srv := graphServer(t, func(w http.ResponseWriter) { _, _ = io.WriteString(w, body) }, &captured)
	defer srv.Close()

	out, err := newHandler(t, srv.URL).GetParameterValuesBySensor(context.Background(), ParameterValuesInput{
		SensorID:       "S1",
		StartTime:      "2026-01-01T00:00:00.000Z",
		EndTime:        "2026-01-02T00:00:00.000Z",
		ParameterNames: []string{"pH"},
	})
	require.NoError(t, err)

	got, ok := out.([]json.RawMessage)
	require.True(t, ok, "expected bare array, got %T", out)
	require.Len(t, got, n)
	for i := range items {
		assert.Equal(t, items[i], string(got[i]))
	}

	assert.Contains(t, captured.Query, "parameterValuesBySensor(")
	assert.Equal(t, "S1", captured.Variables["sensorId"])
	assert.Equal(t, map[string]any{"parameterName": map[string]any{"in": []any{"pH"}}}, captured.Variables["filter"])
}

func TestFilterIsNullWithoutOptionalArguments(t *testing.T) {
	var captured capturedRequest
	srv := graphServer(t, func(w http.ResponseWriter) { _, _ = io.WriteString(w, `{"data":{}}`) }, &captured)
	defer srv.Close()
	h := newHandler(t, srv.URL)

	out, err := h.GetSpectrogramReadingsBySensor(context.Background(), SpectrogramReadingsInput{SensorID: "S1", StartTime: "a", EndTime: "b"})
	require.NoError(t, err)
	assert.Equal(t, []json.RawMessage{}, out)
	filter, present := captured.Variables["filter"]
	assert.True(t, present)
	assert.Nil(t, filter)
	assert.Contains(t, captured.Query, "spectrogramReadingsBySensor(")

	led := 405.5
	_, err = h.GetSpectrogramReadingsBySensor(context.Background(), SpectrogramReadingsInput{SensorID: "S1", LEDWavelength: &led})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ledWavelength": map[string]any{"eq": 405.5}}, captured.Variables["filter"])
}

func TestNetworkFailureYieldsEnvelope(t *testing.T) {
	srv := graphServer(t, func(w http.ResponseWriter) {}, nil)
	endpoint := srv.URL
	srv.Close()

	out, err := newHandler(t, endpoint).GetParameterValuesBySensor(context.Background(), ParameterValuesInput{SensorID: "S1"})
	require.NoError(t, err)

	env, ok := out.(ErrorEnvelope)
	require.True(t, ok, "expected envelope, got %T", out)
	assert.Equal(t, 500, env.StatusCode)

	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.Body), &body))
	require.Len(t, body.Errors, 1)
	assert.NotEmpty(t, body.Errors[0].Message)
}

func TestUnparsableReplyYieldsEnvelope(t *testing.T) {
	srv := graphServer(t, func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) }, nil)
	defer srv.Close()

	out, err := newHandler(t, srv.URL).GetSpectrogramReadingsBySensor(context.Background(), SpectrogramReadingsInput{SensorID: "S1"})
	require.NoError(t, err)
	env, ok := out.(ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, 500, env.StatusCode)
	assert.Contains(t, env.Body, "decode graphql response")
}

func TestRejectedRequestWithGraphQLErrorsYieldsEmptyList(t *testing.T) {
	srv := graphServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"errorType":"UnauthorizedException","message":"Permission denied"}]}`)
	}, nil)
	defer srv.Close()

	out, err := newHandler(t, srv.URL).GetParameterValuesBySensor(context.Background(), ParameterValuesInput{SensorID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, []json.RawMessage{}, out)
}
