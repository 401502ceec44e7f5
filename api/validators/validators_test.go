package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "sensorID", id.String())
	got, err := PathUUID(req, "sensorID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "sensorID", "nope")
	_, err = PathUUID(req, "sensorID")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPathStringRejectsBlank(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", "  ")
	_, err := PathString(req, "userID")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2026-01-02T03:04:05%2B02:00", nil)
	got, err := ParseQueryTime(req, "start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 1, 4, 5, 0, time.UTC), got)

	absent, err := ParseQueryTime(req, "end")
	require.NoError(t, err)
	assert.True(t, absent.IsZero())

	bad := httptest.NewRequest(http.MethodGet, "/?start=yesterday", nil)
	_, err = ParseQueryTime(bad, "start")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseOptionalQueryValues(t *testing.T) {
	orgID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?acknowledged=true&ledWavelength=450.5&organizationId="+orgID.String(), nil)

	ack, err := ParseQueryBool(req, "acknowledged")
	require.NoError(t, err)
	require.NotNil(t, ack)
	assert.True(t, *ack)

	wl, err := ParseQueryFloat(req, "ledWavelength")
	require.NoError(t, err)
	require.NotNil(t, wl)
	assert.InDelta(t, 450.5, *wl, 1e-9)

	org, err := ParseQueryUUID(req, "organizationId")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, orgID, *org)

	missing, err := ParseQueryBool(req, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bad := httptest.NewRequest(http.MethodGet, "/?acknowledged=maybe&ledWavelength=blue&organizationId=x", nil)
	_, err = ParseQueryBool(bad, "acknowledged")
	assert.Error(t, err)
	_, err = ParseQueryFloat(bad, "ledWavelength")
	assert.Error(t, err)
	_, err = ParseQueryUUID(bad, "organizationId")
	assert.Error(t, err)
}

func TestQueryValuesSplitsCommas(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?parameter=ph,%20turbidity&parameter=nitrate&parameter=", nil)
	assert.Equal(t, []string{"ph", "turbidity", "nitrate"}, QueryValues(req, "parameter"))
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=50", nil)
	got, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	got, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=500", nil), "limit", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type grantBody struct {
	Email string  `json:"email" validate:"required,email"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=5"`
}

func TestDecodeJSONBody(t *testing.T) {
	var ok grantBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com"}`))
	require.NoError(t, DecodeJSONBody(req, &ok))
	assert.Equal(t, "a@example.com", ok.Email)

	var unknown grantBody
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","role":"x"}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &unknown), pkgerrors.CodeValidation))

	var invalid grantBody
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","note":"too long"}`))
	err := DecodeJSONBody(req, &invalid)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok2 := typed.Details().(map[string]string)
	require.True(t, ok2)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "note")
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingDocuments(t *testing.T) {
	var dest grantBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &dest)
	require.Error(t, err)
	assert.Equal(t, "request body required", pkgerrors.As(err).Message())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com"}{"email":"b@example.com"}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &dest), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyCapsSize(t *testing.T) {
	huge := `{"email":"a@example.com","note":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	var dest grantBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge)), &dest)
	require.Error(t, err)
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}
