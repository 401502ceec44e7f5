package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type fakeStore struct {
	values    []ParameterValue
	readings  []SpectrogramReading
	truncated bool
	names     []string
	err       error
}

func (f *fakeStore) ParameterValues(_ context.Context, _ string, _ Window, names []string) (Page[ParameterValue], error) {
	f.names = names
	return Page[ParameterValue]{Items: f.values, Truncated: f.truncated}, f.err
}

func (f *fakeStore) SpectrogramReadings(_ context.Context, _ string, _ Window, _ *float64) (Page[SpectrogramReading], error) {
	return Page[SpectrogramReading]{Items: f.readings, Truncated: f.truncated}, f.err
}

type fakeScope struct {
	err    error
	entity authz.Entity
}

func (f *fakeScope) Scope(_ context.Context, _ authz.Principal, entity authz.Entity, _ authz.Action, _ uuid.UUID) ([]uuid.UUID, error) {
	f.entity = entity
	return nil, f.err
}

type fakeTenancy bool

func (f fakeTenancy) SeesAllTenants(authz.Principal) bool { return bool(f) }

type fakeMembers []uuid.UUID

func (f fakeMembers) ListOrganizationIDs(context.Context, string) ([]uuid.UUID, error) {
	return f, nil
}

var (
	caller = authz.Principal{Subject: "U1", Username: "alice"}
	orgA   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	orgB   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	start  = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func TestParameterValuesDropForeignOrganizations(t *testing.T) {
	store := &fakeStore{values: []ParameterValue{
		{ID: "1", OrganizationID: orgA.String()},
		{ID: "2", OrganizationID: orgB.String()},
		{ID: "3", OrganizationID: orgA.String()},
	}}
	scope := &fakeScope{}
	svc, err := NewService(store, scope, fakeTenancy(false), fakeMembers{orgA})
	require.NoError(t, err)

	page, err := svc.ParameterValues(context.Background(), caller, uuid.New(), ParameterQuery{
		Start: start, End: start.Add(time.Hour), Parameters: []string{" pH ", "pH", "", "turbidity"},
	})
	require.NoError(t, err)
	assert.False(t, page.Truncated)
	rows := page.Items
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, "3", rows[1].ID)
	assert.Equal(t, []string{"pH", "turbidity"}, store.names)
	assert.Equal(t, authz.EntityParameterValue, scope.entity)
}

func TestAllTenantViewKeepsEverything(t *testing.T) {
	store := &fakeStore{readings: []SpectrogramReading{
		{ID: "1", OrganizationID: orgA.String()},
		{ID: "2", OrganizationID: orgB.String()},
	}}
	scope := &fakeScope{}
	svc, err := NewService(store, scope, fakeTenancy(true), fakeMembers{})
	require.NoError(t, err)

	page, err := svc.SpectrogramReadings(context.Background(), caller, uuid.New(), SpectrogramQuery{Start: start, End: start})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, authz.EntitySpectrogramReading, scope.entity)
}

func TestTruncationSurvivesOrganizationFilter(t *testing.T) {
	store := &fakeStore{truncated: true, values: []ParameterValue{
		{ID: "1", OrganizationID: orgB.String()},
	}}
	svc, err := NewService(store, &fakeScope{}, fakeTenancy(false), fakeMembers{orgA})
	require.NoError(t, err)

	page, err := svc.ParameterValues(context.Background(), caller, uuid.New(), ParameterQuery{Start: start, End: start})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.True(t, page.Truncated)
}

func TestTelemetryValidationAndErrors(t *testing.T) {
	store := &fakeStore{}
	scope := &fakeScope{}
	svc, err := NewService(store, scope, fakeTenancy(true), fakeMembers{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.ParameterValues(ctx, caller, uuid.New(), ParameterQuery{Start: start})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.ParameterValues(ctx, caller, uuid.New(), ParameterQuery{Start: start, End: start.Add(-time.Minute)})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	bad := -1.0
	_, err = svc.SpectrogramReadings(ctx, caller, uuid.New(), SpectrogramQuery{Start: start, End: start, LEDWavelength: &bad})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	scope.err = pkgerrors.New(pkgerrors.CodeForbidden, "nope")
	_, err = svc.ParameterValues(ctx, caller, uuid.New(), ParameterQuery{Start: start, End: start})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	scope.err = nil
	store.err = errors.New("dynamo down")
	_, err = svc.ParameterValues(ctx, caller, uuid.New(), ParameterQuery{Start: start, End: start})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}
