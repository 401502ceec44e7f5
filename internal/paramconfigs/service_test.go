package paramconfigs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	"github.com/aquamesh/aquaview-backend/pkg/db/dbtest"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

var (
	owner  = authz.Principal{Subject: "U1", Username: "alice"}
	member = authz.Principal{Subject: "U2", Username: "bob"}
	admin  = authz.Principal{Subject: "U3", Username: "root", Groups: []string{"GLOBAL_ADMIN"}}
)

func strPtr(v string) *string      { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestService(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	conn := dbtest.Open(t)
	ctx := context.Background()
	orgID := uuid.New()
	require.NoError(t, conn.Create(&models.Organization{ID: orgID, Name: "Delta"}).Error)
	members := memberships.NewRepository(conn)
	_, _, err := members.Join(ctx, "U1", orgID, enums.MemberRoleOwner, nil)
	require.NoError(t, err)
	_, _, err = members.Join(ctx, "U2", orgID, enums.MemberRoleUser, nil)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), authz.NewEngine(authz.RuleOptions{TenantIsolation: true}, members))
	require.NoError(t, err)
	return svc, orgID
}

func globalInput(name, display string) Input {
	return Input{
		ParameterName:         strPtr(name),
		DisplayName:           strPtr(display),
		Unit:                  strPtr("mg/L"),
		CalculationParameters: json.RawMessage(`{"slope":1.2}`),
		RequiredLEDs:          &[]float64{405, 520},
		MinValidValue:         floatPtr(0),
		MaxValidValue:         floatPtr(14),
	}
}

func TestListOverlaysOrganizationConfigs(t *testing.T) {
	svc, orgID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, globalInput("ph", "pH"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, globalInput("turbidity", "Turbidity"))
	require.NoError(t, err)

	override := globalInput("ph", "pH (calibrated)")
	override.OrganizationID = types.NullableUUID{Set: true, ID: &orgID}
	created, err := svc.Create(ctx, owner, override)
	require.NoError(t, err)
	assert.Equal(t, []float64{405, 520}, created.RequiredLEDs)

	globals, err := svc.List(ctx, member, nil)
	require.NoError(t, err)
	require.Len(t, globals, 2)
	assert.Equal(t, "pH", globals[0].DisplayName)

	effective, err := svc.List(ctx, member, &orgID)
	require.NoError(t, err)
	require.Len(t, effective, 2)
	assert.Equal(t, "ph", effective[0].ParameterName)
	assert.Equal(t, "pH (calibrated)", effective[0].DisplayName)
	require.NotNil(t, effective[0].OrganizationID)
	assert.Equal(t, orgID, *effective[0].OrganizationID)
	assert.Equal(t, "turbidity", effective[1].ParameterName)
	assert.Nil(t, effective[1].OrganizationID)
}

func TestCreateValidatesAndAuthorizes(t *testing.T) {
	svc, orgID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, globalInput("ph", "pH"))
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err), "only admins write global configs")

	scoped := globalInput("ph", "pH")
	scoped.OrganizationID = types.NullableUUID{Set: true, ID: &orgID}
	_, err = svc.Create(ctx, member, scoped)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	inverted := globalInput("ph", "pH")
	inverted.MinValidValue = floatPtr(10)
	inverted.MaxValidValue = floatPtr(2)
	_, err = svc.Create(ctx, admin, inverted)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	badJSON := globalInput("ph", "pH")
	badJSON.CalculationParameters = json.RawMessage(`{"slope":`)
	_, err = svc.Create(ctx, admin, badJSON)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, admin, Input{ParameterName: strPtr(" ")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, admin, globalInput("ph", "pH"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, globalInput("ph", "Again"))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestUpdateChecksMergedRangeAndScope(t *testing.T) {
	svc, orgID := newTestService(t)
	ctx := context.Background()

	scoped := globalInput("dissolved_oxygen", "DO")
	scoped.OrganizationID = types.NullableUUID{Set: true, ID: &orgID}
	cfg, err := svc.Create(ctx, owner, scoped)
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, cfg.ID, Input{MinValidValue: floatPtr(20)})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	updated, err := svc.Update(ctx, owner, cfg.ID, Input{Unit: strPtr("%"), MaxValidValue: floatPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, "%", updated.Unit)
	assert.Equal(t, 100.0, *updated.MaxValidValue)

	promote := Input{OrganizationID: types.NullableUUID{Set: true}}
	_, err = svc.Update(ctx, owner, cfg.ID, promote)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err), "moving to global needs admin")

	promoted, err := svc.Update(ctx, admin, cfg.ID, promote)
	require.NoError(t, err)
	assert.Nil(t, promoted.OrganizationID)

	_, err = svc.Update(ctx, admin, uuid.New(), Input{})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
