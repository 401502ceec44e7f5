package organizations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	"github.com/aquamesh/aquaview-backend/internal/sensors"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/db/dbtest"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

var (
	alice = authz.Principal{Subject: "U1", Username: "alice"}
	bob   = authz.Principal{Subject: "U2", Username: "bob"}
	admin = authz.Principal{Subject: "U3", Username: "root", Groups: []string{"GLOBAL_ADMIN"}}
)

type recordingCache struct {
	calls []string
}

func (r *recordingCache) Invalidate(_ context.Context, userID string, orgID uuid.UUID) {
	r.calls = append(r.calls, userID+"/"+orgID.String())
}

func newTestService(t *testing.T) (Service, *gorm.DB, *recordingCache) {
	t.Helper()
	conn := dbtest.Open(t)
	members := memberships.NewRepository(conn)
	engine := authz.NewEngine(authz.RuleOptions{TenantIsolation: true}, members)
	cache := &recordingCache{}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Sensors: sensors.NewRepository(conn),
		Tx:      db.Wrap(conn),
		Authz:   engine,
		Cache:   cache,
	})
	require.NoError(t, err)
	return svc, conn, cache
}

func strPtr(v string) *string { return &v }

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateMakesCreatorOwner(t *testing.T) {
	svc, conn, cache := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, Fields{Name: strPtr("Reef Lab")}, "")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.Create(ctx, admin, Fields{Name: strPtr("   ")}, "U1")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	org, err := svc.Create(ctx, admin, Fields{Name: strPtr(" Reef Lab "), Industry: strPtr("Research")}, "U1")
	require.NoError(t, err)
	assert.Equal(t, "Reef Lab", org.Name)

	var link models.UserOrganization
	require.NoError(t, conn.Where("user_id = ? AND organization_id = ?", "U1", org.ID).First(&link).Error)
	assert.Equal(t, enums.MemberRoleOwner, link.Role)
	require.NotNil(t, link.InvitedBy)
	assert.Equal(t, "U3", *link.InvitedBy)
	assert.Equal(t, []string{"U1/" + org.ID.String()}, cache.calls)

	// The new owner can now read and manage the organization.
	got, err := svc.Get(ctx, alice, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Research", *got.Industry)

	_, err = svc.Get(ctx, bob, org.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestListBasicIsOpenToSignedInUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.ListBasic(ctx, bob)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.Create(ctx, admin, Fields{Name: strPtr("Bay Watch")}, "U1")
	require.NoError(t, err)

	rows, err := svc.ListBasic(ctx, bob)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bay Watch", rows[0].Name)

	_, err = svc.ListBasic(ctx, authz.Principal{})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestUpdateRequiresManagerRole(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, admin, Fields{Name: strPtr("Harbor")}, "U1")
	require.NoError(t, err)
	_, _, err = memberships.NewRepository(conn).Join(ctx, "U2", org.ID, enums.MemberRoleUser, nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, org.ID, Fields{Website: strPtr("https://harbor.example")})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	size := -1
	_, err = svc.Update(ctx, alice, org.ID, Fields{Size: &size})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	size = 12
	updated, err := svc.Update(ctx, alice, org.ID, Fields{Website: strPtr("https://harbor.example"), Size: &size})
	require.NoError(t, err)
	assert.Equal(t, "Harbor", updated.Name)
	assert.Equal(t, 12, *updated.Size)

	_, err = svc.Update(ctx, admin, uuid.New(), Fields{Size: &size})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListSensorsScopedToMembers(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, admin, Fields{Name: strPtr("Estuary")}, "U1")
	require.NoError(t, err)

	repo := sensors.NewRepository(conn)
	sensor := &models.Sensor{ID: uuid.New(), SerialNumber: "SN-9", Name: "Probe", Enabled: true}
	require.NoError(t, repo.Create(ctx, sensor))
	linked, err := repo.Link(ctx, sensor.ID, org.ID)
	require.NoError(t, err)
	require.True(t, linked)

	rows, err := svc.ListSensors(ctx, alice, org.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SN-9", rows[0].SerialNumber)

	_, err = svc.ListSensors(ctx, bob, org.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}
