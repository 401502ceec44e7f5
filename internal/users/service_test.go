package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/db/dbtest"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/pagination"
)

var (
	alice = authz.Principal{Subject: "U1", Username: "alice"}
	bob   = authz.Principal{Subject: "U2", Username: "bob"}
	admin = authz.Principal{Subject: "U3", Username: "root", Groups: []string{"GLOBAL_ADMIN"}}
)

func newTestService(t *testing.T, policy config.SetupStagePolicy) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	engine := authz.NewEngine(authz.RuleOptions{TenantIsolation: true}, nil)
	svc, err := NewService(repo, engine, NewSetupStageMachine(policy))
	require.NoError(t, err)
	return svc, repo
}

func createAlice(t *testing.T, svc Service) *UserDTO {
	t.Helper()
	user, err := svc.Create(context.Background(), CreateUserDTO{ID: "U1", Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	svc, _ := newTestService(t, config.SetupStageStrict)
	user := createAlice(t, svc)

	assert.Equal(t, "U1::alice", user.Owner)
	assert.Equal(t, enums.SetupStageInitial, user.UserSetupStage)
	assert.False(t, user.SetupComplete)
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, user.CreatedAt, *user.LastLogin)

	_, err := svc.Create(context.Background(), CreateUserDTO{ID: "U1", Username: "alice", Email: "alice@example.com"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = svc.Create(context.Background(), CreateUserDTO{ID: "U5", Username: "eve"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestGetAndUpdateProfileAreOwnerScoped(t *testing.T) {
	svc, _ := newTestService(t, config.SetupStageStrict)
	createAlice(t, svc)
	ctx := context.Background()

	got, err := svc.Get(ctx, alice, "U1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = svc.Get(ctx, bob, "U1")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.Get(ctx, admin, "U1")
	require.NoError(t, err)

	first := "  Alice "
	bio := "Lake ecologist"
	updated, err := svc.UpdateProfile(ctx, alice, "U1", UpdateProfileInput{FirstName: &first, Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated.FirstName)
	assert.Equal(t, "Alice", *updated.FirstName)
	assert.Equal(t, "Lake ecologist", *updated.Bio)
	assert.Nil(t, updated.LastName)

	_, err = svc.UpdateProfile(ctx, bob, "U1", UpdateProfileInput{FirstName: &first})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.Get(ctx, admin, "missing")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestMeTouchesLastLogin(t *testing.T) {
	svc, repo := newTestService(t, config.SetupStageStrict)
	createAlice(t, svc)
	impl := svc.(*service)
	later := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	impl.now = func() time.Time { return later }

	me, err := svc.Me(context.Background(), alice)
	require.NoError(t, err)
	require.NotNil(t, me.LastLogin)
	assert.True(t, me.LastLogin.Equal(later))

	stored, err := repo.FindByID(context.Background(), "U1")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(later))
}

func TestAdvanceSetupStageStrict(t *testing.T) {
	svc, _ := newTestService(t, config.SetupStageStrict)
	createAlice(t, svc)
	ctx := context.Background()

	_, err := svc.AdvanceSetupStage(ctx, alice, "U1", "COMPLETE")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	for _, stage := range enums.SetupStages[1:] {
		user, err := svc.AdvanceSetupStage(ctx, alice, "U1", stage.String())
		require.NoError(t, err)
		assert.Equal(t, stage, user.UserSetupStage)
	}

	user, err := svc.AdvanceSetupStage(ctx, alice, "U1", "complete")
	require.NoError(t, err)
	assert.True(t, user.SetupComplete)

	_, err = svc.AdvanceSetupStage(ctx, alice, "U1", "BASIC_INFO")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = svc.AdvanceSetupStage(ctx, alice, "U1", "nope")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestAdvanceSetupStagePermissive(t *testing.T) {
	svc, _ := newTestService(t, config.SetupStagePermissive)
	createAlice(t, svc)

	user, err := svc.AdvanceSetupStage(context.Background(), alice, "U1", "COMPLETE")
	require.NoError(t, err)
	assert.Equal(t, enums.SetupStageComplete, user.UserSetupStage)

	_, err = svc.AdvanceSetupStage(context.Background(), bob, "U1", "COMPLETE")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestListUsersPaginates(t *testing.T) {
	svc, _ := newTestService(t, config.SetupStageStrict)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, CreateUserDTO{ID: id, Username: id, Email: id + "@example.com", Now: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	_, err := svc.List(ctx, alice, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	page, err := svc.List(ctx, admin, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "C", page.Items[0].ID)
	assert.Equal(t, "B", page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.List(ctx, admin, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "A", next.Items[0].ID)
	assert.Empty(t, next.NextCursor)

	_, err = svc.List(ctx, admin, pagination.Params{Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
