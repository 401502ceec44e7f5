package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/organizations"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/db/dbtest"
	pkgredis "github.com/aquamesh/aquaview-backend/pkg/redis"
)

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Env: config.AppEnvDev, TenantIsolation: true, SetupStagePolicy: "strict"},
		Admin: config.AdminConfig{Group: authz.DefaultAdminGroup},
	}
}

func TestNewServicesRequiresConfigAndDB(t *testing.T) {
	_, err := NewServices(Params{})
	require.Error(t, err)

	_, err = NewServices(Params{Config: testConfig()})
	require.Error(t, err)
}

func TestNewServicesRejectsUnknownSetupPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.App.SetupStagePolicy = "lenient"
	_, err := NewServices(Params{Config: cfg, DB: db.Wrap(dbtest.Open(t))})
	require.Error(t, err)
}

func TestNewServicesWiresGraph(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := pkgredis.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	svc, err := NewServices(Params{
		Config:     testConfig(),
		DB:         db.Wrap(dbtest.Open(t)),
		KV:         kv,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	assert.NotNil(t, svc.Users)
	assert.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.Organizations)
	assert.NotNil(t, svc.Memberships)
	assert.NotNil(t, svc.Sensors)
	assert.NotNil(t, svc.Alerts)
	assert.NotNil(t, svc.ParamConfigs)
	assert.NotNil(t, svc.AdminGrants)
	assert.Nil(t, svc.Telemetry, "telemetry stays unset without a store")

	admin := authz.Principal{Subject: "admin-sub", Username: "admin", Groups: []string{authz.DefaultAdminGroup}}
	assert.True(t, svc.Engine.IsAdmin(admin))

	org, err := svc.Organizations.Create(context.Background(), admin, organizations.Fields{Name: ptr("Reef Lab")}, "")
	require.NoError(t, err)
	assert.Equal(t, "Reef Lab", org.Name)
}

func ptr[T any](v T) *T { return &v }
