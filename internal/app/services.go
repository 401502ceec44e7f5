// Package app assembles the domain services shared by the API binary and
// its integration tests.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aquamesh/aquaview-backend/internal/alerts"
	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	"github.com/aquamesh/aquaview-backend/internal/organizations"
	"github.com/aquamesh/aquaview-backend/internal/paramconfigs"
	"github.com/aquamesh/aquaview-backend/internal/provisioning"
	"github.com/aquamesh/aquaview-backend/internal/sensors"
	"github.com/aquamesh/aquaview-backend/internal/settings"
	"github.com/aquamesh/aquaview-backend/internal/telemetry"
	"github.com/aquamesh/aquaview-backend/internal/users"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
	"github.com/aquamesh/aquaview-backend/pkg/metrics"
	pkgredis "github.com/aquamesh/aquaview-backend/pkg/redis"
)

// Params wires the service graph. KV and Telemetry are optional: without
// KV membership checks hit the database directly, without Telemetry the
// telemetry routes report INTERNAL_ERROR.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	KV         pkgredis.KV
	Telemetry  *telemetry.Store
	Registerer prometheus.Registerer
}

type Services struct {
	Engine        *authz.Engine
	Users         users.Service
	Settings      settings.Service
	Organizations organizations.Service
	Memberships   memberships.Service
	Sensors       sensors.Service
	Telemetry     telemetry.Service
	Alerts        alerts.Service
	ParamConfigs  paramconfigs.Service
	AdminGrants   provisioning.GrantService
}

func NewServices(p Params) (*Services, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	conn := p.DB.DB()
	cfg := p.Config

	policy, err := config.ParseSetupStagePolicy(cfg.App.SetupStagePolicy)
	if err != nil {
		return nil, err
	}

	memberRepo := memberships.NewRepository(conn)
	checker := memberships.NewCachedChecker(memberRepo, p.KV, cfg.Redis.MembershipCacheTTL, logg)
	engine := authz.NewEngine(authz.RuleOptions{
		AdminGroup:      cfg.Admin.Group,
		TenantIsolation: cfg.App.TenantIsolation,
	}, checker, authz.WithMetrics(metrics.NewAuthzMetrics(p.Registerer)))

	s := &Services{Engine: engine}
	userRepo := users.NewRepository(conn)
	orgRepo := organizations.NewRepository(conn)
	sensorRepo := sensors.NewRepository(conn)

	if s.Users, err = users.NewService(userRepo, engine, users.NewSetupStageMachine(policy)); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	if s.Settings, err = settings.NewService(settings.NewRepository(conn), engine, logg); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if s.Organizations, err = organizations.NewService(organizations.ServiceParams{
		Repo:    orgRepo,
		Sensors: sensorRepo,
		Tx:      p.DB,
		Authz:   engine,
		Cache:   checker,
	}); err != nil {
		return nil, fmt.Errorf("organizations: %w", err)
	}
	if s.Memberships, err = memberships.NewService(memberships.ServiceParams{
		Repo:          memberRepo,
		Organizations: orgRepo,
		Users:         userRepo,
		Authz:         engine,
		Cache:         checker,
	}); err != nil {
		return nil, fmt.Errorf("memberships: %w", err)
	}
	if s.Sensors, err = sensors.NewService(sensorRepo, orgRepo, engine); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	if s.Alerts, err = alerts.NewService(alerts.NewRepository(conn), s.Sensors); err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	if s.ParamConfigs, err = paramconfigs.NewService(paramconfigs.NewRepository(conn), engine); err != nil {
		return nil, fmt.Errorf("parameter configs: %w", err)
	}
	if s.AdminGrants, err = provisioning.NewGrantService(provisioning.NewGrantRepository(conn), engine); err != nil {
		return nil, fmt.Errorf("admin grants: %w", err)
	}
	if p.Telemetry != nil {
		if s.Telemetry, err = telemetry.NewService(p.Telemetry, s.Sensors, engine, memberRepo); err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}
	return s, nil
}
