package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquamesh/aquaview-backend/api/controllers"
	"github.com/aquamesh/aquaview-backend/api/middleware"
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
	"github.com/aquamesh/aquaview-backend/pkg/logger"
	"github.com/aquamesh/aquaview-backend/pkg/metrics"
	pkgredis "github.com/aquamesh/aquaview-backend/pkg/redis"
)

// Deps carries everything the router mounts. Nil services answer with
// INTERNAL_ERROR so partial wiring still serves health checks.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Verifier    middleware.TokenVerifier
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Redis       *pkgredis.Client
	Ready       map[string]controllers.Pinger

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

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Ready, logg))
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Typed nils must not reach the middleware as non-nil interfaces.
	var rateStore middleware.RateLimitStore
	var idemStore pkgredis.IdempotencyStore
	if d.Redis != nil {
		rateStore = d.Redis
		idemStore = d.Redis
	}
	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.Redis.RateLimitWindow, cfg.Redis.RateLimitRequests)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(d.Verifier, logg),
			middleware.RateLimit(apiPolicy, rateStore, logg),
			middleware.Idempotency(idemStore, logg),
		)

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.UserMe(d.Users, logg))
			r.Patch("/", controllers.UserUpdateProfile(d.Users, logg))
			r.Put("/setup-stage", controllers.UserAdvanceSetupStage(d.Users, logg))
			r.Get("/settings", controllers.SettingsMe(d.Settings, logg))
			r.Put("/settings", controllers.SettingsUpdate(d.Settings, logg))
			r.Get("/organizations", controllers.UserOrganizations(d.Memberships, logg))
		})

		// The setup wizard lists organizations and joins one before the
		// profile is complete.
		r.Get("/organizations", controllers.OrganizationList(d.Organizations, logg))
		r.Post("/organizations/{orgID}/join", controllers.MembershipJoin(d.Memberships, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSetupComplete(d.Users, logg))

			r.Get("/organizations/{orgID}", controllers.OrganizationGet(d.Organizations, logg))
			r.Patch("/organizations/{orgID}", controllers.OrganizationUpdate(d.Organizations, logg))
			r.Delete("/organizations/{orgID}/membership", controllers.MembershipLeave(d.Memberships, logg))
			r.Get("/organizations/{orgID}/members", controllers.MembershipListMembers(d.Memberships, logg))
			r.Post("/organizations/{orgID}/members", controllers.MembershipAddMember(d.Memberships, logg))
			r.Put("/organizations/{orgID}/members/{userID}", controllers.MembershipUpdateRole(d.Memberships, logg))
			r.Delete("/organizations/{orgID}/members/{userID}", controllers.MembershipRemoveMember(d.Memberships, logg))
			r.Get("/organizations/{orgID}/sensors", controllers.OrganizationSensors(d.Organizations, logg))

			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", controllers.SensorList(d.Sensors, logg))
				r.Route("/{sensorID}", func(r chi.Router) {
					r.Get("/", controllers.SensorGet(d.Sensors, logg))
					r.Get("/parameter-values", controllers.SensorParameterValues(d.Telemetry, logg))
					r.Get("/spectrogram-readings", controllers.SensorSpectrogramReadings(d.Telemetry, logg))
					r.Get("/alerts", controllers.AlertList(d.Alerts, logg))
					r.Post("/alerts/{alertID}/acknowledge", controllers.AlertAcknowledge(d.Alerts, logg))
				})
			})

			r.Route("/parameter-configs", func(r chi.Router) {
				r.Get("/", controllers.ParameterConfigList(d.ParamConfigs, logg))
				r.Post("/", controllers.ParameterConfigCreate(d.ParamConfigs, logg))
				r.Put("/{configID}", controllers.ParameterConfigUpdate(d.ParamConfigs, logg))
			})
		})

		// Admin pages skip the setup gate. A granted admin provisions
		// organizations before any exist to select in the wizard.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireGroup(adminGroup(cfg), logg))

			r.Get("/users", controllers.AdminListUsers(d.Users, logg))
			r.Post("/organizations", controllers.AdminOrganizationCreate(d.Organizations, logg))
			r.Post("/sensors", controllers.AdminSensorRegister(d.Sensors, logg))
			r.Route("/sensors/{sensorID}", func(r chi.Router) {
				r.Patch("/", controllers.AdminSensorUpdate(d.Sensors, logg))
				r.Put("/organizations/{orgID}", controllers.AdminSensorLink(d.Sensors, logg))
				r.Delete("/organizations/{orgID}", controllers.AdminSensorUnlink(d.Sensors, logg))
				r.Post("/alerts", controllers.AdminAlertCreate(d.Alerts, logg))
			})
			r.Get("/admin-grants", controllers.AdminGrantList(d.AdminGrants, logg))
			r.Post("/admin-grants", controllers.AdminGrantCreate(d.AdminGrants, logg))
		})
	})

	return r
}

func adminGroup(cfg *config.Config) string {
	if cfg.Admin.Group != "" {
		return cfg.Admin.Group
	}
	return authz.DefaultAdminGroup
}
