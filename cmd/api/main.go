package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/aquamesh/aquaview-backend/api"
	"github.com/aquamesh/aquaview-backend/api/controllers"
	"github.com/aquamesh/aquaview-backend/api/routes"
	"github.com/aquamesh/aquaview-backend/internal/app"
	"github.com/aquamesh/aquaview-backend/internal/telemetry"
	pkgAuth "github.com/aquamesh/aquaview-backend/pkg/auth"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/dynamo"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
	"github.com/aquamesh/aquaview-backend/pkg/metrics"
	"github.com/aquamesh/aquaview-backend/pkg/migrate"
	"github.com/aquamesh/aquaview-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	verifier, err := pkgAuth.NewCognitoVerifier(ctx, cfg.Cognito)
	if err != nil {
		logg.Error(ctx, "failed to load cognito signing keys", err)
		os.Exit(1)
	}

	dynamoClient, err := dynamo.New(ctx, cfg.Dynamo, cfg.Cognito.Region, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap dynamodb", err)
		os.Exit(1)
	}
	store, err := telemetry.NewStore(dynamoClient, telemetry.StoreConfig{
		ParameterValuesTable:     cfg.Dynamo.ParameterValuesTable,
		SpectrogramReadingsTable: cfg.Dynamo.SpectrogramReadingsTable,
		MaxItems:                 cfg.Dynamo.MaxItems,
	})
	if err != nil {
		logg.Error(ctx, "failed to create telemetry store", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := app.NewServices(app.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		KV:         redisClient,
		Telemetry:  store,
		Registerer: reg,
	})
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Verifier:    verifier,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Redis:       redisClient,
		Ready: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Users:         svc.Users,
		Settings:      svc.Settings,
		Organizations: svc.Organizations,
		Memberships:   svc.Memberships,
		Sensors:       svc.Sensors,
		Telemetry:     svc.Telemetry,
		Alerts:        svc.Alerts,
		ParamConfigs:  svc.ParamConfigs,
		AdminGrants:   svc.AdminGrants,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := api.NewServer(":"+port, handler, logg)

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":              cfg.App.Env,
		"addr":             server.Addr(),
		"tenant_isolation": cfg.App.TenantIsolation,
	})
	logg.Info(runCtx, "starting api server")

	if err := server.Run(runCtx); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}
