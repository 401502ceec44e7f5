package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	"github.com/aquamesh/aquaview-backend/internal/provisioning"
	"github.com/aquamesh/aquaview-backend/internal/settings"
	"github.com/aquamesh/aquaview-backend/internal/users"
	"github.com/aquamesh/aquaview-backend/pkg/cognito"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "post-confirmation"})

	cfg, err := config.LoadProvisioning()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "post-confirmation",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	conn := dbClient.DB()

	engine := authz.NewEngine(authz.RuleOptions{AdminGroup: cfg.Admin.Group, TenantIsolation: true}, memberships.NewRepository(conn))
	userSvc, err := users.NewService(users.NewRepository(conn), engine, users.NewSetupStageMachine(config.SetupStageStrict))
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}
	settingsSvc, err := settings.NewService(settings.NewRepository(conn), engine, logg)
	if err != nil {
		logg.Error(ctx, "failed to create settings service", err)
		os.Exit(1)
	}

	groups, err := cognito.NewFromRegion(ctx, cfg.Region)
	if err != nil {
		logg.Error(ctx, "failed to create cognito client", err)
		os.Exit(1)
	}

	provisioner, err := provisioning.New(provisioning.Params{
		Users:      userSvc,
		Settings:   settingsSvc,
		Groups:     groups,
		Grants:     provisioning.NewGrantRepository(conn),
		Logger:     logg,
		AdminEmail: cfg.Admin.Emails(),
		AdminGroup: cfg.Admin.Group,
	})
	if err != nil {
		logg.Error(ctx, "failed to create provisioner", err)
		os.Exit(1)
	}

	lambda.Start(provisioner.HandlePostConfirmation)
}
