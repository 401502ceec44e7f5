package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/aquamesh/aquaview-backend/internal/sensorquery"
	"github.com/aquamesh/aquaview-backend/pkg/appsync"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

const serviceName = "get-parameter-values-by-sensor"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	cfg, err := config.LoadQueryFunction()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if err := cfg.RequireEndpoint(); err != nil {
		logg.Error(ctx, "graphql endpoint missing", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	graph, err := appsync.New(ctx, cfg.AppSync)
	if err != nil {
		logg.Error(ctx, "failed to create graphql client", err)
		os.Exit(1)
	}
	handler, err := sensorquery.NewHandler(graph, logg)
	if err != nil {
		logg.Error(ctx, "failed to create handler", err)
		os.Exit(1)
	}

	lambda.Start(handler.GetParameterValuesBySensor)
}
