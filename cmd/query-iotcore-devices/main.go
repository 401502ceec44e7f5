package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iot"

	"github.com/aquamesh/aquaview-backend/internal/devices"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

const serviceName = "query-iotcore-devices"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	cfg, err := config.LoadQueryFunction()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AppSync.Region))
	if err != nil {
		logg.Error(ctx, "failed to load aws config", err)
		os.Exit(1)
	}
	searcher, err := devices.NewSearcher(iot.NewFromConfig(awsCfg), logg)
	if err != nil {
		logg.Error(ctx, "failed to create device searcher", err)
		os.Exit(1)
	}

	lambda.Start(searcher.Search)
}
