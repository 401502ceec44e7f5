package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// FunctionAppConfig is the trimmed app section used by the Lambda binaries.
type FunctionAppConfig struct {
	Env          string `envconfig:"AQUAVIEW_APP_ENV" default:"prod"`
	LogLevel     string `envconfig:"AQUAVIEW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AQUAVIEW_LOG_WARN_STACK" default:"false"`
}

// ProvisioningConfig configures the post-confirmation trigger.
type ProvisioningConfig struct {
	App          FunctionAppConfig
	DB           DBConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
	Region       string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// QueryFunctionConfig configures the telemetry and device query functions.
type QueryFunctionConfig struct {
	App     FunctionAppConfig
	AppSync AppSyncConfig
}

func LoadProvisioning() (*ProvisioningConfig, error) {
	var cfg ProvisioningConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing provisioning config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadQueryFunction() (*QueryFunctionConfig, error) {
	var cfg QueryFunctionConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing query function config: %w", err)
	}
	return &cfg, nil
}

// RequireEndpoint fails when the data graph endpoint was not injected.
func (c QueryFunctionConfig) RequireEndpoint() error {
	if c.AppSync.Endpoint == "" {
		return fmt.Errorf("%s is required", EnvGraphQLEndpoint)
	}
	return nil
}

// MigrateConfig is the subset the migrate binary needs.
type MigrateConfig struct {
	App          FunctionAppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
}

func LoadMigrate() (*MigrateConfig, error) {
	var cfg MigrateConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing migrate config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}
