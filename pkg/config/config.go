package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "AQUAVIEW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "AQUAVIEW_APP_ENV"
	EnvPort             = "AQUAVIEW_APP_PORT"
	EnvLogLevel         = "AQUAVIEW_LOG_LEVEL"
	EnvLogFormat        = "AQUAVIEW_LOG_FORMAT"
	EnvTenantIsolation  = "AQUAVIEW_TENANT_ISOLATION"
	EnvSetupStagePolicy = "AQUAVIEW_SETUP_STAGE_POLICY"

	EnvDBDSN  = "AQUAVIEW_DB_DSN"
	EnvDBHost = "AQUAVIEW_DB_HOST"
	EnvDBUser = "AQUAVIEW_DB_USER"
	EnvDBName = "AQUAVIEW_DB_NAME"

	EnvRedisAddr          = "AQUAVIEW_REDIS_ADDR"
	EnvMembershipCacheTTL = "AQUAVIEW_MEMBERSHIP_CACHE_TTL"

	EnvAWSRegion        = "AWS_REGION"
	EnvCognitoUserPool  = "AQUAVIEW_COGNITO_USER_POOL_ID"
	EnvCognitoClientID  = "AQUAVIEW_COGNITO_CLIENT_ID"
	EnvGraphQLEndpoint  = "AMPLIFY_DATA_GRAPHQL_ENDPOINT"
	EnvParameterTable   = "AQUAVIEW_DYNAMO_PARAMETER_VALUES_TABLE"
	EnvSpectrogramTable = "AQUAVIEW_DYNAMO_SPECTROGRAM_READINGS_TABLE"
	EnvAdminEmails      = "AQUAVIEW_ADMIN_BOOTSTRAP_EMAILS"
	EnvAdminGroup       = "AQUAVIEW_ADMIN_GROUP"

	EnvFeatureUseSQLite   = "AQUAVIEW_USE_SQLITE"
	EnvFeatureAutoMigrate = "AQUAVIEW_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Config is the full runtime configuration of the API binary.
type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cognito      CognitoConfig
	AppSync      AppSyncConfig
	Dynamo       DynamoConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := ParseSetupStagePolicy(cfg.App.SetupStagePolicy); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env              string `envconfig:"AQUAVIEW_APP_ENV" required:"true"`
	Port             string `envconfig:"AQUAVIEW_APP_PORT" default:"8080"`
	LogLevel         string `envconfig:"AQUAVIEW_LOG_LEVEL" default:"info"`
	LogWarnStack     bool   `envconfig:"AQUAVIEW_LOG_WARN_STACK" default:"false"`
	LogFormat        string `envconfig:"AQUAVIEW_LOG_FORMAT" default:"json"`
	TenantIsolation  bool   `envconfig:"AQUAVIEW_TENANT_ISOLATION" default:"true"`
	SetupStagePolicy string `envconfig:"AQUAVIEW_SETUP_STAGE_POLICY" default:"strict"`
	CORSOrigins      string `envconfig:"AQUAVIEW_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// ConsoleLogs reports whether AQUAVIEW_LOG_FORMAT asks for the console writer.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	return splitList(a.CORSOrigins)
}

// SetupStagePolicy names how setup stage transitions are validated.
type SetupStagePolicy string

const (
	SetupStageStrict     SetupStagePolicy = "strict"
	SetupStagePermissive SetupStagePolicy = "permissive"
)

func ParseSetupStagePolicy(value string) (SetupStagePolicy, error) {
	switch SetupStagePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", SetupStageStrict:
		return SetupStageStrict, nil
	case SetupStagePermissive:
		return SetupStagePermissive, nil
	}
	return "", fmt.Errorf("invalid %s %q (expected strict|permissive)", EnvSetupStagePolicy, value)
}

type DBConfig struct {
	DSN    string `envconfig:"AQUAVIEW_DB_DSN"`
	Driver string `envconfig:"AQUAVIEW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AQUAVIEW_DB_HOST"`
	LegacyPort     int    `envconfig:"AQUAVIEW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AQUAVIEW_DB_USER"`
	LegacyPassword string `envconfig:"AQUAVIEW_DB_PASSWORD"`
	LegacyName     string `envconfig:"AQUAVIEW_DB_NAME"`
	LegacySSLMode  string `envconfig:"AQUAVIEW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AQUAVIEW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AQUAVIEW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AQUAVIEW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AQUAVIEW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	Address            string        `envconfig:"AQUAVIEW_REDIS_ADDR" default:"localhost:6379"`
	Password           string        `envconfig:"AQUAVIEW_REDIS_PASSWORD"`
	DB                 int           `envconfig:"AQUAVIEW_REDIS_DB" default:"0"`
	PoolSize           int           `envconfig:"AQUAVIEW_REDIS_POOL_SIZE" default:"10"`
	DialTimeout        time.Duration `envconfig:"AQUAVIEW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout        time.Duration `envconfig:"AQUAVIEW_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout       time.Duration `envconfig:"AQUAVIEW_REDIS_WRITE_TIMEOUT" default:"3s"`
	MembershipCacheTTL time.Duration `envconfig:"AQUAVIEW_MEMBERSHIP_CACHE_TTL" default:"300s"`
	RateLimitRequests  int           `envconfig:"AQUAVIEW_RATE_LIMIT_REQUESTS" default:"600"`
	RateLimitWindow    time.Duration `envconfig:"AQUAVIEW_RATE_LIMIT_WINDOW" default:"1m"`
}

// CognitoConfig points token verification at the user pool.
type CognitoConfig struct {
	Region     string `envconfig:"AWS_REGION" default:"us-east-1"`
	UserPoolID string `envconfig:"AQUAVIEW_COGNITO_USER_POOL_ID" required:"true"`
	ClientID   string `envconfig:"AQUAVIEW_COGNITO_CLIENT_ID"`
	JWKSURL    string `envconfig:"AQUAVIEW_COGNITO_JWKS_URL"`
}

// Issuer returns the token issuer URL for the configured pool.
func (c CognitoConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// KeySetURL returns the JWKS location, honoring an explicit override.
func (c CognitoConfig) KeySetURL() string {
	if strings.TrimSpace(c.JWKSURL) != "" {
		return c.JWKSURL
	}
	return c.Issuer() + "/.well-known/jwks.json"
}

// AppSyncConfig is injected by the platform into the query functions.
type AppSyncConfig struct {
	Endpoint string        `envconfig:"AMPLIFY_DATA_GRAPHQL_ENDPOINT"`
	Region   string        `envconfig:"AWS_REGION" default:"us-east-1"`
	Timeout  time.Duration `envconfig:"AQUAVIEW_APPSYNC_TIMEOUT" default:"10s"`
}

type DynamoConfig struct {
	ParameterValuesTable     string `envconfig:"AQUAVIEW_DYNAMO_PARAMETER_VALUES_TABLE" default:"ParameterValue"`
	SpectrogramReadingsTable string `envconfig:"AQUAVIEW_DYNAMO_SPECTROGRAM_READINGS_TABLE" default:"SpectrogramReading"`
	Endpoint                 string `envconfig:"AQUAVIEW_DYNAMO_ENDPOINT"`
	MaxItems                 int    `envconfig:"AQUAVIEW_DYNAMO_MAX_ITEMS" default:"5000"`
}

// AdminConfig seeds the first privileged accounts.
type AdminConfig struct {
	BootstrapEmails string `envconfig:"AQUAVIEW_ADMIN_BOOTSTRAP_EMAILS"`
	Group           string `envconfig:"AQUAVIEW_ADMIN_GROUP" default:"GLOBAL_ADMIN"`
}

// Emails returns the normalized bootstrap allow-list.
func (a AdminConfig) Emails() []string {
	raw := splitList(a.BootstrapEmails)
	out := make([]string, 0, len(raw))
	for _, email := range raw {
		out = append(out, strings.ToLower(email))
	}
	return out
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AQUAVIEW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AQUAVIEW_AUTO_MIGRATE" default:"false"`
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = "sqlite"
		db.DSN = "file:aquaview.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
