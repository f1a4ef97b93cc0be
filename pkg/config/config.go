package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field carries its fully-qualified
	// DISTRIBUIDORA_* variable name in its envconfig tag.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Evolution    EvolutionConfig
	Bot          BotConfig
	Admin        AdminConfig
	Receipts     ReceiptsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("DISTRIBUIDORA_DB_DSN is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISTRIBUIDORA_APP_ENV" default:"dev"`
	Port         string `envconfig:"DISTRIBUIDORA_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"DISTRIBUIDORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISTRIBUIDORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DISTRIBUIDORA_DB_DSN"`
	Driver string `envconfig:"DISTRIBUIDORA_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"DISTRIBUIDORA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DISTRIBUIDORA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DISTRIBUIDORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DISTRIBUIDORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DISTRIBUIDORA_REDIS_URL"`
	Address      string        `envconfig:"DISTRIBUIDORA_REDIS_ADDR"`
	Password     string        `envconfig:"DISTRIBUIDORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISTRIBUIDORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISTRIBUIDORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISTRIBUIDORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISTRIBUIDORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISTRIBUIDORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISTRIBUIDORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// EvolutionConfig points the outbound messenger at the Evolution API gateway.
type EvolutionConfig struct {
	BaseURL      string        `envconfig:"DISTRIBUIDORA_EVOLUTION_API_URL" default:"http://localhost:8080"`
	APIKey       string        `envconfig:"DISTRIBUIDORA_EVOLUTION_API_KEY"`
	InstanceName string        `envconfig:"DISTRIBUIDORA_EVOLUTION_INSTANCE_NAME" default:"distribuidora_bot"`
	Timeout      time.Duration `envconfig:"DISTRIBUIDORA_EVOLUTION_TIMEOUT" default:"30s"`
}

type BotConfig struct {
	CompanyName     string        `envconfig:"DISTRIBUIDORA_COMPANY_NAME" default:"Distribuidora de Bebidas"`
	CompanyPhone    string        `envconfig:"DISTRIBUIDORA_COMPANY_PHONE" default:"(11) 99999-9999"`
	CompanyAddress  string        `envconfig:"DISTRIBUIDORA_COMPANY_ADDRESS"`
	SessionTTL      time.Duration `envconfig:"DISTRIBUIDORA_BOT_SESSION_TTL" default:"24h"`
	SweepInterval   time.Duration `envconfig:"DISTRIBUIDORA_BOT_SWEEP_INTERVAL" default:"1h"`
	MessageDedupTTL time.Duration `envconfig:"DISTRIBUIDORA_BOT_MESSAGE_DEDUP_TTL" default:"24h"`
}

type AdminConfig struct {
	JWTSecret         string `envconfig:"DISTRIBUIDORA_ADMIN_JWT_SECRET"`
	JWTIssuer         string `envconfig:"DISTRIBUIDORA_ADMIN_JWT_ISSUER" default:"distribuidora"`
	ExpirationMinutes int    `envconfig:"DISTRIBUIDORA_ADMIN_JWT_EXPIRATION_MINUTES" default:"720"`
}

type ReceiptsConfig struct {
	OutputDir string `envconfig:"DISTRIBUIDORA_RECEIPTS_DIR" default:"receipts"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DISTRIBUIDORA_AUTO_MIGRATE" default:"false"`
}
