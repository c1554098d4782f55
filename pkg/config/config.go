package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "renohaus"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Uploads      UploadsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RENOHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"RENOHAUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RENOHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENOHAUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"RENOHAUS_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"RENOHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENOHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENOHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENOHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENOHAUS_REDIS_URL"`
	Address      string        `envconfig:"RENOHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"RENOHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENOHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENOHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENOHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENOHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENOHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENOHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. The
// idempotency middleware degrades to pass-through without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type StorageConfig struct {
	Root string `envconfig:"RENOHAUS_STORAGE_ROOT" required:"true"`
}

type UploadsConfig struct {
	MaxUploadMB  int `envconfig:"RENOHAUS_MAX_UPLOAD_MB" default:"20"`
	MaxBatchSize int `envconfig:"RENOHAUS_MAX_UPLOAD_BATCH" default:"10"`
}

// MaxUploadBytes returns the per-file upload ceiling in bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) * 1024 * 1024
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RENOHAUS_AUTO_MIGRATE" default:"false"`
}
