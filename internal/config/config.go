package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type IdentityConfig struct {
	Mode    string
	BaseURL string
	Timeout time.Duration
}

type StorageConfig struct {
	Dir            string
	Compress       bool
	MaxUploadBytes int64
}

type SettlementConfig struct {
	AutoSettle bool
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Identity    IdentityConfig
	Storage     StorageConfig
	Settlement  SettlementConfig
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	IdentityModeHTTP   = "http"
	IdentityModeStatic = "static"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 7090)
	v.SetDefault("HTTP_CORS_ORIGINS", "*")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("IDENTITY_MODE", IdentityModeHTTP)
	v.SetDefault("IDENTITY_TIMEOUT", "10s")
	v.SetDefault("STORAGE_DIR", "./data/objects")
	v.SetDefault("STORAGE_COMPRESS", true)
	v.SetDefault("STORAGE_MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("SETTLEMENT_AUTO_SETTLE", false)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:        v.GetString("HTTP_HOST"),
			Port:        v.GetInt("HTTP_PORT"),
			CORSOrigins: parseList(v.GetString("HTTP_CORS_ORIGINS")),
		},
		DB: DBConfig{
			Driver:          strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Identity: IdentityConfig{
			Mode:    strings.ToLower(strings.TrimSpace(v.GetString("IDENTITY_MODE"))),
			BaseURL: strings.TrimRight(v.GetString("IDENTITY_BASE_URL"), "/"),
			Timeout: v.GetDuration("IDENTITY_TIMEOUT"),
		},
		Storage: StorageConfig{
			Dir:            v.GetString("STORAGE_DIR"),
			Compress:       v.GetBool("STORAGE_COMPRESS"),
			MaxUploadBytes: v.GetInt64("STORAGE_MAX_UPLOAD_BYTES"),
		},
		Settlement: SettlementConfig{
			AutoSettle: v.GetBool("SETTLEMENT_AUTO_SETTLE"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Identity.Mode {
	case IdentityModeHTTP:
		if cfg.Identity.BaseURL == "" {
			return fmt.Errorf("IDENTITY_BASE_URL is required when IDENTITY_MODE=http")
		}
	case IdentityModeStatic:
	default:
		return fmt.Errorf("IDENTITY_MODE must be %q or %q", IdentityModeHTTP, IdentityModeStatic)
	}
	if cfg.Identity.Timeout <= 0 {
		return fmt.Errorf("IDENTITY_TIMEOUT must be positive")
	}
	if cfg.Storage.Dir == "" {
		return fmt.Errorf("STORAGE_DIR is required")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
