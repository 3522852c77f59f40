package config

import (
	"fmt"
	"time"

	"github.com/shareloop/service-booking/pkg/config"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// ServiceConfig holds all configuration for the booking service. An empty CORSOrigins allows
// any origin.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	StorageDriver string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	SweepInterval time.Duration
	CORSOrigins   []string
}

// Load reads configuration from environment variables prefixed with BOOKING_.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("CORS_ORIGINS", "")

	cfg := &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		StorageDriver: v.GetString("STORAGE_DRIVER"),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:     config.LoadJWTConfig(v),
		KafkaConfig:   config.LoadKafkaConfig(v),
		SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
		CORSOrigins:   config.SplitList(v.GetString("CORS_ORIGINS")),
	}

	switch cfg.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", cfg.SweepInterval)
	}
	return cfg, nil
}
