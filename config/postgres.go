package config

import (
	"context"
	"fmt"
	"time"
)

// PostgresConfig defines the configuration for the optional snapshot database.
// In prod the host and credentials come from SSM Parameter Store.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	HostParameter     string `mapstructure:"host_parameter"`
	UserParameter     string `mapstructure:"user_parameter"`
	PasswordParameter string `mapstructure:"password_parameter"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds a lib/pq style connection string. For env "prod" the host, user
// and password are looked up in SSM using the *_parameter names.
func (cfg *PostgresConfig) DSN(ctx context.Context, env string, store ParameterGetter) (string, error) {
	host, user, password := cfg.Host, cfg.User, cfg.Password

	if env == "prod" {
		if store == nil {
			return "", fmt.Errorf("prod postgres DSN needs a parameter store")
		}
		var err error
		if host, err = store.GetParameter(ctx, cfg.HostParameter, true); err != nil {
			return "", err
		}
		if user, err = store.GetParameter(ctx, cfg.UserParameter, true); err != nil {
			return "", err
		}
		if password, err = store.GetParameter(ctx, cfg.PasswordParameter, true); err != nil {
			return "", err
		}
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, cfg.DBName, cfg.SSLMode,
	)
	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}
	return dsn, nil
}

// AdminDSN is DSN pointed at the maintenance "postgres" database, used to
// create DBName when it does not exist yet.
func (cfg *PostgresConfig) AdminDSN(ctx context.Context, env string, store ParameterGetter) (string, error) {
	admin := *cfg
	admin.DBName = "postgres"
	return admin.DSN(ctx, env, store)
}
