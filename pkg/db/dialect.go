package db

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/smallbiznis/pamdes/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DSN renders the connection string for the configured DATABASE_TYPE.
// All drivers are pinned to UTC; bill dates are compared as calendar days.
func DSN(cfg config.Config) (string, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DBType)) {
	case "postgres", "postgresql":
		q := url.Values{}
		q.Set("sslmode", cfg.DBSSLMode)
		q.Set("TimeZone", "UTC")
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
			Host:     net.JoinHostPort(cfg.DBHost, cfg.DBPort),
			Path:     "/" + cfg.DBName,
			RawQuery: q.Encode(),
		}
		return u.String(), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			cfg.DBUser, cfg.DBPassword, net.JoinHostPort(cfg.DBHost, cfg.DBPort), cfg.DBName), nil
	case "sqlite":
		if cfg.DBName == "" {
			return "pamdes.db", nil
		}
		return cfg.DBName, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

// Dialect picks the gorm dialector for cfg.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.DBType)) {
	case "mysql":
		return mysql.New(mysql.Config{DSN: dsn, DefaultStringSize: 191}), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return postgres.New(postgres.Config{DSN: dsn}), nil
	}
}
