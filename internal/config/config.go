package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CatalogSourceHTTP   = "http"
	CatalogSourceSQLite = "sqlite"
)

type Config struct {
	HTTPPort           string
	PackageServiceURL  string
	CatalogSource      string
	CatalogDBPath      string
	MigrationsPath     string
	RedisAddr          string
	RedisPassword      string
	SnapshotTTL        time.Duration
	KafkaBrokers       []string
	HandoffTopic       string
	PackageUpdateTopic string
	SessionTTL         time.Duration
	CatalogTimeout     time.Duration
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
}

// Load reads configuration from the environment. Unset keys fall back to
// local development defaults.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("PACKAGE_SERVICE_URL", "http://localhost:5000")
	v.SetDefault("CATALOG_SOURCE", CatalogSourceHTTP)
	v.SetDefault("CATALOG_DB_PATH", "catalog.db")
	v.SetDefault("MIGRATIONS_PATH", "internal/repository/migrations")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SNAPSHOT_TTL", 10*time.Minute)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("HANDOFF_TOPIC", "basket-handoff")
	v.SetDefault("PACKAGE_UPDATES_TOPIC", "package-updates")
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("CATALOG_TIMEOUT", 5*time.Second)
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("MAX_REQUEST_BODY_SIZE", 1<<20) // 1MB
	v.SetDefault("LOG_LEVEL", "info")

	return &Config{
		HTTPPort:           v.GetString("HTTP_PORT"),
		PackageServiceURL:  strings.TrimRight(v.GetString("PACKAGE_SERVICE_URL"), "/"),
		CatalogSource:      strings.ToLower(v.GetString("CATALOG_SOURCE")),
		CatalogDBPath:      v.GetString("CATALOG_DB_PATH"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		SnapshotTTL:        v.GetDuration("SNAPSHOT_TTL"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		HandoffTopic:       v.GetString("HANDOFF_TOPIC"),
		PackageUpdateTopic: v.GetString("PACKAGE_UPDATES_TOPIC"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		CatalogTimeout:     v.GetDuration("CATALOG_TIMEOUT"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
		MaxRequestBodySize: v.GetInt64("MAX_REQUEST_BODY_SIZE"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
