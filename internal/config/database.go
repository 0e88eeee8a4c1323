package config

import (
	"time"
)

type DatabaseConfig struct {
	URI                   string        `yaml:"uri"`
	Database              string        `yaml:"database"`
	MaxPoolSize           int           `yaml:"max_pool_size"`
	MinPoolSize           int           `yaml:"min_pool_size"`
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	SocketTimeout         time.Duration `yaml:"socket_timeout"`
	RunMigrations         bool          `yaml:"run_migrations"`
	StockHistoryRetention time.Duration `yaml:"stock_history_retention"`
	NotificationRetention time.Duration `yaml:"notification_retention"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:                   getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:              getEnv("MONGODB_DATABASE", "fooddash"),
		MaxPoolSize:           getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:           getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout:        getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:         getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		RunMigrations:         getEnvAsBool("MONGODB_RUN_MIGRATIONS", true),
		StockHistoryRetention: getEnvAsDuration("STOCK_HISTORY_RETENTION", 180*24*time.Hour),
		NotificationRetention: getEnvAsDuration("NOTIFICATION_RETENTION", 90*24*time.Hour),
	}
}
