package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	Kafka     *KafkaConfig     `yaml:"kafka"`
	SMS       *SMSConfig       `yaml:"sms"`
	Push      *PushConfig      `yaml:"push"`
	Maps      *MapsConfig      `yaml:"maps"`
	Storage   *StorageConfig   `yaml:"storage"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Security  *SecurityConfig  `yaml:"security"`
	Business  *BusinessConfig  `yaml:"business"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	BaseURL     string `yaml:"base_url"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Timezone    string `yaml:"timezone"`
	Currency    string `yaml:"currency"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTIssuer          string        `yaml:"jwt_issuer"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

// Load reads an optional .env file and then builds the configuration from the
// process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Kafka:     loadKafkaConfig(),
		SMS:       loadSMSConfig(),
		Push:      loadPushConfig(),
		Maps:      loadMapsConfig(),
		Storage:   loadStorageConfig(),
		WebSocket: loadWebSocketConfig(),
		Security:  loadSecurityConfig(),
		Business:  loadBusinessConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "FoodDash"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "localhost"),
		BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		Currency:    getEnv("APP_CURRENCY", "USD"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTIssuer:          getEnv("JWT_ISSUER", "fooddash-auth"),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 300),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 50),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}

func IsTest() bool {
	return getEnv("APP_ENV", "development") == "test"
}
