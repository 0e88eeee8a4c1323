package config

import "time"

// BusinessConfig holds the pricing and side-effect knobs of the order platform.
type BusinessConfig struct {
	TaxRate              float64       `yaml:"tax_rate"`
	ServiceFeeRate       float64       `yaml:"service_fee_rate"`
	EnforceOpeningHours  bool          `yaml:"enforce_opening_hours"`
	LoyaltyPointsExpiry  time.Duration `yaml:"loyalty_points_expiry"`
	LoyaltySweepInterval time.Duration `yaml:"loyalty_sweep_interval"`
	OutboxPollInterval   time.Duration `yaml:"outbox_poll_interval"`
	OutboxMaxAttempts    int           `yaml:"outbox_max_attempts"`
	OutboxBatchSize      int           `yaml:"outbox_batch_size"`
	StockHistoryInline   int           `yaml:"stock_history_inline"`
	NotificationTTL      time.Duration `yaml:"notification_ttl"`
}

func loadBusinessConfig() *BusinessConfig {
	return &BusinessConfig{
		TaxRate:              getEnvAsFloat64("TAX_RATE", 0.08),
		ServiceFeeRate:       getEnvAsFloat64("SERVICE_FEE_RATE", 0.05),
		EnforceOpeningHours:  getEnvAsBool("ENFORCE_OPENING_HOURS", false),
		LoyaltyPointsExpiry:  getEnvAsDuration("LOYALTY_POINTS_EXPIRY", 365*24*time.Hour),
		LoyaltySweepInterval: getEnvAsDuration("LOYALTY_SWEEP_INTERVAL", time.Hour),
		OutboxPollInterval:   getEnvAsDuration("OUTBOX_POLL_INTERVAL", 10*time.Second),
		OutboxMaxAttempts:    getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 8),
		OutboxBatchSize:      getEnvAsInt("OUTBOX_BATCH_SIZE", 50),
		StockHistoryInline:   getEnvAsInt("STOCK_HISTORY_INLINE", 20),
		NotificationTTL:      getEnvAsDuration("NOTIFICATION_TTL", 30*24*time.Hour),
	}
}
