package config

import "time"

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	OrderTopic   string        `yaml:"order_topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Enabled reports whether any broker is configured. Without brokers the
// service publishes order events to a no-op sink.
func (k *KafkaConfig) Enabled() bool {
	return k != nil && len(k.Brokers) > 0
}

func loadKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Brokers:      getEnvAsSlice("KAFKA_BROKERS", []string{}),
		OrderTopic:   getEnv("KAFKA_ORDER_TOPIC", "fooddash.order-events"),
		WriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
	}
}
