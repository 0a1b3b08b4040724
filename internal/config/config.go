package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScreeningConfig stores parameters for the order screening rules.
type ScreeningConfig struct {
	AmountThreshold        float64 `yaml:"amount_threshold"`
	FrequencyThreshold     int     `yaml:"frequency_threshold"`
	FrequencyWindowSeconds int     `yaml:"frequency_window_seconds"`
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Kafka struct {
		BootstrapServers string `yaml:"bootstrap_servers"`
		Topic            string `yaml:"topic"`
	} `yaml:"kafka"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	ClickHouse struct {
		Addr string `yaml:"addr"`
	} `yaml:"clickhouse"`
	Jaeger struct {
		Port string `yaml:"port"`
	} `yaml:"jaeger"`
	JWT struct {
		Secret string `yaml:"jwt_secret"`
	} `yaml:"jwt"`
	Payment struct {
		BaseURL     string `yaml:"base_url"`
		Secret      string `yaml:"secret"`
		CallbackURL string `yaml:"callback_url"`
	} `yaml:"payment"`
	Settlement struct {
		// AutoSettle completes the transaction straight from a confirmed
		// payment callback instead of waiting for an admin.
		AutoSettle bool `yaml:"auto_settle"`
	} `yaml:"settlement"`
	Screening ScreeningConfig `yaml:"screening"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

func Load(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Substitute environment variables into the raw YAML before parsing.
	expandedFile := os.ExpandEnv(string(file))

	if err := yaml.Unmarshal([]byte(expandedFile), config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}
