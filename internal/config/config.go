package config

import (
	"fmt"
	"time"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Forecaster ForecasterConfig
	NewsCorpus ServiceConfig
	Kafka      KafkaConfig
	Pipeline   PipelineConfig
	Logging    LoggingConfig
	ServiceKey string
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ForecasterConfig holds configuration for the LLM forecaster capability
type ForecasterConfig struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// ServiceConfig holds configuration for external collaborator services
type ServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// PipelineConfig holds batch pipeline configuration
type PipelineConfig struct {
	// Pace is the delay between forecaster invocations, respecting the
	// provider's rate limit.
	Pace time.Duration
	// Schedule is a cron expression; empty means run once and exit.
	Schedule string
	// HistoryDays is the price lookback window for feature assembly.
	HistoryDays int
	// NewsLimit caps headlines pulled into each prompt.
	NewsLimit int
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if key := v.GetString("FORECASTER_API_KEY"); key != "" {
		cfg.Forecaster.APIKey = key
	}

	return &cfg, nil
}

// LoadSymbols loads the immutable symbol universe from its own file so the
// ticker/sector mapping lives in exactly one place.
func LoadSymbols(path string) (*model.SymbolUniverse, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read symbols file: %w", err)
	}

	var raw struct {
		Symbols []model.Symbol `mapstructure:"symbols"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal symbols file: %w", err)
	}

	if len(raw.Symbols) == 0 {
		return nil, fmt.Errorf("symbols file %s defines no symbols", path)
	}

	return model.NewSymbolUniverse(raw.Symbols), nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "30m")

	// Forecaster defaults
	v.SetDefault("forecaster.model", "gpt-4")
	v.SetDefault("forecaster.timeout", "60s")
	v.SetDefault("forecaster.requestsPerMinute", 20)

	// News corpus defaults
	v.SetDefault("newsCorpus.url", "http://news-corpus:8070")
	v.SetDefault("newsCorpus.timeout", "10s")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "forecast-events")
	v.SetDefault("kafka.clientId", "forecast-service")

	// Pipeline defaults
	v.SetDefault("pipeline.pace", "3s")
	v.SetDefault("pipeline.schedule", "")
	v.SetDefault("pipeline.historyDays", 200)
	v.SetDefault("pipeline.newsLimit", 15)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
