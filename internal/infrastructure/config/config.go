package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Environment    string               `mapstructure:"environment"`
	LogLevel       string               `mapstructure:"log_level"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
	Chains         []ChainConfig        `mapstructure:"chains"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ReconciliationConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
	PassTimeout time.Duration `mapstructure:"pass_timeout"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	CollectorURL string  `mapstructure:"collector_url"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Insecure     bool    `mapstructure:"insecure"`
}

// ChainConfig describes one supported network's external providers.
type ChainConfig struct {
	ChainID     int64         `mapstructure:"chain_id"`
	DataAPIURL  string        `mapstructure:"data_api_url"`
	DataAPIKey  string        `mapstructure:"data_api_key"`
	OrderAPIURL string        `mapstructure:"order_api_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from config.yaml and the environment. Environment
// variables use the BAZAAR_ prefix with underscores, e.g. BAZAAR_DATABASE_URL.
func Load() (*Config, error) {
	// .env is optional, used for local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("BAZAAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("reconciliation.schedule", "@every 1m")
	v.SetDefault("reconciliation.lock_ttl", 5*time.Minute)
	v.SetDefault("reconciliation.pass_timeout", 5*time.Minute)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_url", "localhost:4317")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.insecure", false)
}

func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	seen := make(map[int64]bool, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		if chain.ChainID <= 0 {
			return fmt.Errorf("chains: chain_id must be positive, got %d", chain.ChainID)
		}
		if seen[chain.ChainID] {
			return fmt.Errorf("chains: duplicate chain_id %d", chain.ChainID)
		}
		seen[chain.ChainID] = true
		if chain.DataAPIURL == "" {
			return fmt.Errorf("chains: data_api_url is required for chain %d", chain.ChainID)
		}
	}
	return nil
}
