// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Train   TrainConfig   `mapstructure:"train"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBConfig controls access to the sqlite listings database.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// ScraperConfig governs the listing scrape run.
type ScraperConfig struct {
	BaseURL          string   `mapstructure:"base_url"`
	Makes            []string `mapstructure:"makes"`
	PagesPerMake     int      `mapstructure:"pages_per_make"`
	StartPage        int      `mapstructure:"start_page"`
	UserAgent        string   `mapstructure:"user_agent"`
	TimeoutSeconds   int      `mapstructure:"timeout_seconds"`
	DelaySeconds     int      `mapstructure:"delay_seconds"`
	MaxRetries       int      `mapstructure:"max_retries"`
	BackoffInitialMs int      `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int      `mapstructure:"backoff_max_ms"`
}

// TrainConfig controls model training and evaluation.
type TrainConfig struct {
	ArtifactPath string  `mapstructure:"artifact_path"`
	TestSize     float64 `mapstructure:"test_size"`
	Seed         int64   `mapstructure:"seed"`
}

// ServerConfig controls the prediction UI HTTP server.
type ServerConfig struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CARPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "cars.db")
	v.SetDefault("scraper.base_url", "https://autoplius.lt/skelbimai/naudoti-automobiliai")
	v.SetDefault("scraper.makes", []string{
		"bmw", "volkswagen", "audi", "mercedes_benz", "toyota",
		"volvo", "opel", "ford", "peugeot", "skoda",
	})
	v.SetDefault("scraper.pages_per_make", 1)
	v.SetDefault("scraper.start_page", 1)
	v.SetDefault("scraper.user_agent", "carprice-bot/0.1")
	v.SetDefault("scraper.timeout_seconds", 15)
	v.SetDefault("scraper.delay_seconds", 2)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.backoff_initial_ms", 250)
	v.SetDefault("scraper.backoff_max_ms", 5000)
	v.SetDefault("train.artifact_path", "models/price_model.json")
	v.SetDefault("train.test_size", 0.2)
	v.SetDefault("train.seed", 42)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must be set")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if len(c.Scraper.Makes) == 0 {
		return fmt.Errorf("scraper.makes must include at least one make")
	}
	if c.Scraper.PagesPerMake <= 0 {
		return fmt.Errorf("scraper.pages_per_make must be > 0")
	}
	if c.Scraper.StartPage <= 0 {
		return fmt.Errorf("scraper.start_page must be > 0")
	}
	if c.Scraper.UserAgent == "" {
		return fmt.Errorf("scraper.user_agent must be set")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0")
	}
	if c.Train.ArtifactPath == "" {
		return fmt.Errorf("train.artifact_path must be set")
	}
	if c.Train.TestSize <= 0 || c.Train.TestSize >= 1 {
		return fmt.Errorf("train.test_size must be in (0, 1)")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// RequestTimeout converts the scraper timeout config into a duration.
func (c ScraperConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay converts the scraper delay config into a duration.
func (c ScraperConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}
