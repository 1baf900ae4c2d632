// Package config loads application configuration from config.yaml and
// CARDSCAN_-prefixed environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the contact database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeminiConfig holds Gemini API settings for vision extraction.
type GeminiConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	VisionModel string `yaml:"vision_model" mapstructure:"vision_model"`
}

// AnthropicConfig holds Anthropic API settings for text enrichment.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PipelineConfig configures enrichment behavior. The retry and timeout
// bounds exist because every Wave-1 operation sits inside a fan-in barrier:
// one unbounded call would stall the whole scan.
type PipelineConfig struct {
	OpTimeoutSecs int     `yaml:"op_timeout_secs" mapstructure:"op_timeout_secs"`
	MaxAttempts   int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	UserIndustry  string  `yaml:"user_industry" mapstructure:"user_industry"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// OpTimeout returns the per-operation timeout as a duration.
func (p PipelineConfig) OpTimeout() time.Duration {
	if p.OpTimeoutSecs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(p.OpTimeoutSecs) * time.Second
}

// BatchConfig configures directory batch scanning.
type BatchConfig struct {
	MaxConcurrentScans int `yaml:"max_concurrent_scans" mapstructure:"max_concurrent_scans"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "cardscan.db")
	v.SetDefault("gemini.vision_model", "gemini-1.5-flash")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("pipeline.op_timeout_secs", 20)
	v.SetDefault("pipeline.max_attempts", 2)
	v.SetDefault("pipeline.rate_per_sec", 8)
	v.SetDefault("batch.max_concurrent_scans", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Default returns the configuration the loader would produce with no file
// and no environment overrides.
func Default() *Config {
	return &Config{
		Store:     StoreConfig{Driver: "sqlite", DatabaseURL: "cardscan.db"},
		Gemini:    GeminiConfig{VisionModel: "gemini-1.5-flash"},
		Anthropic: AnthropicConfig{Model: "claude-haiku-4-5-20251001"},
		Pipeline:  PipelineConfig{OpTimeoutSecs: 20, MaxAttempts: 2, RatePerSec: 8},
		Batch:     BatchConfig{MaxConcurrentScans: 3},
		Server:    ServerConfig{Port: 8080},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// WriteExample writes a starter config file populated with the defaults.
// It refuses to overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "config: write %s", path)
}

// Validate checks the keys required to run the scan pipeline.
func (c *Config) Validate() error {
	if c.Gemini.Key == "" {
		return eris.New("config: gemini.key is required (CARDSCAN_GEMINI_KEY)")
	}
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required (CARDSCAN_ANTHROPIC_KEY)")
	}
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
