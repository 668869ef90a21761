// Package config loads lead-enrich settings from config.yaml and the
// environment.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-enrich/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Google     ServiceConfig `yaml:"google" mapstructure:"google"`
	OpenRouter ServiceConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Whitepages ServiceConfig `yaml:"whitepages" mapstructure:"whitepages"`
	Cache      CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Batch      BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Retry      RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
	Metrics    MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Pricing    cost.Rates    `yaml:"pricing" mapstructure:"pricing"`
	Log        LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServiceConfig holds one upstream API's settings. An empty Key disables
// the service.
type ServiceConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Model     string  `yaml:"model,omitempty" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/sec, 0 = unlimited
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // file or sqlite
	Dir    string `yaml:"dir" mapstructure:"dir"`
}

// BatchConfig configures record processing.
type BatchConfig struct {
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	PlaceRadiusM   int     `yaml:"place_radius_m" mapstructure:"place_radius_m"`
	MatchThreshold float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
}

// RetryConfig configures upstream retries.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	Jitter           float64 `yaml:"jitter" mapstructure:"jitter"`
}

// CircuitConfig configures the per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the unprefixed variables older deployments
// export.
var legacyEnv = map[string]string{
	"google.key":     "GOOGLE_PLACES_API_KEY",
	"openrouter.key": "OPENROUTER_API_KEY",
	"whitepages.key": "WHITEPAGES_API_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "LEAD_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "perplexity/sonar-pro")
	v.SetDefault("whitepages.base_url", "https://proapi.whitepages.com/2.2")
	v.SetDefault("cache.driver", "file")
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("batch.concurrency", 10)
	v.SetDefault("batch.place_radius_m", 50)
	v.SetDefault("batch.match_threshold", 80)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 2000)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("pricing.places.per_call", 0.032)
	v.SetDefault("pricing.perplexity.per_query", 0.006)
	v.SetDefault("pricing.perplexity.input", 3.00)
	v.SetDefault("pricing.perplexity.output", 15.00)
	v.SetDefault("pricing.whitepages.per_call", 0.10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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

// Validate checks value ranges. Missing API keys are not errors; see
// Warnings.
func (c *Config) Validate() error {
	var errs []string

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 100 {
		errs = append(errs, fmt.Sprintf("batch.concurrency must be between 1 and 100, got %d", c.Batch.Concurrency))
	}
	if c.Batch.PlaceRadiusM < 1 || c.Batch.PlaceRadiusM > 50000 {
		errs = append(errs, fmt.Sprintf("batch.place_radius_m must be between 1 and 50000, got %d", c.Batch.PlaceRadiusM))
	}
	if c.Batch.MatchThreshold <= 0 || c.Batch.MatchThreshold > 100 {
		errs = append(errs, fmt.Sprintf("batch.match_threshold must be above 0 and at most 100, got %g", c.Batch.MatchThreshold))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be >= 1")
	}
	if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		errs = append(errs, "retry.max_backoff_ms must be >= retry.initial_backoff_ms")
	}
	switch c.Cache.Driver {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("cache.driver must be file or sqlite, got %q", c.Cache.Driver))
	}
	for name, s := range map[string]ServiceConfig{"google": c.Google, "openrouter": c.OpenRouter, "whitepages": c.Whitepages} {
		if s.RateLimit < 0 {
			errs = append(errs, name+".rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// Warnings lists disabled services so the CLI can tell the operator.
func (c *Config) Warnings() []string {
	var w []string
	if c.Google.Key == "" {
		w = append(w, "GOOGLE_PLACES_API_KEY not set: place lookup disabled")
	}
	if c.OpenRouter.Key == "" {
		w = append(w, "OPENROUTER_API_KEY not set: name and owner resolution disabled")
	}
	if c.Whitepages.Key == "" {
		w = append(w, "WHITEPAGES_API_KEY not set: personal info lookup disabled")
	}
	return w
}

// Redacted returns a copy with API keys masked, for display.
func (c Config) Redacted() Config {
	c.Google.Key = redact(c.Google.Key)
	c.OpenRouter.Key = redact(c.OpenRouter.Key)
	c.Whitepages.Key = redact(c.Whitepages.Key)
	return c
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
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
