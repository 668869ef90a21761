package enrich

import (
	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/match"
	"github.com/sells-group/lead-enrich/internal/metrics"
	"github.com/sells-group/lead-enrich/internal/resilience"
)

// DefaultConcurrency is the number of records processed at once.
const DefaultConcurrency = 10

// Config carries everything a batch needs. An empty key disables the
// corresponding lookup; it is never an error.
type Config struct {
	GooglePlacesKey string
	OpenRouterKey   string
	WhitepagesKey   string

	CacheDir    string
	CacheDriver string // cache.DriverFile (default) or cache.DriverSQLite

	// Base URL and model overrides; empty keeps each client's default.
	GoogleBaseURL     string
	OpenRouterBaseURL string
	OpenRouterModel   string
	WhitepagesBaseURL string

	// Requests per second per service; 0 is unlimited.
	PlacesRateLimit     float64
	PerplexityRateLimit float64
	WhitepagesRateLimit float64

	PlaceRadius    int     // meters; 0 uses lookup.DefaultRadius
	MatchThreshold float64 // 0 uses match.DefaultThreshold

	Retry   resilience.RetryConfig
	Circuit resilience.CircuitBreakerConfig
	Metrics *metrics.Recorder
}

func (c Config) withDefaults() Config {
	if c.CacheDriver == "" {
		c.CacheDriver = cache.DriverFile
	}
	if c.CacheDir == "" {
		c.CacheDir = ".cache"
	}
	if c.MatchThreshold <= 0 {
		c.MatchThreshold = match.DefaultThreshold
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = resilience.DefaultRetryConfig()
	}
	if c.Circuit.FailureThreshold == 0 {
		c.Circuit = resilience.DefaultCircuitBreakerConfig()
	}
	return c
}
