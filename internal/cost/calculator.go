// Package cost estimates upstream spend for an enrichment run.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Places     PerCallRate    `yaml:"places" mapstructure:"places"`
	Perplexity PerplexityRate `yaml:"perplexity" mapstructure:"perplexity"`
	Whitepages PerCallRate    `yaml:"whitepages" mapstructure:"whitepages"`
}

// PerCallRate is a flat price per request.
type PerCallRate struct {
	PerCall float64 `yaml:"per_call" mapstructure:"per_call"`
}

// PerplexityRate holds sonar pricing through OpenRouter: a per-request fee
// plus token charges (per million tokens).
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
	Input    float64 `yaml:"input" mapstructure:"input"`
	Output   float64 `yaml:"output" mapstructure:"output"`
}

// Usage counts billable upstream activity.
type Usage struct {
	PlacesCalls     int
	PerplexityCalls int
	InputTokens     int
	OutputTokens    int
	WhitepagesCalls int
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Places returns the cost of n Nearby Search calls.
func (c *Calculator) Places(n int) float64 {
	return float64(n) * c.rates.Places.PerCall
}

// Perplexity returns the cost of n queries with the given token totals.
func (c *Calculator) Perplexity(n, input, output int) float64 {
	r := c.rates.Perplexity
	return float64(n)*r.PerQuery +
		(float64(input)/1e6)*r.Input +
		(float64(output)/1e6)*r.Output
}

// Whitepages returns the cost of n person lookups.
func (c *Calculator) Whitepages(n int) float64 {
	return float64(n) * c.rates.Whitepages.PerCall
}

// Total sums the cost of all upstream usage.
func (c *Calculator) Total(u Usage) float64 {
	return c.Places(u.PlacesCalls) +
		c.Perplexity(u.PerplexityCalls, u.InputTokens, u.OutputTokens) +
		c.Whitepages(u.WhitepagesCalls)
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Places:     PerCallRate{PerCall: 0.032},
		Perplexity: PerplexityRate{PerQuery: 0.006, Input: 3.00, Output: 15.00},
		Whitepages: PerCallRate{PerCall: 0.10},
	}
}
