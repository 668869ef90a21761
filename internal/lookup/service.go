// Package lookup wraps the three upstream services (Google Places, Perplexity
// via OpenRouter, Whitepages) behind a uniform cache, retry and circuit
// breaker policy. Every lookup degrades to "no data"; none returns an error.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/metrics"
	"github.com/sells-group/lead-enrich/internal/resilience"
)

// Service names used for cache namespaces, logs and metrics.
const (
	ServicePlaces     = "places"
	ServicePerplexity = "perplexity"
	ServiceWhitepages = "whitepages"
)

// Options configures the policy shared by a lookup's upstream calls.
type Options struct {
	Cache   cache.Cache
	Retry   resilience.RetryConfig
	Circuit resilience.CircuitBreakerConfig
	// RateLimit caps requests per second to the service; 0 disables.
	RateLimit float64
	Metrics   *metrics.Recorder
}

type service struct {
	name    string
	cache   cache.Cache
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
	metrics *metrics.Recorder
	group   singleflight.Group
}

func newService(name string, opts Options) *service {
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}

	cbCfg := opts.Circuit
	if cbCfg.ShouldTrip == nil {
		cbCfg.ShouldTrip = tripsBreaker
	}
	cbCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("lookup: circuit state change",
			zap.String("service", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	s := &service{
		name:    name,
		cache:   c,
		retry:   opts.Retry,
		breaker: resilience.NewCircuitBreaker(cbCfg),
		metrics: opts.Metrics,
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// tripsBreaker counts only failures that say something about the service:
// transient errors, rejected credentials and exhausted quota.
func tripsBreaker(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sc resilience.StatusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return true
		}
	}
	return resilience.IsTransient(err)
}

type result[T any] struct {
	val   T
	found bool
}

// fetchFunc performs one upstream attempt. found=false with a nil error is a
// definitive negative answer: not retried, not cached.
type fetchFunc[T any] func(ctx context.Context) (val T, found bool, err error)

// call resolves key from the cache or, on a miss, from fetch under the
// service's policy. Only positive answers are cached. Concurrent calls for
// the same key share one upstream call.
func call[T any](ctx context.Context, s *service, key cache.Key, op string, fetch fetchFunc[T]) (T, bool) {
	var zero T
	log := zap.L().With(zap.String("service", s.name), zap.String("operation", op))

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn("lookup: cache read failed", zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			s.metrics.CacheHit(s.name)
			return v, true
		}
		log.Warn("lookup: cached value undecodable, refetching", zap.String("key", key.String()))
	}
	s.metrics.CacheMiss(s.name)

	out, err, _ := s.group.Do(key.String(), func() (any, error) {
		return run(ctx, s, key, op, fetch)
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			s.metrics.Request(s.name, metrics.OutcomeOpen, 0)
			log.Debug("lookup: circuit open, skipping")
		} else if ctx.Err() == nil {
			log.Warn("lookup: upstream call failed",
				zap.String("class", resilience.ClassifyError(err)),
				zap.Error(err),
			)
		}
		return zero, false
	}

	r := out.(result[T])
	return r.val, r.found
}

// run performs the upstream call through the breaker, retry loop and rate
// limiter, then caches a positive answer.
func run[T any](ctx context.Context, s *service, key cache.Key, op string, fetch fetchFunc[T]) (result[T], error) {
	retryCfg := s.retry
	retryCfg.OnRetry = resilience.RetryLogger(s.name, op)

	r, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (result[T], error) {
		return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (result[T], error) {
			return attempt(ctx, s, fetch)
		})
	})
	if err != nil {
		return result[T]{}, err
	}

	if r.found {
		raw, err := json.Marshal(r.val)
		if err == nil {
			err = s.cache.Set(ctx, key, raw)
		}
		if err != nil {
			zap.L().Warn("lookup: cache write failed",
				zap.String("service", s.name),
				zap.String("key", key.String()),
				zap.Error(err),
			)
		}
	}
	return r, nil
}

// attempt makes one rate-limited upstream call and records its outcome.
func attempt[T any](ctx context.Context, s *service, fetch fetchFunc[T]) (result[T], error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return result[T]{}, err
		}
	}

	start := time.Now()
	val, found, err := fetch(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil && found:
		s.metrics.Request(s.name, metrics.OutcomeOK, elapsed)
	case err == nil:
		s.metrics.Request(s.name, metrics.OutcomeNotFound, elapsed)
	case resilience.IsTransient(err):
		s.metrics.Request(s.name, metrics.OutcomeTransient, elapsed)
	default:
		s.metrics.Request(s.name, metrics.OutcomeTerminal, elapsed)
	}
	if err != nil {
		return result[T]{}, err
	}
	return result[T]{val: val, found: found}, nil
}
