// Package enrich resolves restaurant leads: display name, probable owner and
// the owner's personal contact details.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/lookup"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/pkg/google"
	"github.com/sells-group/lead-enrich/pkg/perplexity"
	"github.com/sells-group/lead-enrich/pkg/whitepages"
)

// Outcome error types.
const (
	ErrorTypePanic    = "panic"
	ErrorTypeCanceled = "canceled"
)

// ProgressFunc receives (completed, total, message) as records finish. It
// may be called from any goroutine.
type ProgressFunc func(current, total int, message string)

// Outcome is the result for one input record. Record is always set; Err is
// set when processing did not complete.
type Outcome struct {
	Record    *model.RestaurantRecord
	Err       error
	ErrorType string
}

// Summary aggregates a batch.
type Summary struct {
	Total           int
	Succeeded       int
	Failed          int
	OwnersFound     int
	OwnersWithPhone int
}

// Result holds outcomes in input order.
type Result struct {
	RunID    string
	Outcomes []Outcome
	Summary  Summary
	Elapsed  time.Duration
}

// Records returns the records in input order.
func (r *Result) Records() []*model.RestaurantRecord {
	out := make([]*model.RestaurantRecord, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Record
	}
	return out
}

// Batch owns the lookups, cache and HTTP client shared by every record.
type Batch struct {
	cfg       Config
	cache     cache.Cache
	processor *Processor
}

// NewBatch opens the cache and builds the upstream lookups described by cfg.
func NewBatch(ctx context.Context, cfg Config) (*Batch, error) {
	cfg = cfg.withDefaults()

	c, err := cache.Open(ctx, cfg.CacheDriver, cfg.CacheDir)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: open cache")
	}

	hc := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	opts := func(rps float64) lookup.Options {
		return lookup.Options{
			Cache:     c,
			Retry:     cfg.Retry,
			Circuit:   cfg.Circuit,
			RateLimit: rps,
			Metrics:   cfg.Metrics,
		}
	}

	var gc google.Client
	if cfg.GooglePlacesKey != "" {
		gopts := []google.Option{google.WithHTTPClient(hc)}
		if cfg.GoogleBaseURL != "" {
			gopts = append(gopts, google.WithBaseURL(cfg.GoogleBaseURL))
		}
		gc = google.NewClient(cfg.GooglePlacesKey, gopts...)
	}

	var pc perplexity.Client
	if cfg.OpenRouterKey != "" {
		popts := []perplexity.Option{perplexity.WithHTTPClient(hc)}
		if cfg.OpenRouterBaseURL != "" {
			popts = append(popts, perplexity.WithBaseURL(cfg.OpenRouterBaseURL))
		}
		if cfg.OpenRouterModel != "" {
			popts = append(popts, perplexity.WithModel(cfg.OpenRouterModel))
		}
		pc = perplexity.NewClient(cfg.OpenRouterKey, popts...)
	}

	var wc whitepages.Client
	if cfg.WhitepagesKey != "" {
		wopts := []whitepages.Option{whitepages.WithHTTPClient(hc)}
		if cfg.WhitepagesBaseURL != "" {
			wopts = append(wopts, whitepages.WithBaseURL(cfg.WhitepagesBaseURL))
		}
		wc = whitepages.NewClient(cfg.WhitepagesKey, wopts...)
	}

	return &Batch{
		cfg:   cfg,
		cache: c,
		processor: NewProcessor(
			lookup.NewPlaceLookup(gc, opts(cfg.PlacesRateLimit)),
			lookup.NewNameResolver(pc, opts(cfg.PerplexityRateLimit)),
			lookup.NewPersonLookup(wc, opts(cfg.WhitepagesRateLimit)),
			cfg.PlaceRadius,
			cfg.MatchThreshold,
		),
	}, nil
}

// Close releases the cache.
func (b *Batch) Close() error {
	if closer, ok := b.cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run processes records with at most concurrency in flight. A failure in
// one record is recorded in its Outcome and never stops the others; only
// cancellation of ctx makes Run return an error, alongside the partial
// result.
func (b *Batch) Run(ctx context.Context, records []*model.RestaurantRecord, concurrency int, progress ProgressFunc) (*Result, error) {
	return runBatch(ctx, b.processor, records, concurrency, progress, b.cfg)
}

// Run is a convenience that builds a Batch from cfg, runs it and closes it.
func Run(ctx context.Context, records []*model.RestaurantRecord, cfg Config, concurrency int, progress ProgressFunc) (*Result, error) {
	b, err := NewBatch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer b.Close() //nolint:errcheck

	return b.Run(ctx, records, concurrency, progress)
}

func runBatch(ctx context.Context, p *Processor, records []*model.RestaurantRecord, concurrency int, progress ProgressFunc, cfg Config) (*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	res := &Result{
		RunID:    uuid.New().String(),
		Outcomes: make([]Outcome, len(records)),
	}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("batch started",
		zap.Int("records", len(records)),
		zap.Int("concurrency", concurrency),
	)

	start := time.Now()
	total := len(records)

	var g errgroup.Group
	g.SetLimit(concurrency)

	var done atomic.Int64

	for i, rec := range records {
		res.Outcomes[i].Record = rec
		out := &res.Outcomes[i]

		g.Go(func() error {
			defer func() {
				n := int(done.Add(1))
				if progress != nil {
					progress(n, total, fmt.Sprintf("processed %s", rec.LLCName))
				}
			}()

			if err := ctx.Err(); err != nil {
				out.Err, out.ErrorType = err, ErrorTypeCanceled
				return nil
			}

			if err := processSafely(ctx, p, rec); err != nil {
				out.Err, out.ErrorType = err, ErrorTypePanic
				log.Error("record failed", zap.String("fein", rec.FEIN), zap.Error(err))
				cfg.Metrics.Record("failed")
				return nil // don't abort batch on individual failure
			}
			if err := ctx.Err(); err != nil {
				out.Err, out.ErrorType = err, ErrorTypeCanceled
				return nil
			}

			cfg.Metrics.Record("ok")
			return nil
		})
	}
	_ = g.Wait()

	res.Elapsed = time.Since(start)
	res.Summary = summarize(res.Outcomes)

	log.Info("batch complete",
		zap.Int("succeeded", res.Summary.Succeeded),
		zap.Int("failed", res.Summary.Failed),
		zap.Int("owners_found", res.Summary.OwnersFound),
		zap.Duration("elapsed", res.Elapsed),
	)

	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "enrich: batch canceled")
	}
	return res, nil
}

// processSafely runs the processor, converting a panic into an error.
func processSafely(ctx context.Context, p *Processor, rec *model.RestaurantRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("enrich: panic processing %q: %v", rec.LLCName, r)
		}
	}()
	p.Process(ctx, rec)
	return nil
}

func summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if owner := o.Record.Owner(); owner != nil {
			s.OwnersFound++
			if owner.Phone != "" || owner.PersonalPhone != "" {
				s.OwnersWithPhone++
			}
		}
	}
	return s
}
