// Package pipeline runs one destination request end to end: cache check,
// recommendation, per-candidate assembly, and cache store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/neexbeast/budgettrip/internal/cache"
	"github.com/neexbeast/budgettrip/internal/destination"
)

// ErrNoCandidates is returned when the recommender produced nothing to assemble.
var ErrNoCandidates = errors.New("no destination candidates recommended")

// Store is the interface satisfied by cache.Memory and cache.Redis.
type Store interface {
	Get(ctx context.Context, key string) (*cache.Entry, error)
	Set(ctx context.Context, key string, entry cache.Entry) error
}

// Recommender is the interface satisfied by recommend.Requester.
type Recommender interface {
	Recommend(ctx context.Context, q destination.BudgetQuery) []destination.LocationCandidate
}

// Assembler is the interface satisfied by destination.Assembler.
type Assembler interface {
	AssembleAll(ctx context.Context, cands []destination.LocationCandidate) []destination.Record
}

// Orchestrator serves destination lists from cache or computes them.
// Concurrent requests for the same key share a single computation.
type Orchestrator struct {
	store     Store
	recommend Recommender
	assemble  Assembler
	ttl       time.Duration
	now       func() time.Time
	group     singleflight.Group
	log       *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTTL sets how long a cached entry is served.
func WithTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New constructs an Orchestrator.
func New(store Store, recommend Recommender, assemble Assembler, log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		recommend: recommend,
		assemble:  assemble,
		ttl:       cache.DefaultTTL,
		now:       time.Now,
		log:       log.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run returns the destination records for q. A fresh cache entry is returned
// without contacting any upstream. An empty record list is a valid result and
// is cached like any other.
func (o *Orchestrator) Run(ctx context.Context, q destination.BudgetQuery) ([]destination.Record, error) {
	q = q.Normalize()
	key := cache.Key(q)

	if records, ok := o.lookup(ctx, key); ok {
		return records, nil
	}

	ch := o.group.DoChan(key, func() (any, error) {
		// Detached: one caller disconnecting must not abort the shared flight.
		return o.compute(context.WithoutCancel(ctx), key, q)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]destination.Record), nil
	}
}

func (o *Orchestrator) lookup(ctx context.Context, key string) ([]destination.Record, bool) {
	entry, err := o.store.Get(ctx, key)
	if err != nil {
		o.log.Warn("cache read failed, recomputing", "op", "cache_get", "key", key, "err", err)
		return nil, false
	}
	if !entry.Fresh(o.now(), o.ttl) {
		return nil, false
	}
	o.log.Debug("cache hit", "key", key)
	return nonNil(entry.Data), true
}

func (o *Orchestrator) compute(ctx context.Context, key string, q destination.BudgetQuery) ([]destination.Record, error) {
	log := o.log.With("run_id", uuid.NewString(), "key", key)

	// Another flight may have finished between our miss and acquiring the key.
	if records, ok := o.lookup(ctx, key); ok {
		return records, nil
	}

	start := o.now()
	cands := o.recommend.Recommend(ctx, q)
	if len(cands) == 0 {
		log.Error("recommendation produced no candidates", "op", "recommend")
		return nil, fmt.Errorf("budget %d %s: %w", q.Budget, q.Currency, ErrNoCandidates)
	}
	log.Info("candidates received", "op", "recommend", "count", len(cands))

	records := nonNil(o.assemble.AssembleAll(ctx, cands))
	log.Info("destinations assembled", "op", "assemble",
		"candidates", len(cands), "records", len(records), "duration", o.now().Sub(start))

	if err := o.store.Set(ctx, key, cache.Entry{CreatedAt: o.now(), Data: records}); err != nil {
		log.Warn("cache write failed", "op", "cache_set", "err", err)
	}

	return records, nil
}

func nonNil(records []destination.Record) []destination.Record {
	if records == nil {
		return []destination.Record{}
	}
	return records
}
