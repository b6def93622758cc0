package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/budgettrip/internal/cache"
	"github.com/neexbeast/budgettrip/internal/destination"
	"github.com/neexbeast/budgettrip/internal/pipeline"
)

// ---- fakes ----

type fakeRecommender struct {
	calls atomic.Int32
	delay time.Duration
	cands []destination.LocationCandidate
}

func (f *fakeRecommender) Recommend(_ context.Context, _ destination.BudgetQuery) []destination.LocationCandidate {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.cands
}

// fakeAssembler turns every candidate into a record except those named in fail.
type fakeAssembler struct {
	calls atomic.Int32
	fail  map[string]bool
}

func (f *fakeAssembler) AssembleAll(_ context.Context, cands []destination.LocationCandidate) []destination.Record {
	f.calls.Add(1)
	var out []destination.Record
	for _, c := range cands {
		if f.fail[c.Name] {
			continue
		}
		out = append(out, destination.Record{Name: c.Name, Attractions: []string{"x"}})
	}
	return out
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*cache.Entry, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, cache.Entry) error {
	return errors.New("connection refused")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fiveCountries() []destination.LocationCandidate {
	return []destination.LocationCandidate{
		{Name: "Japan", Type: destination.TypeCountry},
		{Name: "Peru", Type: destination.TypeCountry},
		{Name: "Kenya", Type: destination.TypeCountry},
		{Name: "Norway", Type: destination.TypeCountry},
		{Name: "Chile", Type: destination.TypeCountry},
	}
}

func names(records []destination.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

// ---- tests ----

func TestRun_CachesResult(t *testing.T) {
	rec := &fakeRecommender{cands: fiveCountries()}
	asm := &fakeAssembler{}
	o := pipeline.New(cache.NewMemory(time.Hour, 10), rec, asm, quietLogger())
	ctx := context.Background()

	first, err := o.Run(ctx, destination.BudgetQuery{Budget: 1500, Currency: "USD"})
	require.NoError(t, err)
	require.Len(t, first, 5)

	second, err := o.Run(ctx, destination.BudgetQuery{Budget: 1500, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), rec.calls.Load(), "second request should be served from cache")
	assert.Equal(t, int32(1), asm.calls.Load())
}

func TestRun_DistinctKeysComputeSeparately(t *testing.T) {
	rec := &fakeRecommender{cands: fiveCountries()}
	o := pipeline.New(cache.NewMemory(time.Hour, 10), rec, &fakeAssembler{}, quietLogger())
	ctx := context.Background()

	_, err := o.Run(ctx, destination.BudgetQuery{Budget: 1500, Currency: "USD"})
	require.NoError(t, err)
	_, err = o.Run(ctx, destination.BudgetQuery{Budget: 1500, Currency: "EUR"})
	require.NoError(t, err)
	_, err = o.Run(ctx, destination.BudgetQuery{Budget: 1501, Currency: "USD"})
	require.NoError(t, err)

	assert.Equal(t, int32(3), rec.calls.Load())
}

func TestRun_ExpiredEntryRecomputes(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rec := &fakeRecommender{cands: fiveCountries()}
	o := pipeline.New(cache.NewMemory(24*time.Hour, 10), rec, &fakeAssembler{}, quietLogger(),
		pipeline.WithTTL(time.Hour), pipeline.WithClock(clk.Now))
	ctx := context.Background()
	q := destination.BudgetQuery{Budget: 1500, Currency: "USD"}

	_, err := o.Run(ctx, q)
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = o.Run(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), rec.calls.Load())

	clk.Advance(2 * time.Minute)
	_, err = o.Run(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), rec.calls.Load(), "stale entry should trigger recompute")
}

func TestRun_NoCandidates(t *testing.T) {
	store := cache.NewMemory(time.Hour, 10)
	o := pipeline.New(store, &fakeRecommender{}, &fakeAssembler{}, quietLogger())

	_, err := o.Run(context.Background(), destination.BudgetQuery{Budget: 100, Currency: "USD"})
	require.ErrorIs(t, err, pipeline.ErrNoCandidates)
	assert.Equal(t, 0, store.Len(), "failures must not be cached")
}

func TestRun_DropsFailedCandidatesInOrder(t *testing.T) {
	asm := &fakeAssembler{fail: map[string]bool{"Kenya": true}}
	o := pipeline.New(cache.NewMemory(time.Hour, 10), &fakeRecommender{cands: fiveCountries()}, asm, quietLogger())

	records, err := o.Run(context.Background(), destination.BudgetQuery{Budget: 1500, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Japan", "Peru", "Norway", "Chile"}, names(records))
}

func TestRun_AllCandidatesFailYieldsEmptyList(t *testing.T) {
	fail := map[string]bool{}
	for _, c := range fiveCountries() {
		fail[c.Name] = true
	}
	rec := &fakeRecommender{cands: fiveCountries()}
	o := pipeline.New(cache.NewMemory(time.Hour, 10), rec, &fakeAssembler{fail: fail}, quietLogger())
	ctx := context.Background()

	records, err := o.Run(ctx, destination.BudgetQuery{Budget: 1500, Currency: "USD"})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = o.Run(ctx, destination.BudgetQuery{Budget: 1500, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), rec.calls.Load(), "an empty result is cached too")
}

func TestRun_StoreFailureStillServes(t *testing.T) {
	rec := &fakeRecommender{cands: fiveCountries()}
	o := pipeline.New(failingStore{}, rec, &fakeAssembler{}, quietLogger())

	records, err := o.Run(context.Background(), destination.BudgetQuery{Budget: 1500, Currency: "USD"})
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestRun_ConcurrentRequestsShareOneComputation(t *testing.T) {
	rec := &fakeRecommender{cands: fiveCountries(), delay: 100 * time.Millisecond}
	asm := &fakeAssembler{}
	o := pipeline.New(cache.NewMemory(time.Hour, 10), rec, asm, quietLogger())

	const callers = 10
	results := make([][]destination.Record, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := o.Run(context.Background(), destination.BudgetQuery{Budget: 800, Currency: "USD"})
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, int32(1), asm.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 5)
	}
}

func TestRun_CallerCancelDoesNotAbortFlight(t *testing.T) {
	store := cache.NewMemory(time.Hour, 10)
	rec := &fakeRecommender{cands: fiveCountries(), delay: 100 * time.Millisecond}
	o := pipeline.New(store, rec, &fakeAssembler{}, quietLogger())
	q := destination.BudgetQuery{Budget: 800, Currency: "USD"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := o.Run(ctx, q)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 10*time.Millisecond)

	records, err := o.Run(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, int32(1), rec.calls.Load())
}
