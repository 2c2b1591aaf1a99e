package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	calls  int
	gold   float64
	silver float64
	err    error
}

func (f *fakeSource) Fetch(_ context.Context) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.gold, f.silver, f.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) set(gold, silver float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gold, f.silver, f.err = gold, silver, err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCache_FetchesOncePerDay(t *testing.T) {
	src := &fakeSource{gold: 4873, silver: 92}
	day1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	clock := day1
	c := NewCache(src, WithClock(func() time.Time { return clock }))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		sp := c.Prices(ctx)
		assert.Equal(t, "2026-08-28", sp.Date)
		assert.Equal(t, 4873.0, sp.Gold)
		assert.Equal(t, 92.0, sp.Silver)
	}
	assert.Equal(t, 1, src.callCount())

	// Crossing the UTC day boundary triggers exactly one more fetch.
	clock = day1.Add(24 * time.Hour)
	src.set(4901, 93, nil)
	sp := c.Prices(ctx)
	assert.Equal(t, "2026-08-29", sp.Date)
	assert.Equal(t, 4901.0, sp.Gold)
	assert.Equal(t, 2, src.callCount())
}

func TestCache_DefaultsWhenNeverFetched(t *testing.T) {
	src := &fakeSource{err: eris.New("network down")}
	c := NewCache(src, WithClock(fixedClock(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))))

	sp := c.Prices(context.Background())
	assert.Equal(t, float64(DefaultGold), sp.Gold)
	assert.Equal(t, float64(DefaultSilver), sp.Silver)
	assert.Equal(t, "2026-08-29", sp.Date)
}

func TestCache_FallbackOverride(t *testing.T) {
	src := &fakeSource{err: eris.New("network down")}
	c := NewCache(src,
		WithClock(fixedClock(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))),
		WithFallback(5100, 95),
	)

	sp := c.Prices(context.Background())
	assert.Equal(t, 5100.0, sp.Gold)
	assert.Equal(t, 95.0, sp.Silver)
}

func TestCache_StaleBeatsDefaults(t *testing.T) {
	src := &fakeSource{gold: 4873, silver: 92}
	clock := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	c := NewCache(src, WithClock(func() time.Time { return clock }))

	ctx := context.Background()
	first := c.Prices(ctx)
	require.Equal(t, "2026-08-28", first.Date)

	// Next day the upstream is down: serve yesterday's record, not defaults.
	clock = clock.Add(24 * time.Hour)
	src.set(0, 0, eris.New("upstream down"))
	sp := c.Prices(ctx)
	assert.Equal(t, 4873.0, sp.Gold)
	assert.Equal(t, "2026-08-28", sp.Date)

	// The stale record keeps its old date key, so every request retries until
	// the upstream recovers.
	c.Prices(ctx)
	assert.Equal(t, 3, src.callCount())

	src.set(4950, 94, nil)
	sp = c.Prices(ctx)
	assert.Equal(t, "2026-08-29", sp.Date)
	assert.Equal(t, 4950.0, sp.Gold)
}

func TestCache_SanityFloorRejectsBadQuote(t *testing.T) {
	src := &fakeSource{gold: 4.9, silver: 92}
	c := NewCache(src, WithClock(fixedClock(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))))

	sp := c.Prices(context.Background())
	assert.Equal(t, float64(DefaultGold), sp.Gold)
}

func TestCache_MissingSilverGetsFallback(t *testing.T) {
	src := &fakeSource{gold: 4873, silver: 0}
	c := NewCache(src, WithClock(fixedClock(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))))

	sp := c.Prices(context.Background())
	assert.Equal(t, 4873.0, sp.Gold)
	assert.Equal(t, float64(DefaultSilver), sp.Silver)
}

func TestCache_ConcurrentReaders(t *testing.T) {
	src := &fakeSource{gold: 4873, silver: 92}
	c := NewCache(src, WithClock(fixedClock(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := c.Prices(context.Background())
			assert.Equal(t, 4873.0, sp.Gold)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.callCount())
}
