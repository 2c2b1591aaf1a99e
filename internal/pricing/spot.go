package pricing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fallback constants used when no fetch has ever succeeded. Deliberately
// round numbers in the ballpark of recent spot, reviewed when markets move.
const (
	DefaultGold   = 4900
	DefaultSilver = 90
)

// goldSanityFloor rejects obviously malformed upstream quotes. Gold has not
// traded below $1000/oz in the lifetime of this product.
const goldSanityFloor = 1000

// SpotPrice holds one calendar day's gold and silver quotes in USD per troy
// ounce. Date is a UTC day key (YYYY-MM-DD).
type SpotPrice struct {
	Date   string  `json:"date"`
	Gold   float64 `json:"gold"`
	Silver float64 `json:"silver"`
}

// Source fetches fresh spot prices in USD per troy ounce. Implementations
// must honor ctx cancellation; any error is treated uniformly as a fetch
// failure by the cache.
type Source interface {
	Fetch(ctx context.Context) (gold, silver float64, err error)
}

// Cache lazily refreshes spot prices at most once per calendar day and never
// fails: every path terminates in a usable price pair. Availability beats
// freshness for an input that feeds a preliminary, non-binding estimate.
type Cache struct {
	src            Source
	now            func() time.Time
	timeout        time.Duration
	fallbackGold   float64
	fallbackSilver float64

	mu   sync.Mutex
	cur  SpotPrice
	seen bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock injects the time source, for day-boundary tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithTimeout bounds each upstream fetch attempt.
func WithTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.timeout = d }
}

// WithFallback overrides the built-in last-resort prices. Zero values keep
// the defaults.
func WithFallback(gold, silver float64) CacheOption {
	return func(c *Cache) {
		if gold > 0 {
			c.fallbackGold = gold
		}
		if silver > 0 {
			c.fallbackSilver = silver
		}
	}
}

// NewCache creates a spot price cache around the given source.
func NewCache(src Source, opts ...CacheOption) *Cache {
	c := &Cache{
		src:            src,
		now:            time.Now,
		timeout:        5 * time.Second,
		fallbackGold:   DefaultGold,
		fallbackSilver: DefaultSilver,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prices returns the day's spot prices. The first call of a new UTC day makes
// exactly one bounded fetch attempt; on failure it degrades to the prior
// day's value if one exists, then to the hardcoded defaults. The whole record
// is replaced atomically under the lock, so concurrent readers never observe
// a partial update.
func (c *Cache) Prices(ctx context.Context) SpotPrice {
	today := c.now().UTC().Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seen && c.cur.Date == today {
		return c.cur
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gold, silver, err := c.src.Fetch(fetchCtx)
	switch {
	case err != nil:
		zap.L().Warn("spot price fetch failed", zap.Error(err))
	case gold <= goldSanityFloor:
		zap.L().Warn("spot price rejected by sanity floor", zap.Float64("gold", gold))
	default:
		if silver <= 0 {
			silver = c.fallbackSilver
		}
		c.cur = SpotPrice{Date: today, Gold: gold, Silver: silver}
		c.seen = true
		zap.L().Info("spot prices updated",
			zap.String("date", today),
			zap.Float64("gold", gold),
			zap.Float64("silver", silver),
		)
		return c.cur
	}

	if c.seen {
		// Stale record keeps its old date key, so the next request retries
		// the fetch rather than pinning a bad day to today.
		zap.L().Warn("using stale cached spot price",
			zap.String("cached_date", c.cur.Date),
			zap.Float64("gold", c.cur.Gold),
		)
		return c.cur
	}

	return SpotPrice{Date: today, Gold: c.fallbackGold, Silver: c.fallbackSilver}
}
