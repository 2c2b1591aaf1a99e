package lead

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

const defaultDeliverTimeout = 30 * time.Second

// Relay fans a lead out to every configured sink. Failures are logged and
// counted, never surfaced: the submission endpoint acknowledged the visitor
// before delivery even started.
type Relay struct {
	sinks   []Sink
	timeout time.Duration

	wg sync.WaitGroup
}

// RelayOption configures the relay.
type RelayOption func(*Relay)

// WithDeliverTimeout bounds the background delivery of one lead across all
// sinks.
func WithDeliverTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRelay creates a relay over the given sinks. An empty sink list is valid;
// leads are then only persisted locally.
func NewRelay(sinks []Sink, opts ...RelayOption) *Relay {
	r := &Relay{
		sinks:   sinks,
		timeout: defaultDeliverTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit delivers the lead in the background and returns immediately. The
// delivery context is detached from the caller's request context so that the
// HTTP response cycle finishing does not cancel in-flight deliveries.
func (r *Relay) Submit(lead model.Lead) {
	if len(r.sinks) == 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.deliver(ctx, lead)
	}()
}

// Deliver fans the lead out synchronously. Used by the CLI and by Submit's
// background goroutine. The returned count is the number of sinks that failed.
func (r *Relay) Deliver(ctx context.Context, lead model.Lead) int {
	return r.deliver(ctx, lead)
}

func (r *Relay) deliver(ctx context.Context, lead model.Lead) int {
	var mu sync.Mutex
	failed := 0

	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range r.sinks {
		g.Go(func() error {
			start := time.Now()
			if err := sink.Deliver(ctx, lead); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				zap.L().Error("lead delivery failed",
					zap.String("sink", sink.Name()),
					zap.String("lead_id", lead.ID),
					zap.Error(err),
				)
				// Swallow the error: one sink failing must not cancel the
				// others via the group context.
				return nil
			}
			zap.L().Info("lead delivered",
				zap.String("sink", sink.Name()),
				zap.String("lead_id", lead.ID),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// Drain blocks until all background deliveries finish. Called on shutdown.
func (r *Relay) Drain() {
	r.wg.Wait()
}
