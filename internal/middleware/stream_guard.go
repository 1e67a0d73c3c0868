package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	"SweepSim/internal/service/ratelimit"
)

// Proc is the minimal downstream interface the guard needs.
type Proc interface {
	Process(ctx context.Context, c models.Candle) error
}

// StreamGuard sits between a candle source and the detection pipeline. It
// validates candles, drops degenerate ones, enforces non-decreasing
// timestamps per symbol, optionally throttles live feeds, and buffers when
// the downstream errors.
type StreamGuard struct {
	proc    Proc
	metrics domrepo.Metrics
	limiter *ratelimit.Limiter
	maxRPS  float64
	bufSize int
	bufCh   chan models.Candle
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	lastTS  map[string]time.Time // per-symbol last accepted timestamp
}

type GuardOption func(*StreamGuard)

// WithMaxRPS enables wall-clock throttling for live feeds. Replay runs leave
// it off; simulated time must never be throttled.
func WithMaxRPS(n float64) GuardOption {
	return func(g *StreamGuard) {
		if n > 0 {
			g.maxRPS = n
			g.limiter = ratelimit.New()
		}
	}
}

// WithBufferSize sets the retry buffer used when downstream is unavailable.
func WithBufferSize(n int) GuardOption {
	return func(g *StreamGuard) {
		if n > 0 {
			g.bufSize = n
		}
	}
}

func NewStreamGuard(proc Proc, metrics domrepo.Metrics, opts ...GuardOption) *StreamGuard {
	g := &StreamGuard{
		proc:    proc,
		metrics: metrics,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
		lastTS:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.bufCh = make(chan models.Candle, g.bufSize)
	return g
}

// Start launches background flushing of buffered candles.
func (g *StreamGuard) Start(ctx context.Context) {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-g.stopCh:
				return
			case c := <-g.bufCh:
				if err := g.proc.Process(ctx, c); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					g.metrics.RecordError("guard_flush")
					time.Sleep(backoff)
					select {
					case g.bufCh <- c:
					default:
						g.metrics.RecordError("guard_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (g *StreamGuard) Stop() {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return
	}
	g.started = false
	g.mu.Unlock()
	close(g.stopCh)
}

// Process validates and forwards one candle, buffering on downstream errors.
// Out-of-order and degenerate candles are dropped, not errors: a replay must
// keep going past bad rows in the middle of a day.
func (g *StreamGuard) Process(ctx context.Context, c models.Candle) error {
	start := time.Now()
	if err := c.Validate(); err != nil {
		g.metrics.RecordError("guard_validate")
		return err
	}
	if c.IsDegenerate() {
		g.metrics.RecordError("guard_degenerate")
		return nil
	}

	g.mu.Lock()
	if last, ok := g.lastTS[c.Symbol]; ok && c.Timestamp.Before(last) {
		g.mu.Unlock()
		g.metrics.RecordError("guard_out_of_order")
		return nil
	}
	g.lastTS[c.Symbol] = c.Timestamp
	g.mu.Unlock()

	if g.limiter != nil && !g.limiter.Allow(c.Symbol, g.maxRPS, g.maxRPS) {
		g.metrics.RecordError("guard_throttle")
		return nil
	}

	if err := g.proc.Process(ctx, c); err != nil {
		g.metrics.RecordError("guard_process")
		select {
		case g.bufCh <- c:
		default:
			g.metrics.RecordError("guard_buffer_full")
		}
		return fmt.Errorf("guard downstream: %w", err)
	}
	g.metrics.RecordLatency("guard_process", time.Since(start).Seconds())
	return nil
}
