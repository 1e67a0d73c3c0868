package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"SweepSim/internal/domain/models"
)

type fakeProc struct {
	mu      sync.Mutex
	candles []models.Candle
	err     error
}

func (p *fakeProc) Process(ctx context.Context, c models.Candle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.candles = append(p.candles, c)
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (m *fakeMetrics) RecordCandle(string)             {}
func (m *fakeMetrics) RecordRejection(string, string)  {}
func (m *fakeMetrics) RecordEvent(string, string)      {}
func (m *fakeMetrics) RecordTradeClosed(string)        {}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func guardCandle(ts time.Time, o, h, l, c float64) models.Candle {
	return models.Candle{Timestamp: ts, Symbol: "ES", Open: o, High: h, Low: l, Close: c, Volume: 100}
}

func TestGuardForwardsValidCandles(t *testing.T) {
	proc := &fakeProc{}
	g := NewStreamGuard(proc, newFakeMetrics())
	t0 := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)

	if err := g.Process(context.Background(), guardCandle(t0, 5000, 5001, 4999, 5000.5)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.candles) != 1 {
		t.Fatalf("forwarded %d candles, want 1", len(proc.candles))
	}
}

func TestGuardDropsOutOfOrder(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	g := NewStreamGuard(proc, m)
	t0 := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)

	g.Process(context.Background(), guardCandle(t0, 5000, 5001, 4999, 5000.5))
	if err := g.Process(context.Background(), guardCandle(t0.Add(-time.Minute), 5000, 5001, 4999, 5000.5)); err != nil {
		t.Fatalf("out-of-order candle should drop silently, got %v", err)
	}
	if len(proc.candles) != 1 {
		t.Fatalf("forwarded %d candles, want 1", len(proc.candles))
	}
	if m.count("guard_out_of_order") != 1 {
		t.Fatal("expected out-of-order counter")
	}

	// Equal timestamps are allowed; only regressions drop.
	g.Process(context.Background(), guardCandle(t0, 5000, 5001, 4999, 5000.6))
	if len(proc.candles) != 2 {
		t.Fatalf("forwarded %d candles, want 2", len(proc.candles))
	}
}

func TestGuardDropsDegenerate(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	g := NewStreamGuard(proc, m)
	t0 := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)

	if err := g.Process(context.Background(), guardCandle(t0, 5000, 5000, 5000, 5000)); err != nil {
		t.Fatalf("degenerate candle should drop silently, got %v", err)
	}
	if len(proc.candles) != 0 || m.count("guard_degenerate") != 1 {
		t.Fatalf("degenerate candle not dropped")
	}
}

func TestGuardRejectsInvalid(t *testing.T) {
	proc := &fakeProc{}
	g := NewStreamGuard(proc, newFakeMetrics())
	t0 := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)

	bad := guardCandle(t0, 5000, 4999, 5001, 5000) // high < low
	if err := g.Process(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGuardBuffersOnDownstreamError(t *testing.T) {
	proc := &fakeProc{err: context.DeadlineExceeded}
	m := newFakeMetrics()
	g := NewStreamGuard(proc, m, WithBufferSize(4))
	t0 := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)

	if err := g.Process(context.Background(), guardCandle(t0, 5000, 5001, 4999, 5000.5)); err == nil {
		t.Fatal("expected downstream error")
	}
	if len(g.bufCh) != 1 {
		t.Fatalf("buffered %d candles, want 1", len(g.bufCh))
	}
	if m.count("guard_process") != 1 {
		t.Fatal("expected process error counter")
	}
}
