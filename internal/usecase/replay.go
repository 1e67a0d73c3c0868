package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	mid "SweepSim/internal/middleware"
	"SweepSim/internal/services/features"
	"SweepSim/internal/services/sim"
	applogger "SweepSim/pkg/logger"
)

// ReplayUseCase drives a candle source through the detection pipeline from
// start to drain, flattens whatever is still open, and produces a performance
// report. One replay runs at a time.
type ReplayUseCase struct {
	log      *applogger.Logger
	guard    *mid.StreamGuard
	pipeline *DetectionPipeline
	sink     domrepo.TradeSink

	mu      sync.RWMutex
	running bool
	last    *sim.Report
}

func NewReplayUseCase(log *applogger.Logger, guard *mid.StreamGuard, pipeline *DetectionPipeline, sink domrepo.TradeSink) *ReplayUseCase {
	return &ReplayUseCase{log: log, guard: guard, pipeline: pipeline, sink: sink}
}

// Run consumes the source to exhaustion and returns the report. The source is
// closed on return.
func (uc *ReplayUseCase) Run(ctx context.Context, source domrepo.CandleSource) (*sim.Report, error) {
	uc.mu.Lock()
	if uc.running {
		uc.mu.Unlock()
		return nil, fmt.Errorf("replay already running")
	}
	uc.running = true
	uc.mu.Unlock()
	defer func() {
		uc.mu.Lock()
		uc.running = false
		uc.mu.Unlock()
	}()
	defer source.Close()

	const volTail = 500

	start := time.Now()
	var last models.Candle
	var tail []models.Candle
	var processed, skipped int
	for {
		c, ok, err := source.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("replay source: %w", err)
		}
		if !ok {
			break
		}
		if err := uc.guard.Process(ctx, c); err != nil {
			// Bad rows are logged and skipped; a replay should survive
			// a malformed line in the middle of a day.
			skipped++
			uc.log.Warn("replay candle skipped",
				applogger.String("symbol", c.Symbol),
				applogger.Error(err),
			)
			continue
		}
		last = c
		processed++
		tail = append(tail, c)
		if len(tail) > volTail {
			tail = tail[1:]
		}
	}

	if !last.Timestamp.IsZero() {
		uc.pipeline.Executor().CloseAll(last.Timestamp, last.Close, models.ExitSessionClose)
	}

	report := uc.pipeline.Report()
	uc.mu.Lock()
	uc.last = report
	uc.mu.Unlock()

	if uc.sink != nil {
		if err := uc.sink.StoreTrades(ctx, uc.pipeline.Executor().Closed()); err != nil {
			uc.log.Error("store replay trades", applogger.Error(err))
		}
	}

	vol := features.RealizedVolatility(features.ComputeLogReturns(tail), 60, features.BarsPerYearForTF("1m"))
	uc.log.Info("replay finished",
		applogger.Int("candles", processed),
		applogger.Int("skipped", skipped),
		applogger.Int("trades", report.Trades),
		applogger.Any("net_pnl", report.NetPnL),
		applogger.Any("realized_vol", vol),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return report, nil
}

// LastReport returns the report of the most recent completed replay, or nil.
func (uc *ReplayUseCase) LastReport() *sim.Report {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.last
}

// Running reports whether a replay is in progress.
func (uc *ReplayUseCase) Running() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.running
}
