package usecase

import (
	"context"
	"sync"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	domsvc "SweepSim/internal/domain/service"
	"SweepSim/internal/services/market"
	"SweepSim/internal/services/sim"
	applogger "SweepSim/pkg/logger"
)

// eventHistory is the per-kind cap on events kept for the query API.
const eventHistory = 1000

// DetectionPipeline is the heart of the system: every candle flows through
// session classification, level maintenance, the open-trade lifecycle, and
// both detectors, in that order. Exits always run before new entries so one
// candle can never open and close the same position.
type DetectionPipeline struct {
	log      *applogger.Logger
	metrics  domrepo.Metrics
	registry *market.Registry
	sweep    domsvc.SweepDetector
	burst    domsvc.BurstDetector
	strat    domsvc.Strategy
	exec     domsvc.Simulator
	levels   domrepo.LevelSource
	pub      domrepo.SignalPublisher

	mu      sync.RWMutex
	sweeps  []*models.SweepEvent
	bursts  []*models.BurstEvent
	candles int
}

func NewDetectionPipeline(
	log *applogger.Logger,
	metrics domrepo.Metrics,
	registry *market.Registry,
	sweep domsvc.SweepDetector,
	burst domsvc.BurstDetector,
	strat domsvc.Strategy,
	exec domsvc.Simulator,
	levels domrepo.LevelSource,
	pub domrepo.SignalPublisher,
) *DetectionPipeline {
	return &DetectionPipeline{
		log:      log,
		metrics:  metrics,
		registry: registry,
		sweep:    sweep,
		burst:    burst,
		strat:    strat,
		exec:     exec,
		levels:   levels,
		pub:      pub,
	}
}

// Process advances the pipeline by one candle.
func (p *DetectionPipeline) Process(ctx context.Context, c models.Candle) error {
	p.metrics.RecordCandle(c.Symbol)
	p.metrics.RecordLastPrice(c.Symbol, c.Close)

	info := market.Classify(c.Timestamp)

	if p.levels != nil {
		snap, err := p.levels.SnapshotAt(ctx, c.Timestamp)
		if err != nil {
			p.metrics.RecordError("level_source")
			p.log.Warn("level snapshot lookup failed", applogger.Error(err))
		} else {
			p.registry.ApplySnapshot(snap)
		}
	}
	p.registry.OnCandle(c, info)

	for _, t := range p.exec.OnCandle(c, info.Session) {
		p.metrics.RecordTradeClosed(string(t.ExitReason))
		p.log.Info("trade closed",
			applogger.Int64("trade_id", t.ID),
			applogger.String("symbol", t.Symbol),
			applogger.String("exit_reason", string(t.ExitReason)),
			applogger.Any("net_pnl", t.NetPnL),
			applogger.Int("bars_held", t.BarsHeld),
		)
	}

	active := p.registry.Active()

	if ev, reason := p.sweep.OnCandle(c, info, active); ev != nil {
		p.recordSweep(ctx, ev, active)
	} else if reason != "" {
		p.metrics.RecordRejection("sweep", reason)
	}

	if ev, reason := p.burst.OnCandle(c, info); ev != nil {
		p.recordBurst(ctx, ev)
	} else if reason != "" {
		p.metrics.RecordRejection("burst", reason)
	}

	p.mu.Lock()
	p.candles++
	p.mu.Unlock()
	return nil
}

func (p *DetectionPipeline) recordSweep(ctx context.Context, ev *models.SweepEvent, levels []models.TrackedLevel) {
	p.metrics.RecordEvent("sweep", ev.Symbol)
	p.log.Info("sweep detected",
		applogger.String("symbol", ev.Symbol),
		applogger.String("type", string(ev.Type)),
		applogger.String("level", ev.Level.Label),
		applogger.Any("confidence", ev.Confidence),
	)
	p.mu.Lock()
	p.sweeps = appendCapped(p.sweeps, ev, eventHistory)
	p.mu.Unlock()

	if p.pub != nil {
		if err := p.pub.PublishSweep(ctx, ev); err != nil {
			p.metrics.RecordError("publish_sweep")
		}
	}
	if sig := p.strat.OnSweep(ev, levels); sig != nil {
		p.submit(ctx, sig)
	}
}

func (p *DetectionPipeline) recordBurst(ctx context.Context, ev *models.BurstEvent) {
	p.metrics.RecordEvent("burst", ev.Symbol)
	p.log.Info("momentum burst detected",
		applogger.String("symbol", ev.Symbol),
		applogger.String("direction", string(ev.Direction)),
		applogger.Any("velocity", ev.Velocity),
	)
	p.mu.Lock()
	p.bursts = appendCapped(p.bursts, ev, eventHistory)
	p.mu.Unlock()

	if p.pub != nil {
		if err := p.pub.PublishBurst(ctx, ev); err != nil {
			p.metrics.RecordError("publish_burst")
		}
	}
	if sig := p.strat.OnBurst(ev); sig != nil {
		p.submit(ctx, sig)
	}
}

func (p *DetectionPipeline) submit(ctx context.Context, sig *models.Signal) {
	if !p.exec.Submit(sig) {
		p.metrics.RecordRejection("executor", "signal_ignored")
		return
	}
	p.log.Info("signal submitted",
		applogger.String("symbol", sig.Symbol),
		applogger.String("side", string(sig.Side)),
		applogger.String("strategy", sig.Strategy),
		applogger.String("reason", sig.Reason),
	)
	if p.pub != nil {
		if err := p.pub.PublishSignal(ctx, sig); err != nil {
			p.metrics.RecordError("publish_signal")
		}
	}
}

// Report summarizes every trade closed so far.
func (p *DetectionPipeline) Report() *sim.Report {
	return sim.Summarize(p.exec.Closed())
}

// RecentSweeps returns up to limit most recent sweep events, newest last.
func (p *DetectionPipeline) RecentSweeps(limit int) []*models.SweepEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if limit <= 0 || limit > len(p.sweeps) {
		limit = len(p.sweeps)
	}
	out := make([]*models.SweepEvent, limit)
	copy(out, p.sweeps[len(p.sweeps)-limit:])
	return out
}

// RecentBursts returns up to limit most recent burst events, newest last.
func (p *DetectionPipeline) RecentBursts(limit int) []*models.BurstEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if limit <= 0 || limit > len(p.bursts) {
		limit = len(p.bursts)
	}
	out := make([]*models.BurstEvent, limit)
	copy(out, p.bursts[len(p.bursts)-limit:])
	return out
}

// CandlesProcessed reports how many candles the pipeline has absorbed.
func (p *DetectionPipeline) CandlesProcessed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.candles
}

// Executor exposes the simulator for report generation.
func (p *DetectionPipeline) Executor() domsvc.Simulator { return p.exec }

func appendCapped[T any](s []T, v T, max int) []T {
	s = append(s, v)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
