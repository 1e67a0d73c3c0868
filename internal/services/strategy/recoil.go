package strategy

import (
	"fmt"
	"time"

	"SweepSim/internal/domain/models"
)

// RecoilConfig tunes signal generation from detector events.
type RecoilConfig struct {
	MinConfidence    float64               `yaml:"min_confidence" default:"0.6"`
	StopBufferPoints float64               `yaml:"stop_buffer_points" default:"1.0"`
	MaxRiskPoints    float64               `yaml:"max_risk_points" default:"10.0"`
	TargetRMultiple  float64               `yaml:"target_r_multiple" default:"1.5"`
	BurstStopPoints  float64               `yaml:"burst_stop_points" default:"4.0"`
	MaxHoldObs       int                   `yaml:"max_hold_observations" default:"60"`
	Cooldown         time.Duration         `yaml:"cooldown" default:"5m"`
	Trailing         models.TrailingParams `yaml:"trailing"`
}

// Validate rejects tunable combinations that cannot work.
func (c RecoilConfig) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1]")
	}
	if c.StopBufferPoints < 0 {
		return fmt.Errorf("stop_buffer_points cannot be negative")
	}
	if c.MaxRiskPoints <= 0 {
		return fmt.Errorf("max_risk_points must be positive")
	}
	if c.TargetRMultiple <= 0 {
		return fmt.Errorf("target_r_multiple must be positive")
	}
	if c.BurstStopPoints <= 0 {
		return fmt.Errorf("burst_stop_points must be positive")
	}
	if c.MaxHoldObs < 0 {
		return fmt.Errorf("max_hold_observations cannot be negative")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown cannot be negative")
	}
	if c.Trailing.TriggerPoints < 0 || c.Trailing.OffsetPoints < 0 {
		return fmt.Errorf("trailing points cannot be negative")
	}
	return nil
}

// Recoil trades against liquidity sweeps and with momentum bursts. A sweep is
// a failed breakout, so the entry fades it back toward the swept level; a
// burst is ridden in its own direction. Stops sit beyond the event extreme
// with a fixed buffer, targets are a risk multiple.
type Recoil struct {
	cfg     RecoilConfig
	lastSig time.Time
	hasSig  bool
	skipped int
}

func NewRecoil(cfg RecoilConfig) *Recoil {
	return &Recoil{cfg: cfg}
}

// OnSweep converts a sweep event into a fade signal, or nil when the event
// does not clear the confidence, risk, or cooldown gates.
func (s *Recoil) OnSweep(e *models.SweepEvent, levels []models.TrackedLevel) *models.Signal {
	if e == nil || e.Confidence < s.cfg.MinConfidence {
		return nil
	}
	if s.onCooldown(e.Timestamp) {
		return nil
	}

	sig := &models.Signal{
		Symbol:     e.Symbol,
		OrderType:  models.OrderMarket,
		EntryPrice: e.Close,
		Strategy:   "level_recoil",
		Time:       e.Timestamp,
		Reason:     fmt.Sprintf("%s sweep of %s @ %.2f", e.Type, e.Level.Label, e.Level.Price),
	}
	var risk float64
	switch e.Type {
	case models.SweepBearish:
		// Price probed above the level and failed: fade short.
		sig.Side = models.SideSell
		sig.StopPrice = e.High + s.cfg.StopBufferPoints
		risk = sig.StopPrice - sig.EntryPrice
		sig.TargetPrice = sig.EntryPrice - risk*s.cfg.TargetRMultiple
	case models.SweepBullish:
		sig.Side = models.SideBuy
		sig.StopPrice = e.Low - s.cfg.StopBufferPoints
		risk = sig.EntryPrice - sig.StopPrice
		sig.TargetPrice = sig.EntryPrice + risk*s.cfg.TargetRMultiple
	default:
		return nil
	}
	if risk <= 0 || risk > s.cfg.MaxRiskPoints {
		s.skipped++
		return nil
	}

	s.finish(sig)
	return sig
}

// OnBurst converts a momentum burst into a continuation signal.
func (s *Recoil) OnBurst(e *models.BurstEvent) *models.Signal {
	if e == nil {
		return nil
	}
	if s.onCooldown(e.Timestamp) {
		return nil
	}

	sig := &models.Signal{
		Symbol:     e.Symbol,
		OrderType:  models.OrderMarket,
		EntryPrice: e.Price,
		Strategy:   "momentum_burst",
		Time:       e.Timestamp,
		Reason:     fmt.Sprintf("%s burst, velocity %.3f pts/s over %s", e.Direction, e.Velocity, e.BestWindow),
	}
	risk := s.cfg.BurstStopPoints
	switch e.Direction {
	case models.BurstLong:
		sig.Side = models.SideBuy
		sig.StopPrice = sig.EntryPrice - risk
		sig.TargetPrice = sig.EntryPrice + risk*s.cfg.TargetRMultiple
	case models.BurstShort:
		sig.Side = models.SideSell
		sig.StopPrice = sig.EntryPrice + risk
		sig.TargetPrice = sig.EntryPrice - risk*s.cfg.TargetRMultiple
	default:
		return nil
	}

	s.finish(sig)
	return sig
}

func (s *Recoil) onCooldown(ts time.Time) bool {
	if !s.hasSig || s.cfg.Cooldown <= 0 {
		return false
	}
	return ts.Sub(s.lastSig) < s.cfg.Cooldown
}

func (s *Recoil) finish(sig *models.Signal) {
	sig.MaxHoldObs = s.cfg.MaxHoldObs
	if s.cfg.Trailing.TriggerPoints > 0 && s.cfg.Trailing.OffsetPoints > 0 {
		tp := s.cfg.Trailing
		sig.Trailing = &tp
	}
	s.lastSig = sig.Time
	s.hasSig = true
}

// SkippedOnRisk reports signals dropped for exceeding the risk cap.
func (s *Recoil) SkippedOnRisk() int { return s.skipped }
