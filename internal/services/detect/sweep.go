package detect

import (
	"fmt"
	"time"

	"SweepSim/internal/domain/models"
	"SweepSim/internal/services/stats"
)

// Rejection reasons reported by the sweep detector, in evaluation order.
const (
	RejectRangeTooSmall = "range_too_small"
	RejectCooldown      = "cooldown"
	RejectSession       = "session_filtered"
	RejectVolumeZ       = "volume_below_threshold"
	RejectRangeZ        = "range_below_threshold"
	RejectWick          = "wick_too_small"
	RejectNoLevel       = "no_level_swept"
)

// SweepConfig tunes the liquidity-sweep detector. Zero values are filled by
// the config loader's defaults.
type SweepConfig struct {
	MinRangePoints float64       `yaml:"min_range_points" default:"2.0"`
	Cooldown       time.Duration `yaml:"cooldown" default:"30s"`
	VolumeZ        float64       `yaml:"volume_z" default:"2.5"`
	RangeZ         float64       `yaml:"range_z" default:"2.0"`
	MinWickRatio   float64       `yaml:"min_wick_ratio" default:"0.35"`
	LevelTolerance float64       `yaml:"level_tolerance" default:"1.0"`
	WindowSize     int           `yaml:"window_size" default:"240"`
	Sessions       []string      `yaml:"sessions"`

	sessions map[models.Session]bool
}

// Validate rejects tunable combinations that cannot work.
func (c SweepConfig) Validate() error {
	if c.MinRangePoints < 0 {
		return fmt.Errorf("min_range_points cannot be negative")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown cannot be negative")
	}
	if c.VolumeZ < 0 || c.RangeZ < 0 {
		return fmt.Errorf("volume_z and range_z cannot be negative")
	}
	if c.MinWickRatio < 0 || c.MinWickRatio > 1 {
		return fmt.Errorf("min_wick_ratio must be in [0,1]")
	}
	if c.LevelTolerance < 0 {
		return fmt.Errorf("level_tolerance cannot be negative")
	}
	if c.WindowSize < 0 {
		return fmt.Errorf("window_size cannot be negative")
	}
	return nil
}

func (c *SweepConfig) allowed(s models.Session) bool {
	if c.sessions == nil {
		c.sessions = make(map[models.Session]bool, len(c.Sessions))
		for _, name := range c.Sessions {
			c.sessions[models.Session(name)] = true
		}
	}
	if len(c.sessions) == 0 {
		// Default to the sessions with enough liquidity for the
		// statistics to mean anything.
		return s == models.SessionRTH || s == models.SessionPremarket
	}
	return c.sessions[s]
}

// Sweep detects liquidity sweeps: a candle that spikes through a tracked
// level on anomalous volume and range, rejects it with a dominant wick, and
// closes back on the original side. Single-goroutine; the pipeline serializes
// calls.
type Sweep struct {
	cfg      SweepConfig
	volume   stats.Tracker
	rng      stats.Tracker
	lastEmit time.Time
	hasEmit  bool
	rejects  map[string]int
}

func NewSweep(cfg SweepConfig) *Sweep {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 240
	}
	return &Sweep{
		cfg:     cfg,
		volume:  stats.NewWindow(cfg.WindowSize),
		rng:     stats.NewWindow(cfg.WindowSize),
		rejects: make(map[string]int),
	}
}

// OnCandle evaluates one finished candle. It returns the emitted event or a
// rejection reason; the trackers absorb the candle either way, after scoring,
// so a candle never inflates its own baseline.
func (d *Sweep) OnCandle(c models.Candle, info models.SessionInfo, levels []models.TrackedLevel) (*models.SweepEvent, string) {
	volZ := d.volume.ZScore(float64(c.Volume))
	volSum := d.volume.Summary(float64(c.Volume))
	rngZ := d.rng.ZScore(c.Range())
	rngSum := d.rng.Summary(c.Range())
	d.volume.Add(float64(c.Volume))
	d.rng.Add(c.Range())

	if c.Range() < d.cfg.MinRangePoints {
		return nil, d.reject(RejectRangeTooSmall)
	}
	if d.hasEmit && c.Timestamp.Sub(d.lastEmit) < d.cfg.Cooldown {
		return nil, d.reject(RejectCooldown)
	}
	if !d.cfg.allowed(info.Session) || info.MarketClosed {
		return nil, d.reject(RejectSession)
	}
	if volZ < d.cfg.VolumeZ {
		return nil, d.reject(RejectVolumeZ)
	}
	if rngZ < d.cfg.RangeZ {
		return nil, d.reject(RejectRangeZ)
	}

	// One wick must strictly dominate; an exact tie carries no rejection
	// direction.
	upper, lower := c.UpperWickRatio(), c.LowerWickRatio()
	if upper == lower {
		return nil, d.reject(RejectWick)
	}
	var wick models.WickInfo
	var side models.SweepSide
	if upper > lower {
		wick = models.WickInfo{Side: "upper", Ratio: upper, Points: c.High - c.BodyHigh()}
		side = models.SweepBearish
	} else {
		wick = models.WickInfo{Side: "lower", Ratio: lower, Points: c.BodyLow() - c.Low}
		side = models.SweepBullish
	}
	if wick.Ratio < d.cfg.MinWickRatio {
		return nil, d.reject(RejectWick)
	}

	level, ok := d.sweptLevel(c, side, levels)
	if !ok {
		return nil, d.reject(RejectNoLevel)
	}

	d.lastEmit = c.Timestamp
	d.hasEmit = true
	return &models.SweepEvent{
		Type:        side,
		Symbol:      c.Symbol,
		Timestamp:   c.Timestamp,
		Open:        c.Open,
		High:        c.High,
		Low:         c.Low,
		Close:       c.Close,
		Volume:      c.Volume,
		Wick:        wick,
		Level:       level,
		VolumeSpike: volSum,
		RangeSpike:  rngSum,
		Confidence:  d.confidence(wick.Ratio, volZ, level.Strength),
	}, ""
}

// sweptLevel finds the strongest level the candle swept. Bearish: the candle
// probed at or above the level but opened and closed below it. Bullish is the
// mirror image. Levels arrive strongest-first from the registry.
func (d *Sweep) sweptLevel(c models.Candle, side models.SweepSide, levels []models.TrackedLevel) (models.TrackedLevel, bool) {
	tol := d.cfg.LevelTolerance
	for _, lv := range levels {
		switch side {
		case models.SweepBearish:
			if c.High >= lv.Price-tol && c.Close < lv.Price && c.Open < lv.Price {
				return lv, true
			}
		case models.SweepBullish:
			if c.Low <= lv.Price+tol && c.Close > lv.Price && c.Open > lv.Price {
				return lv, true
			}
		}
	}
	return models.TrackedLevel{}, false
}

// confidence starts at 0.5 and earns up to 0.20 from wick dominance beyond
// the minimum, 0.20 from volume anomaly beyond the threshold, and 0.10 from
// level strength, capped at 1.0.
func (d *Sweep) confidence(wickRatio, volZ float64, strength int) float64 {
	conf := 0.5

	if span := 1 - d.cfg.MinWickRatio; span > 0 {
		w := (wickRatio - d.cfg.MinWickRatio) / span
		if w > 1 {
			w = 1
		}
		if w > 0 {
			conf += 0.20 * w
		}
	}

	if d.cfg.VolumeZ > 0 {
		v := (volZ - d.cfg.VolumeZ) / d.cfg.VolumeZ
		if v > 1 {
			v = 1
		}
		if v > 0 {
			conf += 0.20 * v
		}
	}

	s := float64(strength) / 5
	if s > 1 {
		s = 1
	}
	conf += 0.10 * s

	if conf > 1 {
		conf = 1
	}
	return conf
}

func (d *Sweep) reject(reason string) string {
	d.rejects[reason]++
	return reason
}

// RejectionCounts returns a copy of the per-reason rejection tallies.
func (d *Sweep) RejectionCounts() map[string]int {
	out := make(map[string]int, len(d.rejects))
	for k, v := range d.rejects {
		out[k] = v
	}
	return out
}
