package detect

import (
	"fmt"
	"math"
	"time"

	"SweepSim/internal/domain/models"
	"SweepSim/internal/services/stats"
)

// Rejection reasons reported by the burst detector.
const (
	RejectInsufficientData = "insufficient_data"
	RejectNoWindow         = "no_window_triggered"
	RejectDirectionSplit   = "direction_conflict"
	RejectVelocityZ        = "velocity_below_threshold"
)

// BurstConfig tunes the momentum-burst detector.
type BurstConfig struct {
	Windows        []time.Duration `yaml:"windows"`
	BaselineWindow time.Duration   `yaml:"baseline_window" default:"15m"`
	MinCandles     int             `yaml:"min_candles" default:"3"`
	MinSamples     int             `yaml:"min_samples" default:"20"`
	MinVelocity    float64         `yaml:"min_velocity" default:"0.05"`
	VelocityZ      float64         `yaml:"velocity_z" default:"2.0"`
	MinEfficiency  float64         `yaml:"min_efficiency" default:"0.6"`
	MinClosePos    float64         `yaml:"min_close_position" default:"0.7"`
	MinTickRatio   float64         `yaml:"min_tick_ratio" default:"0.6"`
	MinVolumeRatio float64         `yaml:"min_volume_ratio" default:"1.2"`
	Cooldown       time.Duration   `yaml:"cooldown" default:"60s"`
	TrackerUpdate  time.Duration   `yaml:"tracker_update" default:"0s"`
	Sessions       []string        `yaml:"sessions"`

	sessions map[models.Session]bool
}

// Validate rejects tunable combinations that cannot work.
func (c BurstConfig) Validate() error {
	for _, w := range c.Windows {
		if w <= 0 {
			return fmt.Errorf("windows entries must be positive, got %s", w)
		}
	}
	if c.BaselineWindow < 0 {
		return fmt.Errorf("baseline_window cannot be negative")
	}
	if c.MinCandles < 0 {
		return fmt.Errorf("min_candles cannot be negative")
	}
	if c.MinSamples < 0 {
		return fmt.Errorf("min_samples cannot be negative")
	}
	if c.MinVelocity < 0 || c.VelocityZ < 0 {
		return fmt.Errorf("min_velocity and velocity_z cannot be negative")
	}
	if c.MinEfficiency < 0 || c.MinEfficiency > 1 {
		return fmt.Errorf("min_efficiency must be in [0,1]")
	}
	if c.MinClosePos < 0 || c.MinClosePos > 1 {
		return fmt.Errorf("min_close_position must be in [0,1]")
	}
	if c.MinTickRatio < 0 || c.MinTickRatio > 1 {
		return fmt.Errorf("min_tick_ratio must be in [0,1]")
	}
	if c.MinVolumeRatio < 0 {
		return fmt.Errorf("min_volume_ratio cannot be negative")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown cannot be negative")
	}
	return nil
}

func (c *BurstConfig) allowed(s models.Session) bool {
	if c.sessions == nil {
		c.sessions = make(map[models.Session]bool, len(c.Sessions))
		for _, name := range c.Sessions {
			c.sessions[models.Session(name)] = true
		}
	}
	if len(c.sessions) == 0 {
		return s == models.SessionRTH || s == models.SessionPremarket
	}
	return c.sessions[s]
}

type windowMetrics struct {
	window     time.Duration
	velocity   float64
	efficiency float64
	closePos   float64
	tickRatio  float64
	volRatio   float64 // second-half vs first-half volume, reported on events
	baseRatio  float64 // window volume rate vs the background rate, gated on
	direction  models.BurstDirection
}

// Burst detects momentum bursts: sustained one-directional moves confirmed
// across one or more lookback windows by velocity, path efficiency, close
// position, tick agreement, and accelerating volume. The detector owns its
// candle buffer; callers just feed finished candles in order.
type Burst struct {
	cfg      BurstConfig
	buf      []models.Candle
	velStats stats.Tracker
	lastStat time.Time
	lastEmit time.Time
	hasEmit  bool
	rejects  map[string]int
}

func NewBurst(cfg BurstConfig) *Burst {
	if len(cfg.Windows) == 0 {
		cfg.Windows = []time.Duration{time.Minute, 3 * time.Minute, 5 * time.Minute}
	}
	if cfg.MinCandles < 3 {
		cfg.MinCandles = 3
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 20
	}
	if cfg.BaselineWindow <= 0 {
		cfg.BaselineWindow = 15 * time.Minute
	}
	return &Burst{
		cfg:      cfg,
		velStats: stats.NewWelfordMin(cfg.MinSamples),
		rejects:  make(map[string]int),
	}
}

func (d *Burst) maxWindow() time.Duration {
	max := d.cfg.Windows[0]
	for _, w := range d.cfg.Windows[1:] {
		if w > max {
			max = w
		}
	}
	return max
}

// OnCandle evaluates momentum as of one finished candle.
func (d *Burst) OnCandle(c models.Candle, info models.SessionInfo) (*models.BurstEvent, string) {
	d.buf = append(d.buf, c)
	d.prune(c.Timestamp)
	baseRate := d.baselineRate(c.Timestamp)

	var triggered []windowMetrics
	var widest windowMetrics
	haveAny := false
	for _, w := range d.cfg.Windows {
		m, ok := d.metricsFor(w, c.Timestamp, baseRate)
		if !ok {
			continue
		}
		haveAny = true
		if math.Abs(m.velocity) > math.Abs(widest.velocity) {
			widest = m
		}
		if d.windowTriggers(m) {
			triggered = append(triggered, m)
		}
	}

	// The velocity baseline learns from every candle with at least one
	// computable window, throttled so bursty feeds do not flood it. The
	// sample count before this candle is the warm-up gate below.
	samples := d.velStats.Count()
	if haveAny && (d.cfg.TrackerUpdate <= 0 || c.Timestamp.Sub(d.lastStat) >= d.cfg.TrackerUpdate) {
		d.velStats.Add(math.Abs(widest.velocity))
		d.lastStat = c.Timestamp
	}

	if !haveAny {
		return nil, d.reject(RejectInsufficientData)
	}
	// Refuse to signal on a thin baseline no matter how extreme the move.
	if samples < d.cfg.MinSamples {
		return nil, d.reject(RejectInsufficientData)
	}
	if d.hasEmit && c.Timestamp.Sub(d.lastEmit) < d.cfg.Cooldown {
		return nil, d.reject(RejectCooldown)
	}
	if !d.cfg.allowed(info.Session) || info.MarketClosed {
		return nil, d.reject(RejectSession)
	}
	if len(triggered) == 0 {
		return nil, d.reject(RejectNoWindow)
	}

	dir := triggered[0].direction
	for _, m := range triggered[1:] {
		if m.direction != dir {
			return nil, d.reject(RejectDirectionSplit)
		}
	}

	// Primary window is the strongest absolute velocity among triggers.
	best := triggered[0]
	windows := make([]time.Duration, 0, len(triggered))
	for _, m := range triggered {
		windows = append(windows, m.window)
		if math.Abs(m.velocity) > math.Abs(best.velocity) {
			best = m
		}
	}

	if d.cfg.VelocityZ > 0 {
		if z := d.velStats.ZScore(math.Abs(best.velocity)); z < d.cfg.VelocityZ {
			return nil, d.reject(RejectVelocityZ)
		}
	}

	d.lastEmit = c.Timestamp
	d.hasEmit = true
	return &models.BurstEvent{
		Direction:          dir,
		Symbol:             c.Symbol,
		Timestamp:          c.Timestamp,
		Price:              c.Close,
		WindowsTriggered:   windows,
		BestWindow:         best.window,
		Velocity:           best.velocity,
		VolumeRatio:        best.volRatio,
		Efficiency:         best.efficiency,
		ClosePosition:      best.closePos,
		TickDirectionRatio: best.tickRatio,
	}, ""
}

func (d *Burst) windowTriggers(m windowMetrics) bool {
	if math.Abs(m.velocity) < d.cfg.MinVelocity {
		return false
	}
	if m.efficiency < d.cfg.MinEfficiency {
		return false
	}
	if m.direction == models.BurstLong && m.closePos < d.cfg.MinClosePos {
		return false
	}
	if m.direction == models.BurstShort && m.closePos > 1-d.cfg.MinClosePos {
		return false
	}
	if m.tickRatio < d.cfg.MinTickRatio {
		return false
	}
	if m.baseRatio < d.cfg.MinVolumeRatio {
		return false
	}
	return true
}

// baselineRate is the background volume rate in contracts per second,
// measured over the buffered candles older than the widest detection window.
func (d *Burst) baselineRate(now time.Time) float64 {
	cut := now.Add(-d.maxWindow())
	var vol int64
	var first, last time.Time
	n := 0
	for _, c := range d.buf {
		if c.Timestamp.After(cut) {
			break
		}
		if n == 0 {
			first = c.Timestamp
		}
		last = c.Timestamp
		vol += c.Volume
		n++
	}
	if n < 2 {
		return 0
	}
	span := last.Sub(first).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(vol) / span
}

// metricsFor computes window metrics over the buffered candles inside
// (now-window, now]. Returns ok=false when the window holds too few candles
// or spans no time.
func (d *Burst) metricsFor(w time.Duration, now time.Time, baseRate float64) (windowMetrics, bool) {
	cut := now.Add(-w)
	start := len(d.buf)
	for i := len(d.buf) - 1; i >= 0; i-- {
		if !d.buf[i].Timestamp.After(cut) {
			break
		}
		start = i
	}
	win := d.buf[start:]
	if len(win) < d.cfg.MinCandles {
		return windowMetrics{}, false
	}

	first, last := win[0], win[len(win)-1]
	span := last.Timestamp.Sub(first.Timestamp).Seconds()
	if span <= 0 {
		return windowMetrics{}, false
	}
	net := last.Close - first.Open

	// Path efficiency: how much of the traveled distance was the net move.
	path := math.Abs(first.Close - first.Open)
	hi, lo := first.High, first.Low
	upTicks, downTicks := 0, 0
	firstVol, secondVol := int64(0), int64(0)
	half := len(win) / 2
	for i, c := range win {
		if i > 0 {
			step := c.Close - win[i-1].Close
			path += math.Abs(step)
			if step > 0 {
				upTicks++
			} else if step < 0 {
				downTicks++
			}
		}
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
		if i < half {
			firstVol += c.Volume
		} else {
			secondVol += c.Volume
		}
	}

	m := windowMetrics{window: w, velocity: net / span}
	if path > 0 {
		m.efficiency = math.Abs(net) / path
	}
	if r := hi - lo; r > 0 {
		m.closePos = (last.Close - lo) / r
	}
	ticks := upTicks + downTicks
	if net >= 0 {
		m.direction = models.BurstLong
		if ticks > 0 {
			m.tickRatio = float64(upTicks) / float64(ticks)
		}
	} else {
		m.direction = models.BurstShort
		if ticks > 0 {
			m.tickRatio = float64(downTicks) / float64(ticks)
		}
	}
	if firstVol > 0 {
		m.volRatio = float64(secondVol) / float64(firstVol)
	}
	if baseRate > 0 {
		m.baseRatio = float64(firstVol+secondVol) / span / baseRate
	}
	return m, true
}

// prune drops candles past the widest window plus the baseline region that
// feeds the background volume rate.
func (d *Burst) prune(now time.Time) {
	cut := now.Add(-(d.maxWindow() + d.cfg.BaselineWindow))
	i := 0
	for i < len(d.buf) && !d.buf[i].Timestamp.After(cut) {
		i++
	}
	if i > 0 {
		d.buf = append(d.buf[:0], d.buf[i:]...)
	}
}

func (d *Burst) reject(reason string) string {
	d.rejects[reason]++
	return reason
}

func (d *Burst) RejectionCounts() map[string]int {
	out := make(map[string]int, len(d.rejects))
	for k, v := range d.rejects {
		out[k] = v
	}
	return out
}
