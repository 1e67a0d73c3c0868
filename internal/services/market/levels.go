package market

import (
	"fmt"
	"sort"
	"time"

	"SweepSim/internal/domain/models"
)

// Strength ranks for competing levels. When one candle sweeps several levels
// the detector attributes the event to the strongest.
const (
	strengthOptionsWall  = 5
	strengthOptionsBand  = 4
	strengthPriorDay     = 3
	strengthSessionOpen  = 2
	strengthSessionRange = 1
)

type sessionExtremes struct {
	high, low float64
	set       bool
}

func (e *sessionExtremes) update(c models.Candle) {
	if !e.set {
		e.high, e.low, e.set = c.High, c.Low, true
		return
	}
	if c.High > e.high {
		e.high = c.High
	}
	if c.Low < e.low {
		e.low = c.Low
	}
}

// Registry maintains the live set of price levels a sweep can target:
// session-derived extremes, prior-day anchors, and externally supplied
// options levels. It is driven candle-by-candle from a single goroutine.
type Registry struct {
	curSession models.Session
	started    bool

	overnight sessionExtremes
	premarket sessionExtremes
	rth       sessionExtremes
	rthOpen   float64
	rthClose  float64

	priorHigh  float64
	priorLow   float64
	priorClose float64
	priorSet   bool

	options    *models.LevelSnapshot
	optionsAge time.Time
}

func NewRegistry() *Registry {
	return &Registry{}
}

// OnCandle folds one candle into the session accumulators, rolling them over
// on session transitions. Call before detection so the level set already
// reflects the current session.
func (r *Registry) OnCandle(c models.Candle, info models.SessionInfo) {
	if !r.started || info.Session != r.curSession {
		r.transition(info.Session)
		r.started = true
	}

	switch info.Session {
	case models.SessionOvernight:
		if !info.MarketClosed {
			r.overnight.update(c)
		}
	case models.SessionPremarket:
		r.premarket.update(c)
	case models.SessionRTH:
		if !r.rth.set {
			r.rthOpen = c.Open
		}
		r.rth.update(c)
		r.rthClose = c.Close
	}
}

func (r *Registry) transition(next models.Session) {
	switch next {
	case models.SessionOvernight:
		// New trading day: the finished RTH range becomes tomorrow's
		// prior-day anchor set.
		if r.rth.set {
			r.priorHigh, r.priorLow, r.priorClose = r.rth.high, r.rth.low, r.rthClose
			r.priorSet = true
		}
		r.overnight = sessionExtremes{}
		r.premarket = sessionExtremes{}
	case models.SessionPremarket:
		r.premarket = sessionExtremes{}
	case models.SessionRTH:
		r.rth = sessionExtremes{}
		r.rthOpen, r.rthClose = 0, 0
	}
	r.curSession = next
}

// ApplySnapshot installs an options-level snapshot. Snapshots land on
// 15-minute buckets and hold until replaced; values are discrete decisions,
// never interpolated between buckets.
func (r *Registry) ApplySnapshot(s *models.LevelSnapshot) {
	if s == nil {
		return
	}
	if r.options != nil && !s.Timestamp.After(r.optionsAge) {
		return
	}
	r.options = s
	r.optionsAge = s.Timestamp
}

// Regime returns the gamma regime of the active options snapshot, or the
// empty string when no snapshot has been seen.
func (r *Registry) Regime() string {
	if r.options == nil {
		return ""
	}
	return r.options.Regime
}

// Active returns the current tracked level set, strongest first.
func (r *Registry) Active() []models.TrackedLevel {
	out := make([]models.TrackedLevel, 0, 16)
	add := func(class models.LevelClass, label string, price float64, strength int) {
		if price <= 0 {
			return
		}
		out = append(out, models.TrackedLevel{Class: class, Label: label, Price: price, Strength: strength})
	}

	if r.options != nil {
		add(models.LevelOptionsDerived, models.LabelGammaFlip, r.options.GammaFlip, strengthOptionsWall)
		add(models.LevelOptionsDerived, models.LabelCallWall, r.options.CallWall, strengthOptionsWall)
		add(models.LevelOptionsDerived, models.LabelPutWall, r.options.PutWall, strengthOptionsWall)
		for i, p := range r.options.Resistance {
			add(models.LevelOptionsDerived, fmt.Sprintf("%s_%d", models.LabelResistance, i), p, strengthOptionsBand)
		}
		for i, p := range r.options.Support {
			add(models.LevelOptionsDerived, fmt.Sprintf("%s_%d", models.LabelSupport, i), p, strengthOptionsBand)
		}
	}

	if r.priorSet {
		add(models.LevelSessionDerived, models.LabelPriorDayHigh, r.priorHigh, strengthPriorDay)
		add(models.LevelSessionDerived, models.LabelPriorDayLow, r.priorLow, strengthPriorDay)
		add(models.LevelSessionDerived, models.LabelPriorDayClose, r.priorClose, strengthPriorDay)
	}
	if r.rth.set {
		add(models.LevelSessionDerived, models.LabelRTHOpen, r.rthOpen, strengthSessionOpen)
	}
	if r.overnight.set {
		add(models.LevelSessionDerived, models.LabelOvernightHigh, r.overnight.high, strengthSessionRange)
		add(models.LevelSessionDerived, models.LabelOvernightLow, r.overnight.low, strengthSessionRange)
	}
	if r.premarket.set {
		add(models.LevelSessionDerived, models.LabelPremarketHigh, r.premarket.high, strengthSessionRange)
		add(models.LevelSessionDerived, models.LabelPremarketLow, r.premarket.low, strengthSessionRange)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out
}

// Nearest returns the level closest to price within tolerance. Strength
// breaks ties because Active is strongest-first and the scan keeps the
// earlier hit on equal distance.
func (r *Registry) Nearest(price, tolerance float64) (models.TrackedLevel, bool) {
	var best models.TrackedLevel
	bestDist := tolerance
	found := false
	for _, lv := range r.Active() {
		d := lv.Price - price
		if d < 0 {
			d = -d
		}
		if d < bestDist || (!found && d == bestDist) {
			best, bestDist, found = lv, d, true
		}
	}
	return best, found
}

// Near returns all levels within tolerance of price, strongest first.
func (r *Registry) Near(price, tolerance float64) []models.TrackedLevel {
	var out []models.TrackedLevel
	for _, lv := range r.Active() {
		d := lv.Price - price
		if d < 0 {
			d = -d
		}
		if d <= tolerance {
			out = append(out, lv)
		}
	}
	return out
}

// Swept returns the levels this candle swept in either direction, strongest
// first: the candle probed through the level but opened and closed on the
// original side.
func (r *Registry) Swept(c models.Candle, tolerance float64) []models.TrackedLevel {
	var out []models.TrackedLevel
	for _, lv := range r.Active() {
		bearish := c.High >= lv.Price-tolerance && c.Close < lv.Price && c.Open < lv.Price
		bullish := c.Low <= lv.Price+tolerance && c.Close > lv.Price && c.Open > lv.Price
		if bearish || bullish {
			out = append(out, lv)
		}
	}
	return out
}
