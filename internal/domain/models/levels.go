package models

import "time"

// LevelClass distinguishes levels the registry derives from the session
// structure itself from levels supplied by an external options snapshot.
type LevelClass string

const (
	LevelSessionDerived LevelClass = "session"
	LevelOptionsDerived LevelClass = "options"
)

// Well-known level labels. Strength ranks break ties when one candle sweeps
// several levels at once: options walls outrank prior-day anchors, which
// outrank intra-session extremes.
const (
	LabelGammaFlip     = "gamma_flip"
	LabelCallWall      = "call_wall"
	LabelPutWall       = "put_wall"
	LabelResistance    = "resistance" // suffixed with rank index, e.g. resistance_0
	LabelSupport       = "support"
	LabelPriorDayHigh  = "prior_day_high"
	LabelPriorDayLow   = "prior_day_low"
	LabelPriorDayClose = "prior_day_close"
	LabelRTHOpen       = "rth_open"
	LabelOvernightHigh = "overnight_high"
	LabelOvernightLow  = "overnight_low"
	LabelPremarketHigh = "premarket_high"
	LabelPremarketLow  = "premarket_low"
)

// TrackedLevel is one price level currently held by the registry. Detectors
// receive copies; the registry owns the live set.
type TrackedLevel struct {
	Class    LevelClass
	Label    string
	Price    float64
	Strength int // higher outranks lower
}

// LevelSnapshot is one externally computed options-level record, keyed by a
// 15-minute bucket. Missing buckets hold the last known snapshot; values are
// discrete decisions and are never interpolated.
type LevelSnapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	Spot       float64   `json:"spot"`
	Regime     string    `json:"regime"` // positive | negative | neutral (+ strong_ variants)
	GammaFlip  float64   `json:"gamma_flip"`
	CallWall   float64   `json:"call_wall"`
	PutWall    float64   `json:"put_wall"`
	Resistance []float64 `json:"resistance"`
	Support    []float64 `json:"support"`
}
