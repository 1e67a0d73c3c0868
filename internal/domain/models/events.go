package models

import "time"

// SweepSide is the direction a liquidity sweep resolves in: a bullish sweep
// spikes below a level and closes back above it, a bearish sweep mirrors.
type SweepSide string

const (
	SweepBullish SweepSide = "bullish"
	SweepBearish SweepSide = "bearish"
)

// WickInfo describes the dominant rejection wick of a sweep candle.
type WickInfo struct {
	Side   string  `json:"side"` // "upper" or "lower"
	Ratio  float64 `json:"ratio"`
	Points float64 `json:"points"`
}

// AnomalySummary is a point-in-time view of one rolling tracker at the moment
// an event fired.
type AnomalySummary struct {
	Value  float64 `json:"value"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	ZScore float64 `json:"z_score"`
	Count  int     `json:"count"`
}

// SweepEvent is emitted once per qualifying candle and is immutable after
// creation.
type SweepEvent struct {
	Type        SweepSide      `json:"type"`
	Symbol      string         `json:"symbol"`
	Timestamp   time.Time      `json:"timestamp"`
	Open        float64        `json:"open"`
	High        float64        `json:"high"`
	Low         float64        `json:"low"`
	Close       float64        `json:"close"`
	Volume      int64          `json:"volume"`
	Wick        WickInfo       `json:"wick"`
	Level       TrackedLevel   `json:"level"`
	VolumeSpike AnomalySummary `json:"volume_spike"`
	RangeSpike  AnomalySummary `json:"range_spike"`
	Confidence  float64        `json:"confidence"` // [0,1]
}

// BurstDirection is the trade direction a momentum burst points at.
type BurstDirection string

const (
	BurstLong  BurstDirection = "long"
	BurstShort BurstDirection = "short"
)

// BurstEvent is emitted when at least one window of the momentum detector
// triggers. WindowsTriggered carries every agreeing window so callers can
// apply multi-window confirmation as a policy.
type BurstEvent struct {
	Direction          BurstDirection  `json:"direction"`
	Symbol             string          `json:"symbol"`
	Timestamp          time.Time       `json:"timestamp"`
	Price              float64         `json:"price"`
	WindowsTriggered   []time.Duration `json:"windows_triggered"`
	BestWindow         time.Duration   `json:"best_window"`
	Velocity           float64         `json:"velocity"` // points per second, signed
	VolumeRatio        float64         `json:"volume_ratio"`
	Efficiency         float64         `json:"efficiency"`     // [0,1], 1 = perfectly directional
	ClosePosition      float64         `json:"close_position"` // [0,1] within window range
	TickDirectionRatio float64         `json:"tick_direction_ratio"`
}
