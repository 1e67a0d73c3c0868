package repository

import "time"

// Timeframe is the candle aggregation interval used by stores and the API.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
)

var timeframeDurations = map[Timeframe]time.Duration{
	TF1m:  time.Minute,
	TF15m: 15 * time.Minute,
	TF1h:  time.Hour,
}

func IsValidTimeframe(tf string) bool {
	_, ok := timeframeDurations[Timeframe(tf)]
	return ok
}

// NormalizeTimeframe maps an empty or unknown value to the 1-minute default.
func NormalizeTimeframe(tf string) Timeframe {
	if IsValidTimeframe(tf) {
		return Timeframe(tf)
	}
	return TF1m
}

// Duration returns the wall-clock span of one candle at this timeframe.
func (tf Timeframe) Duration() time.Duration {
	if d, ok := timeframeDurations[tf]; ok {
		return d
	}
	return time.Minute
}
