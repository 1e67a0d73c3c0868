package models

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV observation. Candles are immutable once
// produced; the pipeline hands out copies, never shared pointers.
type Candle struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Range returns high - low.
func (c Candle) Range() float64 { return c.High - c.Low }

// Body returns the absolute body size.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

func (c Candle) IsBullish() bool { return c.Close > c.Open }
func (c Candle) IsBearish() bool { return c.Close < c.Open }

// BodyHigh returns max(open, close).
func (c Candle) BodyHigh() float64 {
	if c.Open > c.Close {
		return c.Open
	}
	return c.Close
}

// BodyLow returns min(open, close).
func (c Candle) BodyLow() float64 {
	if c.Open < c.Close {
		return c.Open
	}
	return c.Close
}

// UpperWickRatio returns (high - max(open,close)) / range, 0 for zero-range candles.
func (c Candle) UpperWickRatio() float64 {
	r := c.Range()
	if r <= 0 {
		return 0
	}
	return (c.High - c.BodyHigh()) / r
}

// LowerWickRatio returns (min(open,close) - low) / range, 0 for zero-range candles.
func (c Candle) LowerWickRatio() float64 {
	r := c.Range()
	if r <= 0 {
		return 0
	}
	return (c.BodyLow() - c.Low) / r
}

// IsDegenerate reports a zero-range candle (open=high=low=close). These carry
// no wick or range information and are filtered at the stream boundary.
func (c Candle) IsDegenerate() bool {
	return c.Open == c.High && c.High == c.Low && c.Low == c.Close
}

// Validate checks OHLC consistency: low <= min(o,c) <= max(o,c) <= high.
func (c Candle) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("candle symbol empty")
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("candle timestamp zero")
	}
	if c.High < c.Low {
		return fmt.Errorf("candle high %.4f below low %.4f", c.High, c.Low)
	}
	if c.BodyLow() < c.Low || c.BodyHigh() > c.High {
		return fmt.Errorf("candle body outside high/low bounds")
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle volume negative")
	}
	return nil
}
