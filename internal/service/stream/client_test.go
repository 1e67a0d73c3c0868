package stream

import (
	"testing"
	"time"

	"SweepSim/internal/domain/models"
)

func ms(t time.Time) int64 { return t.UnixMilli() }

func TestAbsorbAggregatesMinuteCandles(t *testing.T) {
	c := &Client{current: make(map[string]*models.Candle)}
	base := time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC)

	if got := c.absorb(wsTick{S: "ES", P: 5000, V: 2, T: ms(base.Add(5 * time.Second))}); got != nil {
		t.Fatalf("first tick should not finish a candle, got %+v", got)
	}
	if got := c.absorb(wsTick{S: "ES", P: 5003, V: 1, T: ms(base.Add(20 * time.Second))}); got != nil {
		t.Fatalf("same-minute tick should not finish a candle, got %+v", got)
	}
	if got := c.absorb(wsTick{S: "ES", P: 4998, V: 3, T: ms(base.Add(40 * time.Second))}); got != nil {
		t.Fatalf("same-minute tick should not finish a candle, got %+v", got)
	}

	finished := c.absorb(wsTick{S: "ES", P: 5001, V: 4, T: ms(base.Add(65 * time.Second))})
	if finished == nil {
		t.Fatal("minute rollover should emit the finished candle")
	}
	if !finished.Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", finished.Timestamp, base)
	}
	if finished.Open != 5000 || finished.High != 5003 || finished.Low != 4998 || finished.Close != 4998 {
		t.Errorf("ohlc = %v/%v/%v/%v, want 5000/5003/4998/4998",
			finished.Open, finished.High, finished.Low, finished.Close)
	}
	if finished.Volume != 6 {
		t.Errorf("volume = %d, want 6", finished.Volume)
	}
}

func TestAbsorbKeepsSymbolsSeparate(t *testing.T) {
	c := &Client{current: make(map[string]*models.Candle)}
	base := time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC)

	c.absorb(wsTick{S: "ES", P: 5000, V: 1, T: ms(base)})
	c.absorb(wsTick{S: "NQ", P: 18000, V: 1, T: ms(base)})

	finished := c.absorb(wsTick{S: "ES", P: 5002, V: 1, T: ms(base.Add(time.Minute))})
	if finished == nil || finished.Symbol != "ES" {
		t.Fatalf("expected finished ES candle, got %+v", finished)
	}
	if c.current["NQ"] == nil || c.current["NQ"].Close != 18000 {
		t.Fatal("NQ candle should be untouched by ES rollover")
	}
}
