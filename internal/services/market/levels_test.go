package market

import (
	"testing"
	"time"

	"SweepSim/internal/domain/models"
)

func candleAt(ts time.Time, o, h, l, c float64) models.Candle {
	return models.Candle{Timestamp: ts, Symbol: "ES", Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func feed(r *Registry, c models.Candle) {
	r.OnCandle(c, Classify(c.Timestamp))
}

func findLevel(levels []models.TrackedLevel, label string) (models.TrackedLevel, bool) {
	for _, lv := range levels {
		if lv.Label == label {
			return lv, true
		}
	}
	return models.TrackedLevel{}, false
}

func TestRegistrySessionExtremes(t *testing.T) {
	r := NewRegistry()
	// Overnight candles, Tuesday 2024-06-11 03:00-03:02 ET.
	feed(r, candleAt(utc(2024, time.June, 11, 7, 0), 5000, 5010, 4995, 5005))
	feed(r, candleAt(utc(2024, time.June, 11, 7, 1), 5005, 5020, 5000, 5015))
	// Premarket, 08:30 ET.
	feed(r, candleAt(utc(2024, time.June, 11, 12, 30), 5015, 5025, 5012, 5020))

	levels := r.Active()
	if lv, ok := findLevel(levels, models.LabelOvernightHigh); !ok || lv.Price != 5020 {
		t.Fatalf("overnight high = %+v, ok=%v, want 5020", lv, ok)
	}
	if lv, ok := findLevel(levels, models.LabelOvernightLow); !ok || lv.Price != 4995 {
		t.Fatalf("overnight low = %+v, ok=%v, want 4995", lv, ok)
	}
	if lv, ok := findLevel(levels, models.LabelPremarketHigh); !ok || lv.Price != 5025 {
		t.Fatalf("premarket high = %+v, ok=%v, want 5025", lv, ok)
	}
	// Fresh accumulator: the premarket low must not inherit the overnight low.
	if lv, ok := findLevel(levels, models.LabelPremarketLow); !ok || lv.Price != 5012 {
		t.Fatalf("premarket low = %+v, ok=%v, want 5012", lv, ok)
	}
}

func TestRegistryRTHOpenAndPriorDayArchive(t *testing.T) {
	r := NewRegistry()
	// RTH, Tuesday 09:30-09:32 ET.
	feed(r, candleAt(utc(2024, time.June, 11, 13, 30), 5030, 5040, 5028, 5035))
	feed(r, candleAt(utc(2024, time.June, 11, 13, 31), 5035, 5055, 5025, 5050))

	levels := r.Active()
	if lv, ok := findLevel(levels, models.LabelRTHOpen); !ok || lv.Price != 5030 {
		t.Fatalf("rth open = %+v, ok=%v, want 5030", lv, ok)
	}
	if _, ok := findLevel(levels, models.LabelPriorDayHigh); ok {
		t.Fatal("prior day should not exist before the first rollover")
	}

	// Afterhours then overnight: the finished RTH range becomes prior day.
	feed(r, candleAt(utc(2024, time.June, 11, 20, 30), 5050, 5052, 5048, 5049))
	feed(r, candleAt(utc(2024, time.June, 11, 22, 30), 5049, 5051, 5047, 5048))

	levels = r.Active()
	if lv, ok := findLevel(levels, models.LabelPriorDayHigh); !ok || lv.Price != 5055 {
		t.Fatalf("prior day high = %+v, ok=%v, want 5055", lv, ok)
	}
	if lv, ok := findLevel(levels, models.LabelPriorDayLow); !ok || lv.Price != 5025 {
		t.Fatalf("prior day low = %+v, ok=%v, want 5025", lv, ok)
	}
	if lv, ok := findLevel(levels, models.LabelPriorDayClose); !ok || lv.Price != 5050 {
		t.Fatalf("prior day close = %+v, ok=%v, want 5050", lv, ok)
	}
}

func TestRegistrySnapshotHoldAndOrdering(t *testing.T) {
	r := NewRegistry()
	first := &models.LevelSnapshot{
		Timestamp: utc(2024, time.June, 11, 13, 30),
		Regime:    "positive",
		GammaFlip: 5000, CallWall: 5100, PutWall: 4900,
		Resistance: []float64{5080}, Support: []float64{4950},
	}
	r.ApplySnapshot(first)
	if r.Regime() != "positive" {
		t.Fatalf("regime = %q, want positive", r.Regime())
	}

	// A stale snapshot must not replace a newer one.
	r.ApplySnapshot(&models.LevelSnapshot{Timestamp: utc(2024, time.June, 11, 13, 15), Regime: "negative", GammaFlip: 1})
	if r.Regime() != "positive" {
		t.Fatal("stale snapshot replaced a newer one")
	}

	levels := r.Active()
	if lv, ok := findLevel(levels, models.LabelCallWall); !ok || lv.Price != 5100 {
		t.Fatalf("call wall = %+v, ok=%v", lv, ok)
	}
	if lv, ok := findLevel(levels, "resistance_0"); !ok || lv.Price != 5080 {
		t.Fatalf("resistance_0 = %+v, ok=%v", lv, ok)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Strength > levels[i-1].Strength {
			t.Fatalf("levels not sorted by strength: %+v", levels)
		}
	}
}

func TestRegistryOvernightResetNextDay(t *testing.T) {
	r := NewRegistry()
	// Monday overnight.
	feed(r, candleAt(utc(2024, time.June, 10, 7, 0), 5000, 5100, 4900, 5000))
	// Monday RTH.
	feed(r, candleAt(utc(2024, time.June, 10, 14, 0), 5000, 5005, 4995, 5002))
	// Tuesday overnight: Monday's overnight range must be gone.
	feed(r, candleAt(utc(2024, time.June, 10, 23, 0), 5002, 5010, 5001, 5008))

	levels := r.Active()
	lv, ok := findLevel(levels, models.LabelOvernightHigh)
	if !ok || lv.Price != 5010 {
		t.Fatalf("overnight high after rollover = %+v, ok=%v, want 5010", lv, ok)
	}
}

func TestRegistryNearestAndNear(t *testing.T) {
	r := NewRegistry()
	r.ApplySnapshot(&models.LevelSnapshot{
		Timestamp: utc(2024, time.June, 11, 13, 30),
		Regime:    "positive",
		GammaFlip: 5000, CallWall: 5010, PutWall: 4900,
	})

	lv, ok := r.Nearest(5008, 5)
	if !ok || lv.Label != models.LabelCallWall {
		t.Fatalf("nearest(5008, 5) = %+v, ok=%v, want call wall", lv, ok)
	}
	if _, ok := r.Nearest(5050, 5); ok {
		t.Fatal("nearest(5050, 5) should find nothing")
	}

	near := r.Near(5005, 6)
	if len(near) != 2 {
		t.Fatalf("near(5005, 6) = %+v, want gamma flip and call wall", near)
	}
}

func TestRegistrySwept(t *testing.T) {
	r := NewRegistry()
	r.ApplySnapshot(&models.LevelSnapshot{
		Timestamp: utc(2024, time.June, 11, 13, 30),
		Regime:    "positive",
		CallWall:  5010, PutWall: 4900,
	})

	// Probes above the call wall, opens and closes below it.
	swept := r.Swept(candleAt(utc(2024, time.June, 11, 14, 0), 5000, 5012, 4999, 5001), 1)
	if len(swept) != 1 || swept[0].Label != models.LabelCallWall {
		t.Fatalf("swept = %+v, want call wall only", swept)
	}

	// Closes above the level: not a sweep.
	swept = r.Swept(candleAt(utc(2024, time.June, 11, 14, 1), 5000, 5012, 4999, 5011), 1)
	if len(swept) != 0 {
		t.Fatalf("swept = %+v, want none when close holds above", swept)
	}
}
