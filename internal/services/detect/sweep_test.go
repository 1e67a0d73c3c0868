package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SweepSim/internal/domain/models"
)

var rthInfo = models.SessionInfo{Session: models.SessionRTH}

func sweepConfig() SweepConfig {
	return SweepConfig{
		MinRangePoints: 2.0,
		Cooldown:       30 * time.Second,
		VolumeZ:        2.5,
		RangeZ:         2.0,
		MinWickRatio:   0.35,
		LevelTolerance: 1.0,
		WindowSize:     240,
	}
}

// warmSweep feeds n alternating baseline candles so the rolling trackers have
// non-zero variance and are past their warm-up gate.
func warmSweep(t *testing.T, d *Sweep, start time.Time, n int) time.Time {
	t.Helper()
	ts := start
	for i := 0; i < n; i++ {
		c := models.Candle{
			Timestamp: ts, Symbol: "ES",
			Open: 5000, High: 5001.5, Low: 4999, Close: 5000.5,
			Volume: 900,
		}
		if i%2 == 1 {
			c.High, c.Low = 5002, 4998.5
			c.Volume = 1100
		}
		ev, _ := d.OnCandle(c, rthInfo, nil)
		require.Nil(t, ev, "baseline candle must not emit")
		ts = ts.Add(time.Minute)
	}
	return ts
}

func TestSweepBearishDetection(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	levels := []models.TrackedLevel{
		{Class: models.LevelSessionDerived, Label: models.LabelPriorDayHigh, Price: 5010, Strength: 3},
	}
	spike := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 5000, High: 5012, Low: 4999, Close: 5001,
		Volume: 10000,
	}
	ev, reason := d.OnCandle(spike, rthInfo, levels)
	require.Empty(t, reason)
	require.NotNil(t, ev)
	require.Equal(t, models.SweepBearish, ev.Type)
	require.Equal(t, models.LabelPriorDayHigh, ev.Level.Label)
	require.Equal(t, "upper", ev.Wick.Side)
	require.Greater(t, ev.VolumeSpike.ZScore, 2.5)
	require.Greater(t, ev.RangeSpike.ZScore, 2.0)
	require.GreaterOrEqual(t, ev.Confidence, 0.5)
	require.LessOrEqual(t, ev.Confidence, 1.0)
}

func TestSweepBullishMirror(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	levels := []models.TrackedLevel{
		{Class: models.LevelOptionsDerived, Label: models.LabelPutWall, Price: 4990, Strength: 5},
	}
	spike := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 5000, High: 5001, Low: 4988, Close: 4999,
		Volume: 10000,
	}
	ev, reason := d.OnCandle(spike, rthInfo, levels)
	require.Empty(t, reason)
	require.NotNil(t, ev)
	require.Equal(t, models.SweepBullish, ev.Type)
	require.Equal(t, "lower", ev.Wick.Side)
	require.Equal(t, models.LabelPutWall, ev.Level.Label)
}

func TestSweepCooldownBlocksRepeat(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	levels := []models.TrackedLevel{
		{Class: models.LevelSessionDerived, Label: models.LabelPriorDayHigh, Price: 5010, Strength: 3},
	}
	spike := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 5000, High: 5012, Low: 4999, Close: 5001,
		Volume: 10000,
	}
	ev, _ := d.OnCandle(spike, rthInfo, levels)
	require.NotNil(t, ev)

	repeat := spike
	repeat.Timestamp = ts.Add(10 * time.Second)
	ev, reason := d.OnCandle(repeat, rthInfo, levels)
	require.Nil(t, ev)
	require.Equal(t, RejectCooldown, reason)

	later := spike
	later.Timestamp = ts.Add(31 * time.Second)
	ev, reason = d.OnCandle(later, rthInfo, levels)
	require.NotNil(t, ev, "cooldown elapsed, got reject %q", reason)
}

func TestSweepRejections(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	levels := []models.TrackedLevel{
		{Class: models.LevelSessionDerived, Label: models.LabelPriorDayHigh, Price: 5010, Strength: 3},
	}

	// Too small a range, evaluated before anything else.
	tiny := models.Candle{Timestamp: ts, Symbol: "ES", Open: 5000, High: 5001, Low: 5000, Close: 5000.5, Volume: 10000}
	_, reason := d.OnCandle(tiny, rthInfo, levels)
	require.Equal(t, RejectRangeTooSmall, reason)

	// Session filter: overnight is not in the default allow list.
	ts = ts.Add(time.Minute)
	spike := models.Candle{Timestamp: ts, Symbol: "ES", Open: 5000, High: 5012, Low: 4999, Close: 5001, Volume: 10000}
	_, reason = d.OnCandle(spike, models.SessionInfo{Session: models.SessionOvernight}, levels)
	require.Equal(t, RejectSession, reason)

	// Ordinary volume fails the z-threshold.
	ts = ts.Add(time.Minute)
	quiet := models.Candle{Timestamp: ts, Symbol: "ES", Open: 5000, High: 5012, Low: 4999, Close: 5001, Volume: 1000}
	_, reason = d.OnCandle(quiet, rthInfo, levels)
	require.Equal(t, RejectVolumeZ, reason)

	// No swept level: spike far away from every tracked price.
	ts = ts.Add(time.Minute)
	lost := models.Candle{Timestamp: ts, Symbol: "ES", Open: 5000, High: 5012, Low: 4999, Close: 5001, Volume: 10000}
	_, reason = d.OnCandle(lost, rthInfo, nil)
	require.Equal(t, RejectNoLevel, reason)

	counts := d.RejectionCounts()
	require.Equal(t, 1, counts[RejectRangeTooSmall])
	require.Equal(t, 1, counts[RejectSession])
	require.Equal(t, 1, counts[RejectVolumeZ])
	require.Equal(t, 1, counts[RejectNoLevel])
}

func TestSweepWickTooSmall(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	// Full-body candle: almost no wick on either side.
	marubozu := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 4999, High: 5012, Low: 4998.5, Close: 5011.5,
		Volume: 10000,
	}
	_, reason := d.OnCandle(marubozu, rthInfo, nil)
	require.Equal(t, RejectWick, reason)
}

// With only a handful of prior candles the trackers have no baseline, so even
// an extreme spike must stay silent.
func TestSweepInsufficientBaseline(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 5)

	levels := []models.TrackedLevel{
		{Class: models.LevelSessionDerived, Label: models.LabelPriorDayHigh, Price: 5010, Strength: 3},
	}
	spike := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 5000, High: 5012, Low: 4999, Close: 5001,
		Volume: 100000,
	}
	ev, reason := d.OnCandle(spike, rthInfo, levels)
	require.Nil(t, ev)
	require.NotEmpty(t, reason)
}

func TestSweepWickTieRejects(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	// Symmetric spike: equal wicks on both sides, no dominant rejection.
	tie := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 5000, High: 5006, Low: 4994, Close: 5000,
		Volume: 10000,
	}
	_, reason := d.OnCandle(tie, rthInfo, nil)
	require.Equal(t, RejectWick, reason)
}

func TestSweepConfigValidate(t *testing.T) {
	require.NoError(t, sweepConfig().Validate())

	bad := sweepConfig()
	bad.LevelTolerance = -1
	require.Error(t, bad.Validate())

	bad = sweepConfig()
	bad.VolumeZ = -0.5
	require.Error(t, bad.Validate())

	bad = sweepConfig()
	bad.MinWickRatio = 1.2
	require.Error(t, bad.Validate())
}

// countSweeps replays a fixed spike sequence with progressively smaller
// upper wicks through a fresh detector at the given wick threshold.
func countSweeps(t *testing.T, minWick float64) int {
	t.Helper()
	cfg := sweepConfig()
	cfg.MinWickRatio = minWick
	d := NewSweep(cfg)
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	levels := []models.TrackedLevel{
		{Class: models.LevelSessionDerived, Label: models.LabelPriorDayHigh, Price: 5010, Strength: 3},
	}
	n := 0
	for _, px := range []float64{5001, 5005, 5008} {
		c := models.Candle{
			Timestamp: ts, Symbol: "ES",
			Open: 5000, High: 5012, Low: 4999, Close: px,
			Volume: 10000,
		}
		if ev, _ := d.OnCandle(c, rthInfo, levels); ev != nil {
			n++
		}
		ts = ts.Add(time.Minute)
	}
	return n
}

func TestSweepWickThresholdMonotonic(t *testing.T) {
	prev := countSweeps(t, 0.25)
	require.Equal(t, 3, prev)
	for _, th := range []float64{0.45, 0.65, 0.9} {
		n := countSweeps(t, th)
		require.LessOrEqual(t, n, prev, "raising the wick threshold must not add detections")
		prev = n
	}
	require.Equal(t, 0, prev)
}

func TestSweepStrongestLevelWins(t *testing.T) {
	d := NewSweep(sweepConfig())
	start := time.Date(2024, time.June, 11, 13, 31, 0, 0, time.UTC)
	ts := warmSweep(t, d, start, 30)

	// Both levels qualify; the registry orders strongest first and the
	// detector keeps the first match.
	levels := []models.TrackedLevel{
		{Class: models.LevelOptionsDerived, Label: models.LabelCallWall, Price: 5010, Strength: 5},
		{Class: models.LevelSessionDerived, Label: models.LabelOvernightHigh, Price: 5009, Strength: 1},
	}
	spike := models.Candle{
		Timestamp: ts, Symbol: "ES",
		Open: 5000, High: 5012, Low: 4999, Close: 5001,
		Volume: 10000,
	}
	ev, reason := d.OnCandle(spike, rthInfo, levels)
	require.Empty(t, reason)
	require.Equal(t, models.LabelCallWall, ev.Level.Label)
}
