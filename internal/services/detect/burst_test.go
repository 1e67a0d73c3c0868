package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SweepSim/internal/domain/models"
)

func burstConfig() BurstConfig {
	return BurstConfig{
		Windows:        []time.Duration{3 * time.Minute, 5 * time.Minute},
		BaselineWindow: 10 * time.Minute,
		MinCandles:     3,
		MinVelocity:    0.05,
		MinEfficiency:  0.6,
		MinClosePos:    0.7,
		MinTickRatio:   0.6,
		MinVolumeRatio: 1.2,
		Cooldown:       60 * time.Second,
	}
}

func burstCandle(ts time.Time, o, h, l, c float64, v int64) models.Candle {
	return models.Candle{Timestamp: ts, Symbol: "ES", Open: o, High: h, Low: l, Close: c, Volume: v}
}

// warmBurst feeds n quiet one-minute candles so the velocity baseline is past
// its warm-up gate and the buffer carries a background volume rate.
func warmBurst(t *testing.T, d *Burst, start time.Time, n int) time.Time {
	t.Helper()
	ts := start
	for i := 0; i < n; i++ {
		ev, _ := d.OnCandle(burstCandle(ts, 5000, 5001, 4999, 5000, 1000), rthInfo)
		require.Nil(t, ev, "quiet candle must not emit")
		ts = ts.Add(time.Minute)
	}
	return ts
}

func TestBurstLongDetection(t *testing.T) {
	d := NewBurst(burstConfig())
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)
	ts := warmBurst(t, d, t0, 20)

	seq := []models.Candle{
		burstCandle(ts, 5000, 5002.5, 4999.5, 5002, 1000),
		burstCandle(ts.Add(time.Minute), 5002, 5005.5, 5001.5, 5005, 1200),
		burstCandle(ts.Add(2*time.Minute), 5005, 5009.5, 5004.5, 5009, 1500),
	}

	ev, _ := d.OnCandle(seq[0], rthInfo)
	require.Nil(t, ev)
	ev, _ = d.OnCandle(seq[1], rthInfo)
	require.Nil(t, ev)

	ev, reason := d.OnCandle(seq[2], rthInfo)
	require.Empty(t, reason)
	require.NotNil(t, ev)
	require.Equal(t, models.BurstLong, ev.Direction)
	require.NotEmpty(t, ev.WindowsTriggered)
	require.Greater(t, ev.Velocity, 0.05)
	require.GreaterOrEqual(t, ev.Efficiency, 0.6)
	require.GreaterOrEqual(t, ev.ClosePosition, 0.7)
	require.GreaterOrEqual(t, ev.TickDirectionRatio, 0.6)
	require.GreaterOrEqual(t, ev.VolumeRatio, 1.2)
	require.Equal(t, 5009.0, ev.Price)

	// Still inside the cooldown window.
	next := burstCandle(ts.Add(2*time.Minute+30*time.Second), 5009, 5014.5, 5008.5, 5014, 2000)
	ev, reason = d.OnCandle(next, rthInfo)
	require.Nil(t, ev)
	require.Equal(t, RejectCooldown, reason)
}

func TestBurstShortDetection(t *testing.T) {
	d := NewBurst(burstConfig())
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)
	ts := warmBurst(t, d, t0, 20)

	d.OnCandle(burstCandle(ts, 5000, 5000.5, 4997.5, 4998, 1000), rthInfo)
	d.OnCandle(burstCandle(ts.Add(time.Minute), 4998, 4998.5, 4994.5, 4995, 1200), rthInfo)
	ev, reason := d.OnCandle(burstCandle(ts.Add(2*time.Minute), 4995, 4995.5, 4990.5, 4991, 1500), rthInfo)
	require.Empty(t, reason)
	require.NotNil(t, ev)
	require.Equal(t, models.BurstShort, ev.Direction)
	require.Less(t, ev.Velocity, 0.0)
	require.LessOrEqual(t, ev.ClosePosition, 0.3)
}

// Extreme candles from the very first observation must not signal: with no
// baseline there is no notion of anomalous.
func TestBurstInsufficientBaseline(t *testing.T) {
	d := NewBurst(burstConfig())
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		px := 5000 + 12*float64(i)
		ts := t0.Add(time.Duration(i) * time.Minute)
		ev, reason := d.OnCandle(burstCandle(ts, px, px+12.5, px-0.5, px+12, 8000), rthInfo)
		require.Nil(t, ev, "candle %d emitted with no baseline", i)
		require.Equal(t, RejectInsufficientData, reason)
	}
	require.Equal(t, 10, d.RejectionCounts()[RejectInsufficientData])
}

func TestBurstChopDoesNotTrigger(t *testing.T) {
	d := NewBurst(burstConfig())
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)
	ts := warmBurst(t, d, t0, 20)

	prices := []struct{ o, c float64 }{
		{5000, 5001}, {5001, 4999}, {4999, 5001}, {5001, 4999}, {4999, 5000},
	}
	var lastReason string
	for i, p := range prices {
		ev, reason := d.OnCandle(burstCandle(ts.Add(time.Duration(i)*time.Minute), p.o, p.c+1, p.o-1, p.c, 1000), rthInfo)
		require.Nil(t, ev)
		lastReason = reason
	}
	require.Equal(t, RejectNoWindow, lastReason)
}

func TestBurstSessionFilter(t *testing.T) {
	d := NewBurst(burstConfig())
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)
	ts := warmBurst(t, d, t0, 20)
	overnight := models.SessionInfo{Session: models.SessionOvernight}

	d.OnCandle(burstCandle(ts, 5000, 5002.5, 4999.5, 5002, 1000), overnight)
	d.OnCandle(burstCandle(ts.Add(time.Minute), 5002, 5005.5, 5001.5, 5005, 1200), overnight)
	ev, reason := d.OnCandle(burstCandle(ts.Add(2*time.Minute), 5005, 5009.5, 5004.5, 5009, 1500), overnight)
	require.Nil(t, ev)
	require.Equal(t, RejectSession, reason)
	require.Equal(t, 1, d.RejectionCounts()[RejectSession])
}

func TestBurstBufferPruning(t *testing.T) {
	d := NewBurst(burstConfig())
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 30; i++ {
		ts := t0.Add(time.Duration(i) * time.Minute)
		d.OnCandle(burstCandle(ts, 5000, 5001, 4999, 5000.5, 1000), rthInfo)
	}
	// Buffer holds at most the widest window plus the baseline region.
	require.LessOrEqual(t, len(d.buf), 16)
}

func TestBurstConfigValidate(t *testing.T) {
	require.NoError(t, burstConfig().Validate())

	bad := burstConfig()
	bad.MinEfficiency = 1.5
	require.Error(t, bad.Validate())

	bad = burstConfig()
	bad.Windows = []time.Duration{-time.Minute}
	require.Error(t, bad.Validate())

	bad = burstConfig()
	bad.Cooldown = -time.Second
	require.Error(t, bad.Validate())
}
