package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SweepSim/internal/domain/models"
	"SweepSim/internal/services/detect"
	"SweepSim/internal/services/market"
	"SweepSim/internal/services/sim"
	"SweepSim/internal/services/strategy"
	applogger "SweepSim/pkg/logger"
)

type nopMetrics struct {
	mu         sync.Mutex
	rejections map[string]int
	events     int
	closed     int
}

func newNopMetrics() *nopMetrics { return &nopMetrics{rejections: make(map[string]int)} }

func (m *nopMetrics) RecordCandle(string) {}
func (m *nopMetrics) RecordRejection(detector, reason string) {
	m.mu.Lock()
	m.rejections[detector+"/"+reason]++
	m.mu.Unlock()
}
func (m *nopMetrics) RecordEvent(string, string) {
	m.mu.Lock()
	m.events++
	m.mu.Unlock()
}
func (m *nopMetrics) RecordTradeClosed(string) {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
}
func (m *nopMetrics) RecordLastPrice(string, float64) {}
func (m *nopMetrics) RecordError(string)              {}
func (m *nopMetrics) RecordLatency(string, float64)   {}

type staticLevels struct {
	snap *models.LevelSnapshot
}

func (s *staticLevels) SnapshotAt(ctx context.Context, ts time.Time) (*models.LevelSnapshot, error) {
	return s.snap, nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func newTestPipeline(t *testing.T, metrics *nopMetrics) *DetectionPipeline {
	t.Helper()
	sweepCfg := detect.SweepConfig{
		MinRangePoints: 2.0,
		Cooldown:       30 * time.Second,
		VolumeZ:        2.5,
		RangeZ:         2.0,
		MinWickRatio:   0.35,
		LevelTolerance: 1.0,
		WindowSize:     240,
	}
	stratCfg := strategy.RecoilConfig{
		MinConfidence:    0.6,
		StopBufferPoints: 1.0,
		MaxRiskPoints:    15.0,
		TargetRMultiple:  1.5,
		BurstStopPoints:  4.0,
		MaxHoldObs:       60,
		Cooldown:         5 * time.Minute,
	}
	levels := &staticLevels{snap: &models.LevelSnapshot{
		Timestamp: time.Date(2024, 6, 11, 13, 30, 0, 0, time.UTC),
		Regime:    "positive",
		CallWall:  5010,
		PutWall:   4900,
	}}
	return NewDetectionPipeline(
		testLogger(t),
		metrics,
		market.NewRegistry(),
		detect.NewSweep(sweepCfg),
		detect.NewBurst(detect.BurstConfig{MinVelocity: 1e9}), // effectively off
		strategy.NewRecoil(stratCfg),
		sim.NewExecutor(sim.ExecConfig{SlippagePoints: 0.25, Commission: 0.5}),
		levels,
		nil,
	)
}

func rthCandle(ts time.Time, o, h, l, c float64, v int64) models.Candle {
	return models.Candle{Timestamp: ts, Symbol: "ES", Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestPipelineSweepToClosedTrade(t *testing.T) {
	metrics := newNopMetrics()
	p := newTestPipeline(t, metrics)
	ctx := context.Background()
	ts := time.Date(2024, 6, 11, 13, 31, 0, 0, time.UTC)

	// Baseline with alternating volume/range so the trackers see variance.
	for i := 0; i < 30; i++ {
		c := rthCandle(ts, 5000, 5001.5, 4999, 5000.5, 900)
		if i%2 == 1 {
			c.High, c.Low, c.Volume = 5002, 4998.5, 1100
		}
		require.NoError(t, p.Process(ctx, c))
		ts = ts.Add(time.Minute)
	}
	require.Nil(t, p.Executor().Open())

	// A bearish sweep of the call wall: probe above 5010, close below.
	require.NoError(t, p.Process(ctx, rthCandle(ts, 5000, 5012, 4999, 5001, 10000)))
	sweeps := p.RecentSweeps(10)
	require.Len(t, sweeps, 1)
	require.Equal(t, models.SweepBearish, sweeps[0].Type)
	require.Equal(t, models.LabelCallWall, sweeps[0].Level.Label)

	// The fade signal fills short on the next candle.
	ts = ts.Add(time.Minute)
	require.NoError(t, p.Process(ctx, rthCandle(ts, 5000, 5001, 4998, 4999, 1000)))
	open := p.Executor().Open()
	require.NotNil(t, open)
	require.Equal(t, models.SideSell, open.Side)
	require.Equal(t, 4999.75, open.EntryPrice)

	// Price recoils down through the target.
	ts = ts.Add(time.Minute)
	require.NoError(t, p.Process(ctx, rthCandle(ts, 4998, 4999, 4982, 4983.5, 1500)))
	require.Nil(t, p.Executor().Open())

	report := p.Report()
	require.Equal(t, 1, report.Trades)
	require.Equal(t, 1, report.ByExitReason[models.ExitTakeProfit])
	require.Greater(t, report.NetPnL, 0.0)
	require.Equal(t, 1, metrics.closed)
}

// Two runs over the identical candle sequence must produce identical trades
// and statistics.
func TestPipelineReplayDeterministic(t *testing.T) {
	run := func() (*sim.Report, []*models.SweepEvent) {
		p := newTestPipeline(t, newNopMetrics())
		ctx := context.Background()
		ts := time.Date(2024, 6, 11, 13, 31, 0, 0, time.UTC)
		for i := 0; i < 30; i++ {
			c := rthCandle(ts, 5000, 5001.5, 4999, 5000.5, 900)
			if i%2 == 1 {
				c.High, c.Low, c.Volume = 5002, 4998.5, 1100
			}
			require.NoError(t, p.Process(ctx, c))
			ts = ts.Add(time.Minute)
		}
		require.NoError(t, p.Process(ctx, rthCandle(ts, 5000, 5012, 4999, 5001, 10000)))
		ts = ts.Add(time.Minute)
		require.NoError(t, p.Process(ctx, rthCandle(ts, 5000, 5001, 4998, 4999, 1000)))
		ts = ts.Add(time.Minute)
		require.NoError(t, p.Process(ctx, rthCandle(ts, 4998, 4999, 4982, 4983.5, 1500)))
		return p.Report(), p.RecentSweeps(10)
	}

	report1, sweeps1 := run()
	report2, sweeps2 := run()
	require.Equal(t, report1, report2)
	require.Equal(t, sweeps1, sweeps2)
}

func TestPipelineRecentEventsCapAndOrder(t *testing.T) {
	metrics := newNopMetrics()
	p := newTestPipeline(t, metrics)

	require.Empty(t, p.RecentSweeps(10))
	require.Empty(t, p.RecentBursts(10))
	require.Equal(t, 0, p.CandlesProcessed())
}
