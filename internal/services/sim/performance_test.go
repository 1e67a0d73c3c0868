package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SweepSim/internal/domain/models"
)

func closedTrade(ts time.Time, net float64, reason models.ExitReason, strategy string) *models.Trade {
	return &models.Trade{
		Symbol: "ES", Side: models.SideBuy, Status: models.TradeClosed,
		Strategy: strategy, ExitTime: ts,
		GrossPnL: net + 0.5, Commission: 0.5, NetPnL: net,
		BarsHeld: 4, ExitReason: reason,
	}
}

func TestSummarize(t *testing.T) {
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)
	trades := []*models.Trade{
		closedTrade(t0, 5, models.ExitTakeProfit, "level_recoil"),
		closedTrade(t0.Add(10*time.Minute), -3, models.ExitStopLoss, "level_recoil"),
		closedTrade(t0.Add(20*time.Minute), 2, models.ExitTakeProfit, "momentum_burst"),
	}

	r := Summarize(trades)
	require.Equal(t, 3, r.Trades)
	require.Equal(t, 2, r.Wins)
	require.Equal(t, 1, r.Losses)
	require.InDelta(t, 2.0/3.0, r.WinRate, 1e-9)
	require.InDelta(t, 4.0, r.NetPnL, 1e-9)
	require.InDelta(t, 1.5, r.Commission, 1e-9)
	require.InDelta(t, 7.0/3.0, r.ProfitFactor, 1e-9)
	require.InDelta(t, 4.0/3.0, r.Expectancy, 1e-9)
	require.InDelta(t, 3.0, r.MaxDrawdown, 1e-9, "equity 5 -> 2 is a 3 point drawdown")
	require.Equal(t, 2, r.ByExitReason[models.ExitTakeProfit])
	require.Equal(t, 1, r.ByExitReason[models.ExitStopLoss])
	require.Equal(t, 2, r.ByStrategy["level_recoil"])
	require.Len(t, r.EquityCurve, 3)
	require.InDelta(t, 4.0, r.EquityCurve[2].Equity, 1e-9)
	require.NotZero(t, r.Sharpe)
	require.NotZero(t, r.Sortino)
	require.InDelta(t, 4.0, r.AvgBarsHeld, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	r := Summarize(nil)
	require.Equal(t, 0, r.Trades)
	require.Zero(t, r.WinRate)
	require.Empty(t, r.EquityCurve)
}

func TestSummarizeAllWinners(t *testing.T) {
	t0 := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)
	trades := []*models.Trade{
		closedTrade(t0, 2, models.ExitTakeProfit, "level_recoil"),
		closedTrade(t0.Add(time.Minute), 3, models.ExitTakeProfit, "level_recoil"),
	}
	r := Summarize(trades)
	require.True(t, math.IsInf(r.ProfitFactor, 1))
	require.Zero(t, r.MaxDrawdown)
	require.Zero(t, r.Sortino, "no losing trades, no downside deviation")
}
