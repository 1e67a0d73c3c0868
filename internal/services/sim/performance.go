package sim

import (
	"math"
	"time"

	"SweepSim/internal/domain/models"
)

// EquityPoint is one step of the cumulative net PnL curve.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Report summarizes a batch of closed trades. All PnL figures are net of
// commission and expressed in instrument points.
type Report struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	GrossPnL     float64 `json:"gross_pnl"`
	NetPnL       float64 `json:"net_pnl"`
	Commission   float64 `json:"commission"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	AvgBarsHeld  float64 `json:"avg_bars_held"`

	ByExitReason map[models.ExitReason]int `json:"by_exit_reason"`
	ByStrategy   map[string]int            `json:"by_strategy"`
	EquityCurve  []EquityPoint             `json:"equity_curve"`
}

// Summarize folds closed trades into a performance report. Trades must be in
// close order; the equity curve and drawdown depend on it.
func Summarize(trades []*models.Trade) *Report {
	r := &Report{
		ByExitReason: make(map[models.ExitReason]int),
		ByStrategy:   make(map[string]int),
	}
	if len(trades) == 0 {
		return r
	}

	var (
		equity    float64
		peak      float64
		sumWin    float64
		sumLoss   float64
		sumPnL    float64
		sumSq     float64
		downSq    float64
		downN     int
		barsTotal int
	)
	r.EquityCurve = make([]EquityPoint, 0, len(trades))
	for _, t := range trades {
		r.Trades++
		r.GrossPnL += t.GrossPnL
		r.Commission += t.Commission
		pnl := t.NetPnL
		sumPnL += pnl
		sumSq += pnl * pnl
		if pnl > 0 {
			r.Wins++
			sumWin += pnl
		} else {
			r.Losses++
			sumLoss += -pnl
			downSq += pnl * pnl
			downN++
		}
		barsTotal += t.BarsHeld
		r.ByExitReason[t.ExitReason]++
		r.ByStrategy[t.Strategy]++

		equity += pnl
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > r.MaxDrawdown {
			r.MaxDrawdown = dd
		}
		r.EquityCurve = append(r.EquityCurve, EquityPoint{Time: t.ExitTime, Equity: equity})
	}

	n := float64(r.Trades)
	r.NetPnL = equity
	r.WinRate = float64(r.Wins) / n
	r.Expectancy = sumPnL / n
	r.AvgBarsHeld = float64(barsTotal) / n
	if sumLoss > 0 {
		r.ProfitFactor = sumWin / sumLoss
	} else if sumWin > 0 {
		r.ProfitFactor = math.Inf(1)
	}

	if r.Trades > 1 {
		mean := sumPnL / n
		variance := (sumSq - n*mean*mean) / (n - 1)
		if variance > 0 {
			r.Sharpe = mean / math.Sqrt(variance)
		}
		if downN > 0 {
			if dd := math.Sqrt(downSq / float64(downN)); dd > 0 {
				r.Sortino = mean / dd
			}
		}
	}
	return r
}
