package service

import (
	"time"

	"SweepSim/internal/domain/models"
)

// SweepDetector inspects each finished candle against the tracked level set
// and reports liquidity sweeps. Implementations are single-goroutine; the
// pipeline serializes calls.
type SweepDetector interface {
	OnCandle(c models.Candle, info models.SessionInfo, levels []models.TrackedLevel) (*models.SweepEvent, string)
	RejectionCounts() map[string]int
}

// BurstDetector maintains its own short price/volume history and reports
// momentum bursts.
type BurstDetector interface {
	OnCandle(c models.Candle, info models.SessionInfo) (*models.BurstEvent, string)
	RejectionCounts() map[string]int
}

// Strategy converts detector events into trade signals. A nil return means no
// trade.
type Strategy interface {
	OnSweep(e *models.SweepEvent, levels []models.TrackedLevel) *models.Signal
	OnBurst(e *models.BurstEvent) *models.Signal
}

// Simulator runs the trade lifecycle against the candle stream.
type Simulator interface {
	Submit(sig *models.Signal) bool
	OnCandle(c models.Candle, sess models.Session) []*models.Trade
	CloseAll(ts time.Time, price float64, reason models.ExitReason) []*models.Trade
	Open() *models.Trade
	Closed() []*models.Trade
}
