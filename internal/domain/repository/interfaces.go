package repository

import (
	"context"
	"time"

	"SweepSim/internal/domain/models"
)

// CandleSource is an ordered stream of candles for one replay run. Iteration
// order is the contract: candles arrive in non-decreasing timestamp order or
// the stream guard rejects them.
type CandleSource interface {
	// Next returns the next candle, or ok=false when the source is drained.
	Next(ctx context.Context) (models.Candle, bool, error)
	Close() error
}

// MarketStream is a live candle feed (WebSocket or broker-backed).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// LevelSource resolves the options-level snapshot current at a given instant
// (15-minute bucket, hold-last-known across gaps).
type LevelSource interface {
	SnapshotAt(ctx context.Context, ts time.Time) (*models.LevelSnapshot, error)
}

// SignalPublisher fans detector events and trade signals out to subscribers
// (Redis pub/sub in production, in-memory in tests).
type SignalPublisher interface {
	PublishSignal(ctx context.Context, s *models.Signal) error
	PublishSweep(ctx context.Context, e *models.SweepEvent) error
	PublishBurst(ctx context.Context, e *models.BurstEvent) error
	Close() error
}

// TradeSink persists completed trades for later analysis.
type TradeSink interface {
	StoreTrades(ctx context.Context, trades []*models.Trade) error
	Close() error
}

// Metrics is the pipeline-facing metrics surface.
type Metrics interface {
	RecordCandle(symbol string)
	RecordRejection(detector, reason string)
	RecordEvent(kind, symbol string)
	RecordTradeClosed(exitReason string)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
