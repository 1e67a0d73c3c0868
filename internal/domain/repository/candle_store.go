package repository

import (
	"context"
	"time"

	"SweepSim/internal/domain/models"
)

// CandleStore is the historical candle repository backing replay runs and the
// query API. Results are returned in ascending timestamp order.
type CandleStore interface {
	StoreCandles(ctx context.Context, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, tf Timeframe, from, to time.Time, limit int) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, tf Timeframe, n int) ([]models.Candle, error)
	Close() error
}
