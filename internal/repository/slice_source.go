package repository

import (
	"context"

	"SweepSim/internal/domain/models"
)

// SliceCandleSource adapts an in-memory candle slice to the CandleSource
// interface. Replay runs that pull their range from the store use it, as do
// tests.
type SliceCandleSource struct {
	candles []models.Candle
	pos     int
}

func NewSliceCandleSource(candles []models.Candle) *SliceCandleSource {
	return &SliceCandleSource{candles: candles}
}

func (s *SliceCandleSource) Next(ctx context.Context) (models.Candle, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Candle{}, false, err
	}
	if s.pos >= len(s.candles) {
		return models.Candle{}, false, nil
	}
	c := s.candles[s.pos]
	s.pos++
	return c, true, nil
}

func (s *SliceCandleSource) Close() error { return nil }
