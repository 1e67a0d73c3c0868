package usecase

import (
	"context"

	"SweepSim/internal/domain/models"
	drepo "SweepSim/internal/domain/repository"
	mid "SweepSim/internal/middleware"
)

// CandleCollector consumes live candles from a market stream and feeds them
// through the stream guard into the detection pipeline, persisting them as a
// side effect.
type CandleCollector struct {
	stream  drepo.MarketStream
	guard   *mid.StreamGuard
	store   drepo.CandleStore
	metrics drepo.Metrics
}

func NewCandleCollector(stream drepo.MarketStream, guard *mid.StreamGuard, store drepo.CandleStore, metrics drepo.Metrics) *CandleCollector {
	return &CandleCollector{stream: stream, guard: guard, store: store, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (c *CandleCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *CandleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.guard.Start(ctx)
	candleCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, candleCh, errCh)
	return nil
}

func (c *CandleCollector) consume(ctx context.Context, candleCh <-chan models.Candle, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case candle, ok := <-candleCh:
			if !ok {
				return
			}
			_ = c.guard.Process(ctx, candle)
			if c.store != nil {
				if err := c.store.StoreCandles(ctx, []models.Candle{candle}); err != nil {
					c.metrics.RecordError("candle_store")
				}
			}
		}
	}
}

// Shutdown stops the guard and closes the stream.
func (c *CandleCollector) Shutdown(ctx context.Context) error {
	c.guard.Stop()
	return c.stream.Close()
}
