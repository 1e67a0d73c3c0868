package usecase

import (
	"context"
	"fmt"
	"time"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	"SweepSim/pkg/cache"
	"SweepSim/pkg/util"
)

const candlesCacheTTL = 15 * time.Second

// CandlesUseCase provides business logic for retrieving candles. Results are
// cached for a short TTL since query ranges repeat across dashboard refreshes.
type CandlesUseCase struct {
	store domrepo.CandleStore
	cache cache.Service
}

func NewCandlesUseCase(store domrepo.CandleStore, cacheSvc cache.Service) *CandlesUseCase {
	return &CandlesUseCase{store: store, cache: cacheSvc}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("candle store not configured")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}
	// Aligned ranges also make the cache key stable across near-identical
	// requests.
	p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Timeframe))

	key := fmt.Sprintf("candles:%s:%s:%d:%d:%d", p.Symbol, p.Timeframe, p.From.Unix(), p.To.Unix(), p.Limit)
	if uc.cache != nil {
		var cached GetCandlesResult
		if err := uc.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.Timeframe, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}

	res := &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}
	if uc.cache != nil {
		_ = uc.cache.Set(ctx, key, res, candlesCacheTTL)
	}
	return res, nil
}
