package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	pkgch "SweepSim/pkg/clickhouse"
	applogger "SweepSim/pkg/logger"
)

// CHCandleStore implements CandleStore backed by ClickHouse.
type CHCandleStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) StoreCandles(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Chunked multi-row VALUES insert to reduce round-trips.
	const chunkSize = 2000
	table := tableForTF(domrepo.TF1m)
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, c := range candles[start:end] {
			if c.Symbol == "" || c.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, c.Timestamp, c.Symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES %s", table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_candles insert error",
					applogger.String("table", table),
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store candles: %w", err)
		}
	}
	return nil
}

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.Candle, error) {
	start := time.Now()
	table := tableForTF(tf)
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_candles scan error",
					applogger.String("table", table),
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) ([]models.Candle, error) {
	table := tableForTF(tf)
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, n)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHCandleStore) Close() error {
	return nil // pool owned by pkg client
}

func tableForTF(tf domrepo.Timeframe) string {
	switch tf {
	case domrepo.TF15m:
		return "sweepsim.candles_15m"
	case domrepo.TF1h:
		return "sweepsim.candles_1h"
	default:
		return "sweepsim.candles_1m"
	}
}

// Schema returns the idempotent DDL for the candle and trade tables, applied
// through the client's InitSchema at startup.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS sweepsim`,
		`CREATE TABLE IF NOT EXISTS sweepsim.candles_1m (
            bucket DateTime64(3, 'UTC'),
            symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64,
            vol Int64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(bucket)
        ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS sweepsim.candles_15m (
            bucket DateTime64(3, 'UTC'),
            symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64,
            vol Int64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(bucket)
        ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS sweepsim.candles_1h (
            bucket DateTime64(3, 'UTC'),
            symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64,
            vol Int64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(bucket)
        ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS sweepsim.trades (
            id Int64,
            symbol LowCardinality(String),
            side LowCardinality(String),
            strategy LowCardinality(String),
            entry_time DateTime64(3, 'UTC'),
            exit_time DateTime64(3, 'UTC'),
            entry_price Float64, exit_price Float64,
            stop_price Float64, target_price Float64,
            bars_held Int32,
            exit_reason LowCardinality(String),
            gross_pnl Float64, commission Float64, net_pnl Float64
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(entry_time)
        ORDER BY (symbol, entry_time)`,
	}
}
