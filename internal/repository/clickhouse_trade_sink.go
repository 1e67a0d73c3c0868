package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SweepSim/internal/domain/models"
	pkgch "SweepSim/pkg/clickhouse"
)

// CHTradeSink persists closed trades to ClickHouse for offline analysis.
type CHTradeSink struct {
	db    *sql.DB
	table string
}

func NewCHTradeSink(ch *pkgch.Client) *CHTradeSink {
	return &CHTradeSink{db: ch.DB(), table: "sweepsim.trades"}
}

func (s *CHTradeSink) StoreTrades(ctx context.Context, trades []*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	values := make([]string, 0, len(trades))
	args := make([]interface{}, 0, len(trades)*15)
	for _, t := range trades {
		if t == nil || t.Status != models.TradeClosed {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.ID, t.Symbol, string(t.Side), t.Strategy,
			t.EntryTime, t.ExitTime,
			t.EntryPrice, t.ExitPrice, t.StopPrice, t.TargetPrice,
			int32(t.BarsHeld), string(t.ExitReason),
			t.GrossPnL, t.Commission, t.NetPnL,
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (id, symbol, side, strategy, entry_time, exit_time, entry_price, exit_price, stop_price, target_price, bars_held, exit_reason, gross_pnl, commission, net_pnl) VALUES %s",
		s.table, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store trades: %w", err)
	}
	return nil
}

func (s *CHTradeSink) Close() error {
	return nil // pool owned by pkg client
}
