package models

import "time"

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType selects the slippage model applied at entry.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// TrailingParams configures the optional trailing stop of a signal. Once
// unrealized profit reaches TriggerPoints the stop trails OffsetPoints behind
// the high-water mark and only ever tightens.
type TrailingParams struct {
	TriggerPoints float64 `json:"trigger" yaml:"trigger"`
	OffsetPoints  float64 `json:"offset" yaml:"offset"`
}

// Signal is the abstract input to the trade simulator. Any detector or
// strategy may produce one; the simulator does not care how it was derived.
type Signal struct {
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	OrderType   OrderType       `json:"order_type"`
	EntryPrice  float64         `json:"entry_price"`
	StopPrice   float64         `json:"stop_price"`
	TargetPrice float64         `json:"target_price"`
	Trailing    *TrailingParams `json:"trailing,omitempty"`
	MaxHoldObs  int             `json:"max_hold_observations,omitempty"`
	Strategy    string          `json:"strategy"`
	Time        time.Time       `json:"time"`
	Reason      string          `json:"reason,omitempty"`
}

// TradeStatus tracks the order lifecycle: none -> pending -> open -> closed.
type TradeStatus string

const (
	TradePending TradeStatus = "pending"
	TradeOpen    TradeStatus = "open"
	TradeClosed  TradeStatus = "closed"
)

// ExitReason records which rule closed a trade.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTakeProfit   ExitReason = "take_profit"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitMaxHold      ExitReason = "max_hold"
	ExitSessionClose ExitReason = "session_close"
)

// Trade is the simulator's state-machine entity. It is mutated only by the
// simulator while open and archived immutably on close.
type Trade struct {
	ID            int64           `json:"id"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Status        TradeStatus     `json:"status"`
	Strategy      string          `json:"strategy"`
	EntryTime     time.Time       `json:"entry_time"`
	ExitTime      time.Time       `json:"exit_time,omitempty"`
	EntryPrice    float64         `json:"entry_price"`
	ExitPrice     float64         `json:"exit_price,omitempty"`
	StopPrice     float64         `json:"stop_price"`
	TargetPrice   float64         `json:"target_price"`
	Trailing      *TrailingParams `json:"trailing,omitempty"`
	HighWaterMark float64         `json:"high_water_mark,omitempty"` // best price seen in trade direction
	TrailingStop  float64         `json:"trailing_stop,omitempty"`   // effective stop once armed
	TrailArmed    bool            `json:"trail_armed"`
	MaxHoldObs    int             `json:"max_hold_observations,omitempty"`
	BarsHeld      int             `json:"bars_held"`
	ExitReason    ExitReason      `json:"exit_reason,omitempty"`
	GrossPnL      float64         `json:"gross_pnl"`
	Commission    float64         `json:"commission"`
	NetPnL        float64         `json:"net_pnl"`
}

// Direction returns +1 for long trades and -1 for short trades.
func (t *Trade) Direction() float64 {
	if t.Side == SideBuy {
		return 1
	}
	return -1
}
