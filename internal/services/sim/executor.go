package sim

import (
	"fmt"
	"time"

	"SweepSim/internal/domain/models"
)

// ExecConfig tunes the fill model. Prices are in instrument points.
type ExecConfig struct {
	SlippagePoints float64  `yaml:"slippage_points" default:"0.25"`
	Commission     float64  `yaml:"commission_points" default:"0.5"`
	PendingTTLBars int      `yaml:"pending_ttl_bars" default:"3"`
	Sessions       []string `yaml:"sessions"`

	sessions map[models.Session]bool
}

// Validate rejects fill parameters that cannot work.
func (c ExecConfig) Validate() error {
	if c.SlippagePoints < 0 {
		return fmt.Errorf("slippage_points cannot be negative")
	}
	if c.Commission < 0 {
		return fmt.Errorf("commission_points cannot be negative")
	}
	if c.PendingTTLBars < 0 {
		return fmt.Errorf("pending_ttl_bars cannot be negative")
	}
	return nil
}

func (c *ExecConfig) tradable(s models.Session) bool {
	if c.sessions == nil {
		c.sessions = make(map[models.Session]bool, len(c.Sessions))
		for _, name := range c.Sessions {
			c.sessions[models.Session(name)] = true
		}
	}
	if len(c.sessions) == 0 {
		return s == models.SessionRTH || s == models.SessionPremarket
	}
	return c.sessions[s]
}

// Executor is a single-position trade lifecycle simulator. Signals become
// pending orders, fill on the next observation, and the open position is
// walked through the exit rules candle by candle. Exits are always evaluated
// before new entries on the same observation, so a position can never be
// opened and stopped on the candle that filled it.
type Executor struct {
	cfg        ExecConfig
	pending    *models.Signal
	pendingAge int
	open       *models.Trade
	closed     []*models.Trade
	nextID     int64
	ignored    int
}

func NewExecutor(cfg ExecConfig) *Executor {
	if cfg.PendingTTLBars <= 0 {
		cfg.PendingTTLBars = 3
	}
	return &Executor{cfg: cfg, nextID: 1}
}

// Submit queues a signal for fill on the next observation. Returns false when
// a position or pending order already exists; those signals are dropped, not
// queued.
func (e *Executor) Submit(sig *models.Signal) bool {
	if sig == nil {
		return false
	}
	if e.open != nil || e.pending != nil {
		e.ignored++
		return false
	}
	e.pending = sig
	e.pendingAge = 0
	return true
}

// OnCandle advances the simulation one observation and returns any trades
// closed by it.
func (e *Executor) OnCandle(c models.Candle, sess models.Session) []*models.Trade {
	var out []*models.Trade
	if e.open != nil {
		if t := e.evaluateExit(c, sess); t != nil {
			out = append(out, t)
		}
	}
	if e.open == nil && e.pending != nil {
		e.fill(c, sess)
	}
	return out
}

func (e *Executor) fill(c models.Candle, sess models.Session) {
	sig := e.pending
	if !e.cfg.tradable(sess) {
		// The window closed before the order could fill.
		e.pending = nil
		e.ignored++
		return
	}

	var entry float64
	switch sig.OrderType {
	case models.OrderLimit:
		// A limit fills only if the candle trades through the price. One
		// that never does is cancelled after its TTL so it cannot block
		// later signals forever.
		if c.Low > sig.EntryPrice || c.High < sig.EntryPrice {
			e.pendingAge++
			if e.pendingAge >= e.cfg.PendingTTLBars {
				e.pending = nil
				e.pendingAge = 0
				e.ignored++
			}
			return
		}
		entry = sig.EntryPrice
	default:
		// Market orders pay slippage against the direction at the open.
		if sig.Side == models.SideBuy {
			entry = c.Open + e.cfg.SlippagePoints
		} else {
			entry = c.Open - e.cfg.SlippagePoints
		}
	}

	e.pending = nil
	e.open = &models.Trade{
		ID:          e.nextID,
		Symbol:      sig.Symbol,
		Side:        sig.Side,
		Status:      models.TradeOpen,
		Strategy:    sig.Strategy,
		EntryTime:   c.Timestamp,
		EntryPrice:  entry,
		StopPrice:   sig.StopPrice,
		TargetPrice: sig.TargetPrice,
		Trailing:    sig.Trailing,
		MaxHoldObs:  sig.MaxHoldObs,
	}
	e.nextID++
}

// evaluateExit applies the exit rules in priority order: protective stop,
// target, trailing stop, max hold, session close. When a candle spans both
// the stop and the target the stop wins; intrabar path is unknown and the
// pessimistic read keeps results honest.
func (e *Executor) evaluateExit(c models.Candle, sess models.Session) *models.Trade {
	t := e.open
	t.BarsHeld++
	long := t.Side == models.SideBuy

	stop := t.StopPrice
	if t.TrailArmed {
		stop = t.TrailingStop
	}

	if long {
		if c.Low <= stop {
			return e.close(c.Timestamp, stop, e.stopReason(t))
		}
		if c.High >= t.TargetPrice {
			return e.close(c.Timestamp, t.TargetPrice, models.ExitTakeProfit)
		}
	} else {
		if c.High >= stop {
			return e.close(c.Timestamp, stop, e.stopReason(t))
		}
		if c.Low <= t.TargetPrice {
			return e.close(c.Timestamp, t.TargetPrice, models.ExitTakeProfit)
		}
	}

	e.updateTrailing(c)

	if t.MaxHoldObs > 0 && t.BarsHeld >= t.MaxHoldObs {
		return e.close(c.Timestamp, c.Close, models.ExitMaxHold)
	}
	if !e.cfg.tradable(sess) {
		return e.close(c.Timestamp, c.Close, models.ExitSessionClose)
	}
	return nil
}

func (e *Executor) stopReason(t *models.Trade) models.ExitReason {
	if t.TrailArmed {
		return models.ExitTrailingStop
	}
	return models.ExitStopLoss
}

// updateTrailing advances the high-water mark and ratchets the trailing stop.
// The stop only ever tightens; a pullback never loosens it.
func (e *Executor) updateTrailing(c models.Candle) {
	t := e.open
	if t.Trailing == nil {
		return
	}
	long := t.Side == models.SideBuy

	if long {
		if c.High > t.HighWaterMark || t.HighWaterMark == 0 {
			t.HighWaterMark = c.High
		}
		if t.HighWaterMark-t.EntryPrice >= t.Trailing.TriggerPoints {
			trail := t.HighWaterMark - t.Trailing.OffsetPoints
			if !t.TrailArmed || trail > t.TrailingStop {
				t.TrailingStop = trail
				t.TrailArmed = true
			}
		}
	} else {
		if c.Low < t.HighWaterMark || t.HighWaterMark == 0 {
			t.HighWaterMark = c.Low
		}
		if t.EntryPrice-t.HighWaterMark >= t.Trailing.TriggerPoints {
			trail := t.HighWaterMark + t.Trailing.OffsetPoints
			if !t.TrailArmed || trail < t.TrailingStop {
				t.TrailingStop = trail
				t.TrailArmed = true
			}
		}
	}
}

func (e *Executor) close(ts time.Time, price float64, reason models.ExitReason) *models.Trade {
	t := e.open
	t.Status = models.TradeClosed
	t.ExitTime = ts
	t.ExitPrice = price
	t.ExitReason = reason
	t.GrossPnL = (price - t.EntryPrice) * t.Direction()
	t.Commission = e.cfg.Commission
	t.NetPnL = t.GrossPnL - t.Commission
	e.open = nil
	e.closed = append(e.closed, t)
	return t
}

// CloseAll force-closes the open position, typically at the end of a replay.
func (e *Executor) CloseAll(ts time.Time, price float64, reason models.ExitReason) []*models.Trade {
	e.pending = nil
	if e.open == nil {
		return nil
	}
	return []*models.Trade{e.close(ts, price, reason)}
}

// Open returns the current open trade, or nil.
func (e *Executor) Open() *models.Trade { return e.open }

// Closed returns every closed trade in close order.
func (e *Executor) Closed() []*models.Trade { return e.closed }

// IgnoredSignals reports signals dropped because a position already existed
// or the session closed before fill.
func (e *Executor) IgnoredSignals() int { return e.ignored }
