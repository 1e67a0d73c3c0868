package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SweepSim/internal/domain/models"
	drepo "SweepSim/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream over a trade-tick WebSocket feed. Ticks
// are aggregated into 1-minute candles per symbol; a candle is emitted when
// the first tick of the next minute arrives.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool

	mu      sync.Mutex
	current map[string]*models.Candle
}

// New creates a WebSocket MarketStream.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		current:        make(map[string]*models.Candle),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("stream not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	return nil
}

type wsTick struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string   `json:"type"`
	Data []wsTick `json:"data"`
}

// Read streams finished 1-minute candles and errors.
func (c *Client) Read(ctx context.Context) (<-chan models.Candle, <-chan error) {
	candles := make(chan models.Candle, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(candles)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("stream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-trade frames
					continue
				}
				if m.Type != "trade" {
					continue
				}
				for _, tick := range m.Data {
					if finished := c.absorb(tick); finished != nil {
						select {
						case candles <- *finished:
						default:
							// drop on backpressure
						}
					}
				}
			}
		}
	}()

	return candles, errs
}

// absorb folds a tick into the symbol's in-progress minute candle and returns
// the previous candle when the minute rolls over.
func (c *Client) absorb(t wsTick) *models.Candle {
	ts := time.UnixMilli(t.T).UTC()
	minute := ts.Truncate(time.Minute)

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.current[t.S]
	if !ok {
		c.current[t.S] = newMinuteCandle(t.S, minute, t.P, t.V)
		return nil
	}
	if minute.After(cur.Timestamp) {
		finished := *cur
		c.current[t.S] = newMinuteCandle(t.S, minute, t.P, t.V)
		return &finished
	}
	if t.P > cur.High {
		cur.High = t.P
	}
	if t.P < cur.Low {
		cur.Low = t.P
	}
	cur.Close = t.P
	cur.Volume += int64(t.V)
	return nil
}

func newMinuteCandle(symbol string, minute time.Time, price, volume float64) *models.Candle {
	return &models.Candle{
		Timestamp: minute,
		Symbol:    symbol,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    int64(volume),
	}
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
