package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	mid "SweepSim/internal/middleware"
	pkgkafka "SweepSim/pkg/kafka"
)

// KafkaCandlesHandler consumes finished candles off a Kafka topic and routes
// them through the stream guard into the detection pipeline, persisting them
// as a side effect.
type KafkaCandlesHandler struct {
	topic   string
	guard   *mid.StreamGuard
	store   domrepo.CandleStore
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, guard *mid.StreamGuard, store domrepo.CandleStore, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, guard: guard, store: store, metrics: metrics}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, o, h, l, c, v}
func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      int64   `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	candle := models.Candle{
		Timestamp: time.Unix(m.T, 0).UTC(),
		Symbol:    m.Symbol,
		Open:      m.O,
		High:      m.H,
		Low:       m.L,
		Close:     m.C,
		Volume:    m.V,
	}
	if err := h.guard.Process(ctx, candle); err != nil {
		h.metrics.RecordError("consumer_process")
		return err
	}

	if h.store != nil {
		start := time.Now()
		if err := h.store.StoreCandles(ctx, []models.Candle{candle}); err != nil {
			h.metrics.RecordError("consumer_store")
			return err
		}
		h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
