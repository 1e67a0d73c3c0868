package repository

import (
	"context"

	"SweepSim/internal/domain/models"
	domrepo "SweepSim/internal/domain/repository"
	pkgkafka "SweepSim/pkg/kafka"
	"SweepSim/pkg/queue"
)

// Message types published to the Redis signal queue. Downstream consumers
// (alerting, dashboards) key off these.
const (
	MsgTradeSignal = "signal.trade"
	MsgSweepEvent  = "event.sweep"
	MsgBurstEvent  = "event.burst"
)

// RedisSignalPublisher fans detector events and trade signals out through the
// Redis queue.
type RedisSignalPublisher struct {
	q queue.QueueService
}

func NewRedisSignalPublisher(q queue.QueueService) *RedisSignalPublisher {
	return &RedisSignalPublisher{q: q}
}

func (p *RedisSignalPublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	return p.q.PublishMessage(ctx, MsgTradeSignal, s)
}

func (p *RedisSignalPublisher) PublishSweep(ctx context.Context, e *models.SweepEvent) error {
	return p.q.PublishMessage(ctx, MsgSweepEvent, e)
}

func (p *RedisSignalPublisher) PublishBurst(ctx context.Context, e *models.BurstEvent) error {
	return p.q.PublishMessage(ctx, MsgBurstEvent, e)
}

func (p *RedisSignalPublisher) Close() error {
	return nil // queue lifecycle owned by the app
}

// KafkaEventPublisher mirrors detector events onto a Kafka topic for
// downstream stream consumers.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), map[string]interface{}{
		"kind":   MsgTradeSignal,
		"signal": s,
	})
}

func (p *KafkaEventPublisher) PublishSweep(ctx context.Context, e *models.SweepEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Symbol), map[string]interface{}{
		"kind":  MsgSweepEvent,
		"event": e,
	})
}

func (p *KafkaEventPublisher) PublishBurst(ctx context.Context, e *models.BurstEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Symbol), map[string]interface{}{
		"kind":  MsgBurstEvent,
		"event": e,
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// FanoutPublisher sends every message to each wrapped publisher, returning
// the first error after trying all of them.
type FanoutPublisher struct {
	targets []domrepo.SignalPublisher
}

func NewFanoutPublisher(targets ...domrepo.SignalPublisher) *FanoutPublisher {
	return &FanoutPublisher{targets: targets}
}

func (p *FanoutPublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	var first error
	for _, t := range p.targets {
		if err := t.PublishSignal(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *FanoutPublisher) PublishSweep(ctx context.Context, e *models.SweepEvent) error {
	var first error
	for _, t := range p.targets {
		if err := t.PublishSweep(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *FanoutPublisher) PublishBurst(ctx context.Context, e *models.BurstEvent) error {
	var first error
	for _, t := range p.targets {
		if err := t.PublishBurst(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *FanoutPublisher) Close() error {
	var first error
	for _, t := range p.targets {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
