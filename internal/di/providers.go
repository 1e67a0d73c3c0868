package di

import (
	"context"
	"fmt"
	"time"

	"SweepSim/internal/domain/repository"
	"SweepSim/internal/handler/api"
	mid "SweepSim/internal/middleware"
	internalrepo "SweepSim/internal/repository"
	"SweepSim/internal/service/stream"
	"SweepSim/internal/services/detect"
	"SweepSim/internal/services/market"
	"SweepSim/internal/services/sim"
	"SweepSim/internal/services/strategy"
	"SweepSim/internal/usecase"
	"SweepSim/pkg/cache"
	pkgch "SweepSim/pkg/clickhouse"
	"SweepSim/pkg/config"
	xhttp "SweepSim/pkg/http"
	pkgkafka "SweepSim/pkg/kafka"
	applogger "SweepSim/pkg/logger"
	"SweepSim/pkg/metrics"
	"SweepSim/pkg/queue"
	"SweepSim/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
// Returns nil when ClickHouse is disabled; downstream providers tolerate it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCandleStore creates the ClickHouse candle store.
func ProvideCandleStore(chClient *pkgch.Client, lgr *applogger.Logger) repository.CandleStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(lgr)
	return store
}

// ProvideTradeSink creates the ClickHouse trade sink.
func ProvideTradeSink(chClient *pkgch.Client) repository.TradeSink {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewCHTradeSink(chClient)
}

// ProvideCacheService builds the query cache: memory only, or layered over
// Redis when Redis is enabled.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MemorySize)), nil
}

// ProvideQueuePublisher creates the Redis pub/sub publisher for signals.
func ProvideQueuePublisher(cfg *config.Config, lgr *applogger.Logger) queue.QueueService {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return queue.NewRedisPublisher(lgr, client)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher fans detected events out to every enabled backend.
func ProvideSignalPublisher(q queue.QueueService, producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	var targets []repository.SignalPublisher
	if q != nil {
		targets = append(targets, internalrepo.NewRedisSignalPublisher(q))
	}
	if producer != nil {
		targets = append(targets, internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic))
	}
	if len(targets) == 0 {
		return nil
	}
	return internalrepo.NewFanoutPublisher(targets...)
}

// ProvideLevelSource builds the options-level snapshot source: an HTTP feed
// when levels.url is set, a JSON file when levels.path is, nil otherwise.
func ProvideLevelSource(cfg *config.Config) (repository.LevelSource, error) {
	switch {
	case cfg.Levels.URL != "":
		return internalrepo.NewHTTPLevelSource(cfg.Levels.URL, cfg.Levels.HTTPTimeout), nil
	case cfg.Levels.Path != "":
		src, err := internalrepo.NewFileLevelSource(cfg.Levels.Path)
		if err != nil {
			return nil, fmt.Errorf("level source: %w", err)
		}
		return src, nil
	default:
		return nil, nil
	}
}

// ProvidePipeline assembles the detection pipeline from configured parts.
func ProvidePipeline(
	lgr *applogger.Logger,
	m repository.Metrics,
	levels repository.LevelSource,
	pub repository.SignalPublisher,
	cfg *config.Config,
) *usecase.DetectionPipeline {
	return usecase.NewDetectionPipeline(
		lgr,
		m,
		market.NewRegistry(),
		detect.NewSweep(cfg.Detectors.Sweep),
		detect.NewBurst(cfg.Detectors.Burst),
		strategy.NewRecoil(cfg.Strategy),
		sim.NewExecutor(cfg.Simulator),
		levels,
		pub,
	)
}

// ProvideStreamGuard wraps the pipeline. Throttling only applies to live
// feeds; replay must run at full speed on simulated time.
func ProvideStreamGuard(pipeline *usecase.DetectionPipeline, m repository.Metrics, cfg *config.Config) *mid.StreamGuard {
	opts := []mid.GuardOption{mid.WithBufferSize(2000)}
	if cfg.Mode == "live" && cfg.Stream.MaxRPS > 0 {
		opts = append(opts, mid.WithMaxRPS(cfg.Stream.MaxRPS))
	}
	return mid.NewStreamGuard(pipeline, m, opts...)
}

// ProvideReplayUseCase creates the replay runner.
func ProvideReplayUseCase(lgr *applogger.Logger, guard *mid.StreamGuard, pipeline *usecase.DetectionPipeline, sink repository.TradeSink) *usecase.ReplayUseCase {
	return usecase.NewReplayUseCase(lgr, guard, pipeline, sink)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore, cacheSvc cache.Service) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store, cacheSvc)
}

// ProvideMarketStream creates the live WebSocket stream when configured.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	if cfg.Mode != "live" || cfg.Stream.WebSocketURL == "" {
		return nil
	}
	return stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideCandleCollector creates the live stream collector.
func ProvideCandleCollector(ms repository.MarketStream, guard *mid.StreamGuard, store repository.CandleStore, m repository.Metrics) *usecase.CandleCollector {
	if ms == nil {
		return nil
	}
	return usecase.NewCandleCollector(ms, guard, store, m)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Mode != "live" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaCandlesHandler registers the handler for the candles topic.
func ProvideKafkaCandlesHandler(guard *mid.StreamGuard, store repository.CandleStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.Topic, guard, store, m)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	candles *usecase.CandlesUseCase,
	pipeline *usecase.DetectionPipeline,
	replay *usecase.ReplayUseCase,
) xhttp.Handler {
	return api.NewEventsEchoHandler(lgr, candles, pipeline, replay)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	handler xhttp.Handler,
	guard *mid.StreamGuard,
	replay *usecase.ReplayUseCase,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	pub repository.SignalPublisher,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, lgr, handler, guard, replay, collector, consumer, kh, chClient, pub)
}
