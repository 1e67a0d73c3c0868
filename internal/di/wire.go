//go:build wireinject
// +build wireinject

package di

import (
	"SweepSim/pkg/config"
	"SweepSim/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideQueuePublisher,
		ProvideCacheService,

		// Repositories
		ProvideCandleStore,
		ProvideTradeSink,
		ProvideSignalPublisher,
		ProvideLevelSource,
		ProvideMarketStream,

		// Core pipeline
		ProvidePipeline,
		ProvideStreamGuard,

		// Use cases
		ProvideReplayUseCase,
		ProvideCandlesUseCase,
		ProvideCandleCollector,
		ProvideKafkaCandlesHandler,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
