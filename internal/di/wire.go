//go:build wireinject
// +build wireinject

package di

import (
	"TradeScope/pkg/config"
	"TradeScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Collection and analysis
		ProvideMarketDataClient,
		ProvideCollectors,
		ProvideAgents,
		ProvideStrategyStore,

		// Repositories
		ProvideResultStore,
		ProvideRunArchive,
		ProvideDecisionPublisher,
		ProvideQueue,
		ProvideRunRecorder,

		// Use cases
		ProvideStepExecutor,
		ProvideAgentCoordinator,
		ProvideSynthesizer,
		ProvideOrchestrator,

		// HTTP surface
		ProvideHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
