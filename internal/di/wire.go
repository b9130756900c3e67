//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"WalletPnL/internal/usecase"
	"WalletPnL/pkg/config"
	"WalletPnL/pkg/server"
)

// analysisSet builds the provider-facing analysis stack.
var analysisSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideRateLimiter,
	ProvideActivityProviders,
	ProvideActivityFetcher,
	ProvidePriceResolver,
	ProvideMetadataResolver,
	ProvideAnalyzer,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		analysisSet,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideKafkaConsumer,
		ProvideJobQueue,

		// Repositories
		ProvideSummaryCache,
		ProvideSummaryStore,

		// Use cases
		ProvideSummaryProcessor,
		ProvideSinkPipeline,
		ProvidePnLService,
		ProvideJobService,
		ProvideKafkaRequestHandler,

		// Transport
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeAnalyzer wires only the analysis stack for one-shot runs.
func InitializeAnalyzer(cfg *config.Config) (*usecase.Analyzer, error) {
	wire.Build(analysisSet)
	return &usecase.Analyzer{}, nil
}
