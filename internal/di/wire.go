//go:build wireinject
// +build wireinject

package di

import (
	"SalesCast/pkg/config"
	"SalesCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisStore,

		// Repositories
		ProvideSalesReader,
		ProvideFeatureCache,
		ProvidePredictionStore,
		ProvideModelStore,
		ProvideTenantSettings,
		ProvideNotifier,

		// Use cases
		ProvidePipeline,
		ProvideRunHandler,

		// HTTP surface
		ProvideOpsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
