//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ShopPulse/pkg/config"
	"ShopPulse/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideQueue,

		// Repositories
		ProvideProductStore,
		ProvidePaymentStore,
		ProvideHistoryStore,
		ProvideSaleStorage,
		ProvideSalePublisher,
		ProvideRecommendationPublisher,

		// Domain services
		ProvideRecommender,
		ProvideTrendReporter,
		ProvideCompetitionScorer,
		ProvidePaymentProcessor,

		// Use cases
		ProvideFeedHub,
		ProvidePricingUseCase,
		ProvideRepricer,
		ProvideScheduler,
		ProvidePaymentsUseCase,
		ProvideSaleProcessor,
		ProvideSalesPipeline,
		ProvideKafkaSalesHandler,

		// Transport
		ProvideHandlers,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
