//go:build wireinject
// +build wireinject

package di

import (
	"GeoPulse/pkg/config"
	"GeoPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideHistoryStore,
		ProvidePublisher,
		ProvideKafkaConsumer,
		ProvideKafkaObservationsHandler,
		ProvideCache,
		ProvideHTTPClient,
		ProvideStore,
		ProvideSnapshotReader,

		// Sources
		ProvideMarketSource,
		ProvideContractStream,
		ProvideFinancialSource,
		ProvideGroundSource,

		// Use cases
		ProvideRecorder,
		ProvideMarketRefresher,
		ProvideFinancialRefresher,
		ProvideGroundRefresher,
		ProvideNarrativeRefresher,
		ProvideConnectivityRefresher,
		ProvideSupplementalRefresher,
		ProvideSnapshotBuilder,
		ProvideRefresher,
		ProvideCollector,
		ProvideScheduler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
