//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"StockScan/internal/app"
	"StockScan/pkg/config"
)

// InitializeApp wires the whole process graph from configuration.
func InitializeApp(cfg *config.Config) (*app.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideCache,
		ProvideClickHouse,
		ProvideMetrics,
		ProvideBarStore,
		ProvideUniverseProvider,
		ProvideRunSink,
		ProvideCheckpointStore,
		ProvidePublisher,
		ProvideFetcher,
		ProvideStrategy,
		ProvideGates,
		ProvidePipeline,
		ProvideScanner,
		ProvideCheckpointManager,
		ProvideOrchestrator,
		ProvideServer,
		ProvideApp,
	)
	return nil, nil
}
