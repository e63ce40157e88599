//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"trwlexporter/internal"
	"trwlexporter/internal/controllers"
	"trwlexporter/internal/providers"
	"trwlexporter/internal/registry"
	"trwlexporter/internal/services"
	"trwlexporter/internal/statistic"
	"trwlexporter/internal/structures"
	"trwlexporter/internal/upstream"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewCacheProvider,
		providers.NewMetricsProvider,

		services.NewExporterService,
		upstream.NewClient,
		statistic.NewZstdCompressor,
		statistic.NewFileManager,
		statistic.NewScheduler,
		registry.NewRegistry,
		controllers.NewMetricsController,
		controllers.NewHealthController,
		controllers.NewAccountsController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
