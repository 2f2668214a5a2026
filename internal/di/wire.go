//go:build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Kargones/backupchain/internal/config"
)

//go:generate wire

// ProviderSet объединяет все провайдеры приложения.
//
// При добавлении новых провайдеров:
// 1. Создать функцию провайдера в providers.go
// 2. Добавить её в ProviderSet
// 3. Перегенерировать: go generate ./internal/di/...
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideOutputWriter,
	ProvideTraceID,
	ProvideMetricsCollector,
	ProvideTracerProvider,
	ProvideHistorySource,
	ProvideSelector,
	wire.Struct(new(App), "*"),
)

// InitializeApp создаёт App через Wire DI. Реализация генерируется
// в wire_gen.go.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	app, err := di.InitializeApp(cfg)
func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
