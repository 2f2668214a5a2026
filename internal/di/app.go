package di

import (
	"context"
	"io"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/config"
	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/entity/history"
	"github.com/Kargones/backupchain/internal/pkg/logging"
	"github.com/Kargones/backupchain/internal/pkg/metrics"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

// App содержит инициализированные зависимости приложения.
// Создаётся через Wire DI в InitializeApp().
//
// При добавлении новых зависимостей:
// 1. Добавить поле в App struct
// 2. Создать провайдер в providers.go
// 3. Добавить провайдер в ProviderSet в wire.go
// 4. Перегенерировать wire_gen.go: go generate ./internal/di/...
type App struct {
	// Config передаётся извне через InitializeApp().
	Config *config.Config

	// Logger создаётся через ProvideLogger на основе секции logging.
	Logger logging.Logger

	// OutputWriter форматирует результаты команд (BC_OUTPUT_FORMAT).
	OutputWriter output.Writer

	// TraceID коррелирует логи, вывод и span-ы одного запуска.
	TraceID string

	// MetricsCollector отправляет метрики в Pushgateway.
	// Если метрики отключены — NopCollector.
	MetricsCollector metrics.Collector

	// TracerShutdown выгружает буферизированные span-ы.
	// Если трейсинг отключён — nop function.
	TracerShutdown func(context.Context) error

	// History — источник истории бэкапов (msdb или файл).
	// Если источник не настроен — Load возвращает ошибку конфигурации.
	History history.Source

	// Selector выбирает цепочки бэкапов.
	Selector *backupchain.Selector
}

// Env собирает окружение обработчика команды. stdout nil — os.Stdout.
func (a *App) Env(stdout io.Writer) *command.Env {
	return &command.Env{
		Config:   a.Config,
		Logger:   a.Logger.With("trace_id", a.TraceID),
		Writer:   a.OutputWriter,
		Metrics:  a.MetricsCollector,
		History:  a.History,
		Selector: a.Selector,
		TraceID:  a.TraceID,
		Stdout:   stdout,
	}
}
