// Package metrics собирает метрики выполнения команд и построения планов
// и отправляет их в Prometheus Pushgateway.
//
// NewCollector выбирает реализацию по конфигурации: PrometheusCollector
// или NopCollector при выключенных метриках.
package metrics

import (
	"context"
	"time"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

// Collector — интерфейс сбора метрик.
type Collector interface {
	// RecordCommandStart отмечает начало команды. Для CLI in-flight не отслеживается.
	RecordCommandStart(command string)

	// RecordCommandEnd записывает длительность и результат команды.
	RecordCommandEnd(command string, duration time.Duration, success bool)

	// RecordPlan записывает построенный план восстановления базы.
	RecordPlan(database string, records int, truncated bool)

	// RecordPlanFailure записывает базу, для которой план не построен.
	RecordPlanFailure(database, code string)

	// Push отправляет метрики в Pushgateway.
	// Всегда возвращает nil: ошибки отправки только логируются.
	Push(ctx context.Context) error
}

// NewCollector возвращает NopCollector при выключенных метриках,
// иначе проверяет конфигурацию и создаёт PrometheusCollector.
func NewCollector(cfg Config, logger logging.Logger) (Collector, error) {
	if !cfg.Enabled {
		return NewNopCollector(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewPrometheusCollector(cfg, logger)
}
