package metrics

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

const namespace = "backupchain"

// PrometheusCollector реализует Collector на собственном registry.
// Метрики отправляются в Pushgateway вызовом Push().
type PrometheusCollector struct {
	config   Config
	logger   logging.Logger
	registry *prometheus.Registry
	instance string

	commandDuration *prometheus.HistogramVec
	commandTotal    *prometheus.CounterVec
	plansTotal      *prometheus.CounterVec
	planFailures    *prometheus.CounterVec
	planRecords     *prometheus.HistogramVec
}

// NewPrometheusCollector создаёт PrometheusCollector и регистрирует метрики:
//   - backupchain_command_duration_seconds (histogram)
//   - backupchain_command_total (counter, label status)
//   - backupchain_plans_total (counter, label truncated)
//   - backupchain_plan_failures_total (counter, label code)
//   - backupchain_plan_records (histogram)
func NewPrometheusCollector(config Config, logger logging.Logger) (*PrometheusCollector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	instance := config.InstanceLabel
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logger.Warn("не удалось получить hostname для label instance", "error", err.Error())
			hostname = "unknown"
		}
		instance = hostname
	}

	c := &PrometheusCollector{
		config:   config,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		instance: instance,
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of command execution in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"command", "status"}),
		commandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_total",
			Help:      "Total number of command executions",
		}, []string{"command", "status"}),
		plansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Total number of restore plans built",
		}, []string{"database", "truncated"}),
		planFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_failures_total",
			Help:      "Total number of databases without a restore plan",
		}, []string{"database", "code"}),
		planRecords: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_records",
			Help:      "Number of backups in a restore plan",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"database"}),
	}

	for _, m := range []prometheus.Collector{c.commandDuration, c.commandTotal, c.plansTotal, c.planFailures, c.planRecords} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("ошибка регистрации метрики: %w", err)
		}
	}
	return c, nil
}

// maxLabelLength ограничивает длину значения label.
const maxLabelLength = 128

// sanitizeLabel заменяет управляющие символы и обрезает значение по рунам.
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, value)
	if runes := []rune(clean); len(runes) > maxLabelLength {
		return string(runes[:maxLabelLength])
	}
	return clean
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordCommandStart только логирует: метрики пишутся при завершении.
func (c *PrometheusCollector) RecordCommandStart(command string) {
	c.logger.Debug("metrics: command started", "command", command)
}

// RecordCommandEnd обновляет histogram длительности и счётчик команд.
func (c *PrometheusCollector) RecordCommandEnd(command string, duration time.Duration, success bool) {
	command = sanitizeLabel(command)
	status := statusLabel(success)
	c.commandDuration.WithLabelValues(command, status).Observe(duration.Seconds())
	c.commandTotal.WithLabelValues(command, status).Inc()
}

// RecordPlan учитывает построенный план.
func (c *PrometheusCollector) RecordPlan(database string, records int, truncated bool) {
	database = sanitizeLabel(database)
	c.plansTotal.WithLabelValues(database, strconv.FormatBool(truncated)).Inc()
	c.planRecords.WithLabelValues(database).Observe(float64(records))
}

// RecordPlanFailure учитывает базу без плана.
func (c *PrometheusCollector) RecordPlanFailure(database, code string) {
	c.planFailures.WithLabelValues(sanitizeLabel(database), sanitizeLabel(code)).Inc()
}

// Push отправляет метрики в Pushgateway. Ошибка отправки не критична
// для команды: логируется, а метод возвращает nil.
func (c *PrometheusCollector) Push(ctx context.Context) error {
	if ctx.Err() != nil {
		c.logger.Debug("metrics push отменён")
		return nil
	}

	pushCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	err := push.New(c.config.PushgatewayURL, c.config.JobName).
		Gatherer(c.registry).
		Grouping("instance", c.instance).
		PushContext(pushCtx)
	if err != nil {
		c.logger.Error("ошибка отправки метрик в Pushgateway",
			"error", err.Error(),
			"url", maskURL(c.config.PushgatewayURL),
			"job", c.config.JobName,
		)
		return nil
	}

	c.logger.Info("метрики отправлены в Pushgateway",
		"url", maskURL(c.config.PushgatewayURL),
		"job", c.config.JobName,
		"instance", c.instance,
	)
	return nil
}

// Registry возвращает registry коллектора. Используется в тестах.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}
