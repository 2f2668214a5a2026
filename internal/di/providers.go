package di

import (
	"context"

	"github.com/Kargones/backupchain/internal/adapter/mssql"
	"github.com/Kargones/backupchain/internal/config"
	"github.com/Kargones/backupchain/internal/constants"
	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/entity/history"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/logging"
	"github.com/Kargones/backupchain/internal/pkg/metrics"
	"github.com/Kargones/backupchain/internal/pkg/output"
	"github.com/Kargones/backupchain/internal/pkg/tracing"
)

// ProvideLogger создаёт Logger на основе секции logging.
//
// Пустые поля заменяются значениями logging.DefaultConfig():
//   - Level: "info"
//   - Format: "text"
//   - Output: "stderr"
func ProvideLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg == nil {
		return logging.NewLogger(logCfg)
	}

	lc := cfg.Logging
	if lc.Level != "" {
		logCfg.Level = lc.Level
	}
	if lc.Format != "" {
		logCfg.Format = lc.Format
	}
	if lc.Output != "" {
		logCfg.Output = lc.Output
	}
	if lc.FilePath != "" {
		logCfg.FilePath = lc.FilePath
	}
	// env-default гарантирует ненулевые значения; 0 MB для lumberjack не имеет смысла
	if lc.MaxSize > 0 {
		logCfg.MaxSize = lc.MaxSize
	}
	if lc.MaxBackups > 0 {
		logCfg.MaxBackups = lc.MaxBackups
	}
	if lc.MaxAge > 0 {
		logCfg.MaxAge = lc.MaxAge
	}
	logCfg.Compress = lc.Compress

	return logging.NewLogger(logCfg)
}

// ProvideOutputWriter создаёт JSONWriter или TextWriter по BC_OUTPUT_FORMAT.
func ProvideOutputWriter(cfg *config.Config) output.Writer {
	if cfg == nil || cfg.OutputFormat == "" {
		return output.NewWriter(output.FormatText)
	}
	return output.NewWriter(cfg.OutputFormat)
}

// ProvideTraceID генерирует trace_id запуска: 32-символьный hex.
func ProvideTraceID() string {
	return tracing.GenerateTraceID()
}

// ProvideMetricsCollector создаёт Collector на основе секции metrics.
// При ошибке создания возвращает NopCollector и логирует ошибку.
func ProvideMetricsCollector(cfg *config.Config, logger logging.Logger) metrics.Collector {
	if cfg == nil {
		return metrics.NewNopCollector()
	}

	collector, err := metrics.NewCollector(metrics.Config{
		Enabled:        cfg.Metrics.Enabled,
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		JobName:        cfg.Metrics.JobName,
		Timeout:        cfg.Metrics.Timeout,
		InstanceLabel:  cfg.Metrics.InstanceLabel,
	}, logger)
	if err != nil {
		logger.Error("ошибка создания MetricsCollector, используется NopCollector",
			"error", err.Error(),
		)
		return metrics.NewNopCollector()
	}
	return collector
}

// ProvideTracerProvider инициализирует OTel TracerProvider и возвращает
// shutdown function. При ошибке возвращает nop shutdown и логирует ошибку.
func ProvideTracerProvider(cfg *config.Config, logger logging.Logger) func(context.Context) error {
	if cfg == nil {
		return tracing.NewNopTracerProvider()
	}

	shutdown, err := tracing.NewTracerProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Endpoint:     cfg.Tracing.Endpoint,
		ServiceName:  cfg.Tracing.ServiceName,
		Version:      constants.Version,
		Environment:  cfg.Tracing.Environment,
		Insecure:     cfg.Tracing.Insecure,
		Timeout:      cfg.Tracing.Timeout,
		SamplingRate: cfg.Tracing.SamplingRate,
	}, logger)
	if err != nil {
		logger.Error("ошибка создания TracerProvider, трейсинг отключён",
			"error", err.Error(),
		)
		return tracing.NewNopTracerProvider()
	}
	return shutdown
}

// ProvideHistorySource выбирает источник истории по BC_HISTORY_SOURCE.
// Ненастроенный источник не мешает командам, которым история не нужна:
// вместо него возвращается history.Unavailable с ошибкой конфигурации.
func ProvideHistorySource(cfg *config.Config, logger logging.Logger) history.Source {
	if cfg == nil {
		return history.Unavailable(apperrors.NewAppError(apperrors.ErrConfigValidate,
			"конфигурация не загружена", nil))
	}
	if err := cfg.ValidateHistorySource(); err != nil {
		return history.Unavailable(err)
	}

	if cfg.Plan.HistorySource == config.HistorySourceFile {
		return history.NewFileSource(cfg.Plan.HistoryFile, cfg.Plan.HistoryEncoding, logger)
	}

	client, err := mssql.NewClientWithEncrypt(mssql.ClientOptions{
		Server:       cfg.MSSQL.Server,
		Port:         cfg.MSSQL.Port,
		User:         cfg.MSSQL.User,
		Password:     cfg.MSSQL.Password,
		Database:     cfg.MSSQL.Database,
		Timeout:      cfg.MSSQL.Timeout,
		QueryTimeout: cfg.MSSQL.QueryTimeout,
	}, cfg.MSSQL.Encrypt)
	if err != nil {
		return history.Unavailable(apperrors.NewAppError(apperrors.ErrConfigValidate,
			"некорректные параметры подключения к SQL Server", err))
	}
	return history.NewMSSQLSource(client, logger)
}

// ProvideSelector создаёт Selector цепочек бэкапов.
func ProvideSelector(logger logging.Logger) *backupchain.Selector {
	return backupchain.NewSelector(logger)
}
