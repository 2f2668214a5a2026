package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// LoggingConfig — настройки логирования (BC_LOG_*).
type LoggingConfig struct {
	// Level — debug, info, warn, error.
	Level string `yaml:"level" env:"BC_LOG_LEVEL" env-default:"info"`
	// Format — json или text.
	Format string `yaml:"format" env:"BC_LOG_FORMAT" env-default:"text"`
	// Output — stderr или file.
	Output   string `yaml:"output" env:"BC_LOG_OUTPUT" env-default:"stderr"`
	FilePath string `yaml:"filePath" env:"BC_LOG_FILE_PATH" env-default:"/var/log/backupchain.log"`

	MaxSize    int  `yaml:"maxSize" env:"BC_LOG_MAX_SIZE" env-default:"100"`
	MaxBackups int  `yaml:"maxBackups" env:"BC_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAge     int  `yaml:"maxAge" env:"BC_LOG_MAX_AGE" env-default:"7"`
	Compress   bool `yaml:"compress" env:"BC_LOG_COMPRESS" env-default:"true"`
}

func (c LoggingConfig) validate() error {
	var errs []error
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Level) {
		errs = append(errs, fmt.Errorf("logging: неизвестный уровень %q", c.Level))
	}
	if c.Format != "json" && c.Format != "text" {
		errs = append(errs, fmt.Errorf("logging: неизвестный формат %q", c.Format))
	}
	if c.Output != "stderr" && c.Output != "file" {
		errs = append(errs, fmt.Errorf("logging: неизвестный вывод %q", c.Output))
	}
	if c.Output == "file" && c.FilePath == "" {
		errs = append(errs, errors.New("logging: для output=file нужен filePath"))
	}
	return errors.Join(errs...)
}

// MetricsConfig — отправка метрик в Prometheus Pushgateway (BC_METRICS_*).
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"BC_METRICS_ENABLED"`
	// PushgatewayURL, например "http://pushgateway:9091".
	PushgatewayURL string        `yaml:"pushgatewayUrl" env:"BC_METRICS_PUSHGATEWAY_URL"`
	JobName        string        `yaml:"jobName" env:"BC_METRICS_JOB_NAME" env-default:"backupchain"`
	Timeout        time.Duration `yaml:"timeout" env:"BC_METRICS_TIMEOUT" env-default:"10s"`
	// InstanceLabel — значение label instance. Пусто — hostname.
	InstanceLabel string `yaml:"instanceLabel" env:"BC_METRICS_INSTANCE"`
}

func (c MetricsConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if u, err := url.Parse(c.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("metrics: некорректный pushgatewayUrl %q", c.PushgatewayURL)
	}
	if c.Timeout <= 0 {
		return errors.New("metrics: timeout должен быть положительным")
	}
	return nil
}

// TracingConfig — экспорт трейсов OpenTelemetry по OTLP HTTP (BC_TRACING_*).
type TracingConfig struct {
	Enabled bool `yaml:"enabled" env:"BC_TRACING_ENABLED"`
	// Endpoint, например "http://jaeger:4318".
	Endpoint    string `yaml:"endpoint" env:"BC_TRACING_ENDPOINT"`
	ServiceName string `yaml:"serviceName" env:"BC_TRACING_SERVICE_NAME" env-default:"backupchain"`
	Environment string `yaml:"environment" env:"BC_TRACING_ENVIRONMENT" env-default:"production"`
	// Insecure — HTTP вместо HTTPS.
	Insecure     bool          `yaml:"insecure" env:"BC_TRACING_INSECURE" env-default:"true"`
	Timeout      time.Duration `yaml:"timeout" env:"BC_TRACING_TIMEOUT" env-default:"5s"`
	SamplingRate float64       `yaml:"samplingRate" env:"BC_TRACING_SAMPLING_RATE" env-default:"1.0"`
}

func (c TracingConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if u, err := url.Parse(c.Endpoint); err != nil || u.Host == "" {
		return fmt.Errorf("tracing: некорректный endpoint %q", c.Endpoint)
	}
	if c.Timeout <= 0 {
		return errors.New("tracing: timeout должен быть положительным")
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("tracing: samplingRate должен быть от 0.0 до 1.0, получено: %g", c.SamplingRate)
	}
	return nil
}

// MSSQLConfig — подключение к SQL Server для чтения msdb (BC_MSSQL_*).
type MSSQLConfig struct {
	Server string `yaml:"server" env:"BC_MSSQL_SERVER"`
	Port   int    `yaml:"port" env:"BC_MSSQL_PORT" env-default:"1433"`
	User   string `yaml:"user" env:"BC_MSSQL_USER"`
	// Password в логи и вывод не попадает.
	Password string `yaml:"password" env:"BC_MSSQL_PASSWORD"`
	Database string `yaml:"database" env:"BC_MSSQL_DATABASE" env-default:"msdb"`

	Timeout      time.Duration `yaml:"timeout" env:"BC_MSSQL_TIMEOUT" env-default:"30s"`
	QueryTimeout time.Duration `yaml:"queryTimeout" env:"BC_MSSQL_QUERY_TIMEOUT" env-default:"5m"`
	Encrypt      bool          `yaml:"encrypt" env:"BC_MSSQL_ENCRYPT" env-default:"true"`
}

func (c MSSQLConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("mssql: некорректный порт %d", c.Port)
	}
	if c.Timeout < 0 || c.QueryTimeout < 0 {
		return errors.New("mssql: таймауты не могут быть отрицательными")
	}
	return nil
}
