// Package config загружает конфигурацию backupchain.
//
// Источники в порядке приоритета (последний выигрывает):
//  1. значения по умолчанию (тег env-default);
//  2. YAML-файл из BC_CONFIG_FILE, если задан;
//  3. переменные окружения BC_*.
//
// Значения по умолчанию применяются только к полям, оставшимся нулевыми
// после чтения YAML. Поэтому bool с env-default:"true" нельзя выключить
// через YAML, только через переменную окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/Kargones/backupchain/internal/pkg/apperrors"
)

// EnvConfigFile — переменная с путём к YAML-файлу конфигурации.
const EnvConfigFile = "BC_CONFIG_FILE"

// Config — конфигурация приложения.
type Config struct {
	// Command — имя выполняемой команды (например, "nr-restore-plan").
	Command string `yaml:"command" env:"BC_COMMAND"`

	// OutputFormat — формат вывода результата: "text" или "json".
	OutputFormat string `yaml:"outputFormat" env:"BC_OUTPUT_FORMAT" env-default:"text"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	MSSQL   MSSQLConfig   `yaml:"mssql"`
	Plan    PlanConfig    `yaml:"plan"`

	// File — путь к YAML, из которого загружена конфигурация. Пусто — только env.
	File string `yaml:"-"`
}

// Load читает конфигурацию из BC_CONFIG_FILE (если задан) и переменных окружения.
// Не валидирует результат: это делает Validate.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfigFile))
}

// LoadFile читает конфигурацию из указанного файла и переменных окружения.
// Пустой path — только переменные окружения.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrConfigParse,
				"не удалось прочитать переменные окружения", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrConfigLoad,
			fmt.Sprintf("файл конфигурации %s недоступен", path), err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrConfigParse,
			fmt.Sprintf("не удалось разобрать файл конфигурации %s", path), err)
	}
	cfg.File = path
	return &cfg, nil
}

// Validate проверяет все секции и возвращает AppError с кодом
// CONFIG.VALIDATION_FAILED, перечисляя все найденные проблемы.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("не задана команда (BC_COMMAND)"))
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("неизвестный формат вывода %q", c.OutputFormat))
	}
	errs = append(errs,
		c.Logging.validate(),
		c.Metrics.validate(),
		c.Tracing.validate(),
		c.MSSQL.validate(),
		c.Plan.validate(),
	)

	if err := errors.Join(errs...); err != nil {
		return apperrors.NewAppError(apperrors.ErrConfigValidate,
			"некорректная конфигурация", err)
	}
	return nil
}

// ValidateHistorySource проверяет, что выбранный источник истории
// настроен. Нужен только командам, которые читают историю.
func (c *Config) ValidateHistorySource() error {
	var err error
	switch c.Plan.HistorySource {
	case HistorySourceMSSQL:
		if c.MSSQL.Server == "" {
			err = errors.New("для источника mssql нужен BC_MSSQL_SERVER")
		}
	case HistorySourceFile:
		if c.Plan.HistoryFile == "" {
			err = errors.New("для источника file нужен BC_HISTORY_FILE")
		}
	default:
		err = fmt.Errorf("неизвестный источник истории %q", c.Plan.HistorySource)
	}
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrConfigValidate, "источник истории не настроен", err)
	}
	return nil
}
