package logging

import (
	"fmt"
	"slices"
)

// Поддерживаемые форматы вывода логов.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Поддерживаемые уровни логирования.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Поддерживаемые типы вывода логов.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Значения по умолчанию для Config.
const (
	DefaultLevel      = LevelInfo
	DefaultFormat     = FormatText
	DefaultOutput     = OutputStderr
	DefaultFilePath   = "/var/log/backupchain.log"
	DefaultMaxSize    = 100 // MB
	DefaultMaxBackups = 3
	DefaultMaxAge     = 7 // days
	DefaultCompress   = true
)

// DefaultConfig возвращает Config со значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		Level:      DefaultLevel,
		Format:     DefaultFormat,
		Output:     DefaultOutput,
		FilePath:   DefaultFilePath,
		MaxSize:    DefaultMaxSize,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAge,
		Compress:   DefaultCompress,
	}
}

// Config содержит настройки логирования.
// Поля заполняются из секции logging конфигурации (переменные BC_LOG_*).
type Config struct {
	// Format — "json" или "text".
	Format string
	// Level — минимальный уровень: "debug", "info", "warn", "error".
	Level string
	// Output — "stderr" или "file".
	Output string
	// FilePath — путь к файлу логов при Output="file".
	FilePath string
	// MaxSize — размер файла в МБ до ротации.
	MaxSize int
	// MaxBackups — количество файлов ротации.
	MaxBackups int
	// MaxAge — возраст файлов ротации в днях.
	MaxAge int
	// Compress — сжимать файлы ротации в gzip.
	Compress bool
}

// Validate проверяет допустимость значений. Пустые значения допустимы:
// для них используются значения по умолчанию.
func (c Config) Validate() error {
	if c.Level != "" && !slices.Contains([]string{LevelDebug, LevelInfo, LevelWarn, LevelError}, c.Level) {
		return fmt.Errorf("неизвестный уровень логирования %q", c.Level)
	}
	if c.Format != "" && c.Format != FormatJSON && c.Format != FormatText {
		return fmt.Errorf("неизвестный формат логов %q", c.Format)
	}
	if c.Output != "" && c.Output != OutputStderr && c.Output != OutputFile {
		return fmt.Errorf("неизвестный вывод логов %q", c.Output)
	}
	if c.Output == OutputFile && c.FilePath == "" {
		return fmt.Errorf("для вывода в файл нужен путь к файлу логов")
	}
	return nil
}
