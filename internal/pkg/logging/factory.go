package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger создаёт Logger по конфигурации.
//
// Output="file" пишет в файл с ротацией через lumberjack, иначе в stderr.
// Stdout не используется никогда: туда пишется результат команды.
func NewLogger(config Config) Logger {
	var w io.Writer = os.Stderr
	if config.Output == OutputFile {
		w = fileWriter(config)
	}
	return NewLoggerWithWriter(config, w)
}

// fileWriter возвращает writer с ротацией. При невозможности создать
// каталог логов пишет предупреждение в stderr и возвращает os.Stderr.
func fileWriter(config Config) io.Writer {
	if config.FilePath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "WARNING: logging output=file без пути к файлу, используется stderr")
		return os.Stderr
	}
	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "WARNING: не удалось создать каталог логов %q: %v, используется stderr\n", dir, err)
			return os.Stderr
		}
	}
	return &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
}

// NewLoggerWithWriter создаёт Logger, пишущий в w. Используется в тестах.
func NewLoggerWithWriter(config Config, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}
	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// parseLevel конвертирует строковый уровень в slog.Level; неизвестный — info.
func parseLevel(level string) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
