// Package logging предоставляет интерфейс структурированного логирования
// и его реализации поверх log/slog.
package logging

// Logger — структурированный логгер.
// Реализации: SlogAdapter (production), NopLogger (тесты).
//
//	logger.Warn("цепочка журналов прервана", "database", db, "gap_after_lsn", lsn)
//
// Logger пишет только в stderr или файл, никогда в stdout.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With возвращает Logger с атрибутами, добавляемыми ко всем записям.
	With(args ...any) Logger
}
