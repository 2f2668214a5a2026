// Package command предоставляет интерфейс обработчика команды и реестр команд.
// Обработчики регистрируются явно через handlers.RegisterAll() из main.
package command

import "context"

// Handler определяет интерфейс обработчика команды.
type Handler interface {
	// Name возвращает имя команды в kebab-case (например, "nr-restore-plan").
	Name() string

	// Description возвращает описание команды для вывода в help.
	Description() string

	// Execute выполняет команду. Результат пишется в env.Stdout через env.Writer,
	// ошибка возвращается с кодом apperrors для выбора кода завершения.
	Execute(ctx context.Context, env *Env) error
}
