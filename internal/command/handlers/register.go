// Package handlers регистрирует все команды приложения в реестре command.
package handlers

import (
	"errors"

	"github.com/Kargones/backupchain/internal/command/handlers/help"
	"github.com/Kargones/backupchain/internal/command/handlers/restoreplanhandler"
	"github.com/Kargones/backupchain/internal/command/handlers/version"
)

// RegisterAll регистрирует команды. Повторный вызов возвращает ошибку
// о дубликатах: реестр глобальный.
func RegisterAll() error {
	return errors.Join(
		restoreplanhandler.RegisterCmd(),
		version.RegisterCmd(),
		help.RegisterCmd(),
	)
}
