// Package version реализует команду nr-version: версия сборки и список команд.
package version

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/constants"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

// RegisterCmd регистрирует nr-version в реестре команд.
func RegisterCmd() error {
	return command.Register(&Handler{})
}

// Data — информация о сборке.
type Data struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Commit    string `json:"commit"`
	// Commands — зарегистрированные команды.
	Commands []string `json:"commands"`
}

// WriteText выводит версию в компактном виде.
func (d *Data) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "backupchain version %s\n  Go:     %s\n  Commit: %s\n",
		d.Version, d.GoVersion, d.Commit)
	return err
}

func buildData(version, commit string) *Data {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	return &Data{
		Version:   version,
		GoVersion: runtime.Version(),
		Commit:    commit,
		Commands:  command.Names(),
	}
}

// Handler обрабатывает команду nr-version.
type Handler struct{}

// Name возвращает имя команды.
func (h *Handler) Name() string {
	return constants.ActNRVersion
}

// Description возвращает описание команды.
func (h *Handler) Description() string {
	return "Вывод информации о версии приложения"
}

// Execute выводит версию. Историю бэкапов и MSSQL не использует.
func (h *Handler) Execute(_ context.Context, env *command.Env) error {
	start := time.Now()
	return env.Write(&output.Result{
		Status:   output.StatusSuccess,
		Command:  constants.ActNRVersion,
		Data:     buildData(constants.Version, constants.PreCommitHash),
		Metadata: env.Metadata(start),
	})
}
