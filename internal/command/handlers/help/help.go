// Package help реализует команду help: список зарегистрированных команд.
package help

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/constants"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

// RegisterCmd регистрирует help в реестре команд.
func RegisterCmd() error {
	return command.Register(&Handler{})
}

// Data содержит список команд.
type Data struct {
	Commands []CommandInfo `json:"commands"`
}

// CommandInfo описывает одну команду.
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// WriteText выводит команды столбцом.
func (d *Data) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Доступные команды (BC_COMMAND):"); err != nil {
		return err
	}
	for _, c := range d.Commands {
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", c.Name, c.Description); err != nil {
			return err
		}
	}
	return nil
}

func buildData() *Data {
	handlers := command.All()
	data := &Data{Commands: make([]CommandInfo, 0, len(handlers))}
	for name, h := range handlers {
		data.Commands = append(data.Commands, CommandInfo{Name: name, Description: h.Description()})
	}
	sort.Slice(data.Commands, func(i, j int) bool {
		return data.Commands[i].Name < data.Commands[j].Name
	})
	return data
}

// Handler обрабатывает команду help.
type Handler struct{}

// Name возвращает имя команды.
func (h *Handler) Name() string {
	return constants.ActHelp
}

// Description возвращает описание команды.
func (h *Handler) Description() string {
	return "Вывод списка доступных команд"
}

// Execute выводит список команд.
func (h *Handler) Execute(_ context.Context, env *command.Env) error {
	start := time.Now()
	return env.Write(&output.Result{
		Status:   output.StatusSuccess,
		Command:  constants.ActHelp,
		Data:     buildData(),
		Metadata: env.Metadata(start),
	})
}
