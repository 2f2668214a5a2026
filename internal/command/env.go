package command

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/Kargones/backupchain/internal/config"
	"github.com/Kargones/backupchain/internal/constants"
	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/entity/history"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/logging"
	"github.com/Kargones/backupchain/internal/pkg/metrics"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

// Env — зависимости, доступные обработчику. Собирается из di.App.
type Env struct {
	Config   *config.Config
	Logger   logging.Logger
	Writer   output.Writer
	Metrics  metrics.Collector
	History  history.Source
	Selector *backupchain.Selector
	TraceID  string

	// Stdout — куда пишется результат. nil — os.Stdout.
	Stdout io.Writer
}

func (e *Env) out() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

// Metadata заполняет метаданные результата относительно start.
func (e *Env) Metadata(start time.Time) *output.Metadata {
	return &output.Metadata{
		DurationMs: time.Since(start).Milliseconds(),
		TraceID:    e.TraceID,
		APIVersion: constants.APIVersion,
	}
}

// Write выводит result через Writer окружения.
func (e *Env) Write(result *output.Result) error {
	if err := e.Writer.Write(e.out(), result); err != nil {
		return apperrors.NewAppError(apperrors.ErrOutputFormat, "не удалось вывести результат", err)
	}
	return nil
}

// Fail выводит результат со статусом error и возвращает err.
// Код ошибки берётся из цепочки err, по умолчанию COMMAND.EXEC_FAILED.
// Ошибка записи результата только логируется: исходная ошибка важнее.
func (e *Env) Fail(cmd string, start time.Time, err error) error {
	code := apperrors.CodeOf(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Cause != nil {
			message += ": " + appErr.Cause.Error()
		}
	}
	if code == "" {
		code = apperrors.ErrCommandExec
	}

	result := &output.Result{
		Status:   output.StatusError,
		Command:  cmd,
		Error:    &output.ErrorInfo{Code: code, Message: message},
		Metadata: e.Metadata(start),
	}
	if writeErr := e.Writer.Write(e.out(), result); writeErr != nil {
		e.Logger.Error("не удалось вывести результат с ошибкой",
			"command", cmd,
			"error", writeErr.Error(),
		)
	}
	return err
}
