// Package main содержит точку входа backupchain: выбор цепочек
// резервных копий SQL Server для восстановления на заданный момент.
//
// Команда задаётся BC_COMMAND или первым аргументом. Без команды
// выводится список команд.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/command/handlers"
	"github.com/Kargones/backupchain/internal/config"
	"github.com/Kargones/backupchain/internal/constants"
	"github.com/Kargones/backupchain/internal/di"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/tracing"
)

var (
	registerOnce sync.Once
	registerErr  error
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run возвращает exit code. os.Exit вызывается только в main,
// чтобы defer-ы (shutdown трейсинга, span.End) успели отработать.
func run(args []string, stdout, stderr io.Writer) int {
	registerOnce.Do(func() { registerErr = handlers.RegisterAll() })
	if registerErr != nil {
		fmt.Fprintf(stderr, "Ошибка регистрации команд: %v\n", registerErr)
		return constants.ExitFailure
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Не удалось загрузить конфигурацию: %v\n", err)
		return constants.ExitConfig
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		cfg.Command = strings.TrimSpace(args[0])
	}
	if cfg.Command == "" {
		cfg.Command = constants.ActHelp
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Некорректная конфигурация: %v\n", err)
		return constants.ExitConfig
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Ошибка инициализации приложения: %v\n", err)
		return constants.ExitFailure
	}
	l := app.Logger.With("trace_id", app.TraceID, "command", cfg.Command)
	l.Debug("Информация о сборке",
		"version", constants.Version,
		"commit_hash", constants.PreCommitHash,
	)

	ctx := tracing.WithTraceID(context.Background(), app.TraceID)
	ctx = tracing.ContextWithOTelTraceID(ctx, app.TraceID)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.TracerShutdown(shutdownCtx); err != nil {
			l.Error("ошибка завершения tracing", "error", err.Error())
		}
	}()

	ctx, span := otel.Tracer("backupchain").Start(ctx, cfg.Command,
		trace.WithAttributes(
			attribute.String("command", cfg.Command),
			attribute.String("trace_id", app.TraceID),
		),
	)
	defer span.End()

	env := app.Env(stdout)
	start := time.Now()
	app.MetricsCollector.RecordCommandStart(cfg.Command)

	handler, ok := command.Get(cfg.Command)
	if !ok {
		err := apperrors.NewAppError(apperrors.ErrCommandNotFound,
			fmt.Sprintf("неизвестная команда %q, доступны: %s", cfg.Command, strings.Join(command.Names(), ", ")), nil)
		_ = env.Fail(cfg.Command, start, err)
		l.Error("неизвестная команда", constants.MsgErrProcessing, constants.MsgAppExit)
		span.SetStatus(codes.Error, err.Error())
		return constants.ExitConfig
	}

	execErr := handler.Execute(ctx, env)

	partial := apperrors.HasCode(execErr, apperrors.ErrCommandPartial)
	app.MetricsCollector.RecordCommandEnd(cfg.Command, time.Since(start), execErr == nil)
	_ = app.MetricsCollector.Push(ctx) // ошибки push логируются внутри

	switch {
	case execErr == nil:
		return constants.ExitOK
	case partial:
		l.Warn("Команда выполнена частично", "error", execErr.Error())
		span.SetStatus(codes.Error, execErr.Error())
		return constants.ExitPartial
	default:
		l.Error("Ошибка выполнения команды",
			"error", execErr.Error(),
			constants.MsgErrProcessing, constants.MsgAppExit,
		)
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		return constants.ExitFailure
	}
}
