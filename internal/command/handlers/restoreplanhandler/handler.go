// Package restoreplanhandler реализует команду nr-restore-plan: построение
// плана восстановления баз SQL Server по истории резервных копий.
//
// Команда только выбирает бэкапы. RESTORE не выполняется.
package restoreplanhandler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Kargones/backupchain/internal/command"
	"github.com/Kargones/backupchain/internal/constants"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

// RegisterCmd регистрирует nr-restore-plan в реестре команд.
func RegisterCmd() error {
	return command.Register(&Handler{})
}

// Handler обрабатывает команду nr-restore-plan.
type Handler struct {
	// now — источник текущего времени для BC_LOOKBACK_DAYS. nil — time.Now.
	now func() time.Time
}

// Name возвращает имя команды.
func (h *Handler) Name() string {
	return constants.ActNRRestorePlan
}

// Description возвращает описание команды.
func (h *Handler) Description() string {
	return "Построение плана восстановления (FULL → DIFF → LOG) на момент BC_RESTORE_TIME. " +
		"BC_CONTINUE=true продолжает восстановление баз в состоянии RESTORING"
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// Execute загружает историю, строит планы и выводит результат.
// Если план построен не для всех баз, возвращает COMMAND.PARTIAL_FAILURE
// после вывода результата со статусом partial.
func (h *Handler) Execute(ctx context.Context, env *command.Env) error {
	start := time.Now()
	cfg := env.Config
	log := env.Logger.With("command", constants.ActNRRestorePlan, "trace_id", env.TraceID)

	opts, err := cfg.Plan.Options()
	if err != nil {
		return env.Fail(constants.ActNRRestorePlan, start,
			apperrors.NewAppError(apperrors.ErrConfigValidate, "некорректные параметры плана", err))
	}

	query := cfg.Plan.HistoryQuery(h.clock())
	log.Info("Загрузка истории бэкапов",
		"source", cfg.Plan.HistorySource,
		"databases", len(query.Databases),
		"continue", query.Continue,
	)
	snap, err := env.History.Load(ctx, query)
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.NewAppError(apperrors.ErrHistoryLoad, "не удалось загрузить историю бэкапов", err)
		}
		log.Error("Ошибка загрузки истории", "error", err.Error())
		return env.Fail(constants.ActNRRestorePlan, start, err)
	}
	if query.Continue && len(snap.ContinuationPoints) == 0 {
		log.Warn("Режим продолжения: нет баз в состоянии RESTORING, план строится с полного бэкапа")
	}

	opts.ContinuationPoints = snap.ContinuationPoints
	opts.LastRestoreTypes = snap.LastRestoreTypes

	res, err := env.Selector.Resolve(ctx, snap.Records, opts)
	if err != nil {
		log.Error("Ошибка выбора цепочки", "error", err.Error())
		return env.Fail(constants.ActNRRestorePlan, start, err)
	}

	data := newPlanData(res, opts, cfg.Plan.HistorySource, len(snap.Records))
	for _, p := range data.Plans {
		env.Metrics.RecordPlan(p.Database, len(p.Steps), p.Truncated)
	}
	for _, f := range data.Failures {
		env.Metrics.RecordPlanFailure(f.Database, f.Code)
		log.Warn("План не построен", "database", f.Database, "code", f.Code, "message", f.Message)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("Записей истории", strconv.Itoa(data.Records), "шт")
	summary.AddMetric("Планов построено", strconv.Itoa(len(data.Plans)), "")
	summary.AddMetric("Бэкапов в планах", strconv.Itoa(data.StepCount()), "шт")
	if len(data.Failures) > 0 {
		summary.AddMetric("Баз без плана", strconv.Itoa(len(data.Failures)), "")
	}
	for _, w := range data.Warnings {
		summary.AddWarning(w)
	}
	if len(data.Plans) == 0 && len(data.Failures) == 0 {
		summary.AddWarning("нет баз для восстановления: проверьте фильтры и глубину истории")
	}

	status := output.StatusSuccess
	if len(data.Failures) > 0 {
		status = output.StatusPartial
	}
	if err := env.Write(&output.Result{
		Status:   status,
		Command:  constants.ActNRRestorePlan,
		Data:     data,
		Metadata: env.Metadata(start),
		Summary:  summary,
	}); err != nil {
		return err
	}

	log.Info("План восстановления построен",
		"plans", len(data.Plans),
		"failures", len(data.Failures),
		"steps", data.StepCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(data.Failures) > 0 {
		return apperrors.NewAppError(apperrors.ErrCommandPartial,
			fmt.Sprintf("план не построен для %d из %d баз", len(data.Failures), len(data.Failures)+len(data.Plans)), nil)
	}
	return nil
}
