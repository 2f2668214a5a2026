package backupchain

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

const tracerName = "github.com/Kargones/backupchain/internal/entity/backupchain"

// Result — итог выбора цепочек по всем базам вызова.
type Result struct {
	// Plans — планы по именам баз.
	Plans map[string]*Plan
	// Failures — базы, для которых план не построен. Отсортированы по имени базы.
	Failures []*DatabaseError
	// Warnings — некритичные замечания (фильтрация, разрывы цепочек).
	Warnings []string
}

// Databases возвращает имена баз с планами в порядке сортировки.
func (r *Result) Databases() []string {
	names := make([]string, 0, len(r.Plans))
	for name := range r.Plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records возвращает все записи планов: базы по имени, внутри базы — порядок применения.
func (r *Result) Records() []BackupRecord {
	var out []BackupRecord
	for _, name := range r.Databases() {
		out = append(out, r.Plans[name].Records()...)
	}
	return out
}

// Selector строит планы восстановления.
// Безопасен для конкурентного использования: состояние вызова не хранится.
type Selector struct {
	logger logging.Logger
	tracer trace.Tracer
}

// NewSelector создаёт Selector. nil logger заменяется NopLogger.
func NewSelector(logger logging.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Selector{
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Resolve выбирает для каждой базы минимальную цепочку FULL → [DIFF] → LOG…
//
// Ошибка возвращается только для всего вызова (CHAIN.AMBIGUOUS_CONTINUATION
// или отмена ctx). Ошибки отдельных баз — в Result.Failures, остальные
// базы обрабатываются независимо.
func (s *Selector) Resolve(ctx context.Context, records []BackupRecord, opts Options) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "backupchain.Resolve",
		trace.WithAttributes(attribute.Int("backupchain.records", len(records))))
	defer span.End()

	if err := checkAmbiguousContinuation(opts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	normalized := Normalize(records, opts.RestoreTime)
	scoped := FilterScope(normalized, opts.ServerNames, opts.DatabaseNames)
	groups, databases := groupByDatabase(scoped)
	states, warnings := resolveStates(databases, opts)
	for _, w := range warnings {
		s.logger.Warn(w)
	}

	s.logger.Debug("выбор цепочек бэкапов",
		"records", len(records),
		"in_scope", len(scoped),
		"databases", len(states),
		"continuation", len(opts.ContinuationPoints) > 0,
	)

	result := &Result{
		Plans:    make(map[string]*Plan, len(states)),
		Warnings: warnings,
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, parallelism)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, st := range states {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(st dbState) {
			defer wg.Done()
			defer func() { <-sem }()

			plan, warn, dbErr := s.resolveDatabase(ctx, groups[st.Database], st, opts.IgnoreLogs)

			mu.Lock()
			defer mu.Unlock()
			if dbErr != nil {
				result.Failures = append(result.Failures, dbErr)
				return
			}
			result.Plans[st.Database] = plan
			if warn != "" {
				result.Warnings = append(result.Warnings, warn)
			}
		}(st)
	}
	wg.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Database < result.Failures[j].Database
	})
	sort.Strings(result.Warnings)

	span.SetAttributes(
		attribute.Int("backupchain.plans", len(result.Plans)),
		attribute.Int("backupchain.failures", len(result.Failures)),
	)
	return result, nil
}

// resolveDatabase строит план одной базы.
func (s *Selector) resolveDatabase(ctx context.Context, records []BackupRecord, st dbState, ignoreLogs bool) (*Plan, string, *DatabaseError) {
	_, span := s.tracer.Start(ctx, "backupchain.resolveDatabase",
		trace.WithAttributes(
			attribute.String("backupchain.database", st.Database),
			attribute.Bool("backupchain.continued", st.IgnoreFull),
		))
	defer span.End()

	log := s.logger.With("database", st.Database)

	plan, warn, dbErr := s.buildPlan(records, st, ignoreLogs, log)
	if dbErr != nil {
		span.RecordError(dbErr)
		span.SetStatus(codes.Error, dbErr.Code())
		log.Error("план восстановления не построен", "code", dbErr.Code(), "error", dbErr.Err.Message)
		return nil, "", dbErr
	}
	span.SetAttributes(attribute.Int("backupchain.logs", len(plan.Logs)))
	return plan, warn, nil
}

func (s *Selector) buildPlan(records []BackupRecord, st dbState, ignoreLogs bool, log logging.Logger) (*Plan, string, *DatabaseError) {
	idx := indexSets(records)
	plan := &Plan{Database: st.Database, Continued: st.IgnoreFull}

	if st.IgnoreFull {
		if st.Continuation == nil || st.Continuation.RedoStartLSN.IsZero() {
			return nil, "", newDatabaseError(st.Database, ErrContinuationLookup,
				"у точки продолжения нет redo_start_lsn")
		}
		plan.Base = SyntheticFull{Checkpoint: st.Continuation.DifferentialBaseLSN}
	} else {
		full, dbErr := selectFull(records, idx, st.Database)
		if dbErr != nil {
			return nil, "", dbErr
		}
		plan.Base = full
		log.Debug("выбран полный бэкап", "backup_set_id", full.Record.BackupSetID, "last_lsn", full.Record.LastLSN)
	}

	if !st.IgnoreDiffs {
		diff, dbErr := selectDifferential(records, idx, plan.Base, st.Database)
		if dbErr != nil {
			return nil, "", dbErr
		}
		plan.Differential = diff
		if diff != nil {
			log.Debug("выбран дифференциальный бэкап", "backup_set_id", diff.BackupSetID, "last_lsn", diff.LastLSN)
		}
	}

	plan.Baseline = baselineFor(plan.Base, plan.Differential, st.Continuation)
	if ignoreLogs {
		return plan, "", nil
	}

	chain, dbErr := selectLogs(records, idx, plan.Base, plan.Baseline, st.Database)
	if dbErr != nil {
		return nil, "", dbErr
	}
	plan.Logs = chain.Logs
	plan.Truncated = chain.Truncated
	log.Debug("выбраны журналы транзакций", "count", len(chain.Logs), "baseline_lsn", plan.Baseline.LSN)

	var warn string
	if chain.Truncated {
		warn = "база " + st.Database + ": разрыв цепочки журналов после LSN " + chain.GapAt.String()
		log.Warn("цепочка журналов прервана разрывом LSN", "gap_after_lsn", chain.GapAt)
	}
	return plan, warn, nil
}
