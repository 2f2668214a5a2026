package backupchain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Kargones/backupchain/internal/pkg/apperrors"
)

// dbState — решение резолвера продолжения для одной базы.
type dbState struct {
	// Database — имя базы в истории бэкапов.
	Database string
	// Target — имя базы на целевом сервере (после переименования).
	Target string
	// IgnoreFull — база продолжает восстановление, full не нужен.
	IgnoreFull bool
	// IgnoreDiffs — diff не применяется.
	IgnoreDiffs bool
	// Continuation — точка продолжения (только при IgnoreFull).
	Continuation *ContinuationPoint
}

// checkAmbiguousContinuation проверяет, что продолжение не запрошено
// сразу для нескольких переименованных баз: по точкам продолжения
// нельзя однозначно сопоставить исходные и целевые имена.
func checkAmbiguousContinuation(opts Options) error {
	if len(opts.ContinuationPoints) == 0 {
		return nil
	}
	renamed := make(map[string]struct{})
	targets := make(map[string]struct{})
	for src, dst := range opts.TargetNames {
		if strings.TrimSpace(dst) == "" || foldName(src) == foldName(dst) {
			continue
		}
		renamed[foldName(src)] = struct{}{}
		targets[foldName(dst)] = struct{}{}
	}
	if len(renamed) > 1 && len(targets) > 1 {
		return apperrors.NewAppError(ErrAmbiguousContinuation,
			fmt.Sprintf("продолжение восстановления невозможно для %d переименованных баз одновременно", len(renamed)),
			nil)
	}
	return nil
}

// targetName возвращает имя базы на целевом сервере.
func targetName(database string, renames map[string]string) string {
	for src, dst := range renames {
		if strings.TrimSpace(dst) != "" && foldName(src) == foldName(database) {
			return dst
		}
	}
	return database
}

// resolveStates определяет для каждой базы режим построения цепочки.
//
// Без точек продолжения все базы восстанавливаются с нуля. С точками:
//   - если фильтр баз задан явно, базы вне набора продолжения
//     восстанавливаются с нуля (с предупреждением);
//   - если фильтр не задан, обрабатываются только базы из набора продолжения.
//
// Возвращает состояния в порядке имён баз и предупреждения.
func resolveStates(databases []string, opts Options) ([]dbState, []string) {
	var warnings []string

	points := make(map[string]ContinuationPoint, len(opts.ContinuationPoints))
	for _, cp := range opts.ContinuationPoints {
		points[foldName(cp.Database)] = cp
	}
	lastTypes := make(map[string]BackupType, len(opts.LastRestoreTypes))
	for _, lr := range opts.LastRestoreTypes {
		lastTypes[foldName(lr.Database)] = lr.RestoreType
	}
	continuing := len(opts.ContinuationPoints) > 0
	explicitFilter := len(newNameSet(opts.DatabaseNames)) > 0

	states := make([]dbState, 0, len(databases))
	var dropped []string
	for _, db := range databases {
		st := dbState{
			Database:    db,
			Target:      targetName(db, opts.TargetNames),
			IgnoreDiffs: opts.IgnoreDiffs,
		}
		if continuing {
			cp, ok := points[foldName(st.Target)]
			switch {
			case ok:
				st.IgnoreFull = true
				st.Continuation = &cp
				// применённый лог или diff исключают наложение diff
				switch lastTypes[foldName(st.Target)] {
				case BackupTypeLog, BackupTypeDifferential:
					st.IgnoreDiffs = true
				}
			case explicitFilter:
				warnings = append(warnings, fmt.Sprintf(
					"база %s отсутствует среди точек продолжения, будет выполнено полное восстановление", db))
			default:
				continue
			}
		}
		states = append(states, st)
	}

	if continuing && explicitFilter {
		for _, name := range opts.DatabaseNames {
			if _, ok := points[foldName(targetName(name, opts.TargetNames))]; !ok && !containsFold(databases, name) {
				dropped = append(dropped, name)
			}
		}
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		warnings = append(warnings, fmt.Sprintf(
			"базы %s отфильтрованы: нет ни истории бэкапов, ни точки продолжения", strings.Join(dropped, ", ")))
	}
	return states, warnings
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if foldName(n) == foldName(name) {
			return true
		}
	}
	return false
}
