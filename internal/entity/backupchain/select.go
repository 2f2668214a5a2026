package backupchain

import (
	"fmt"
	"slices"
	"strings"
)

// setIndex — файлы каждого backup set в порядке появления во входных данных.
type setIndex map[string][]string

// indexSets собирает пути файлов по BackupSetID.
func indexSets(records []BackupRecord) setIndex {
	idx := make(setIndex)
	for _, r := range records {
		if r.BackupSetID == "" {
			continue
		}
		for _, p := range r.FullName {
			p = strings.TrimSpace(p)
			if p == "" || slices.Contains(idx[r.BackupSetID], p) {
				continue
			}
			idx[r.BackupSetID] = append(idx[r.BackupSetID], p)
		}
	}
	return idx
}

// assemble строит запись плана: новое значение с объединённым списком
// файлов backup set. Возвращает false, если файлов нет.
func (idx setIndex) assemble(r BackupRecord) (BackupRecord, bool) {
	var files []string
	if r.BackupSetID != "" {
		files = slices.Clone(idx[r.BackupSetID])
	} else {
		for _, p := range r.FullName {
			if p = strings.TrimSpace(p); p != "" {
				files = append(files, p)
			}
		}
	}
	if len(files) == 0 {
		return BackupRecord{}, false
	}
	r.FullName = files
	return r, true
}

// better сообщает, что a предпочтительнее b: больший LastLSN,
// при равенстве — меньший BackupSetID.
func better(a, b *BackupRecord) bool {
	if c := a.LastLSN.Cmp(b.LastLSN); c != 0 {
		return c > 0
	}
	return a.BackupSetID < b.BackupSetID
}

// selectFull выбирает последний полный бэкап, завершённый не позже целевого момента.
func selectFull(records []BackupRecord, idx setIndex, database string) (FullBackup, *DatabaseError) {
	var best *BackupRecord
	for i := range records {
		r := &records[i]
		if r.Type != BackupTypeFull || r.End.After(r.RestoreTime) {
			continue
		}
		if best == nil || better(r, best) {
			best = r
		}
	}
	if best == nil {
		return FullBackup{}, newDatabaseError(database, ErrNoFullBackup,
			"нет полного бэкапа до целевого момента восстановления")
	}
	rec, ok := idx.assemble(*best)
	if !ok {
		return FullBackup{}, newDatabaseError(database, ErrUnresolvedFiles,
			fmt.Sprintf("у полного бэкапа %s нет файлов", best.BackupSetID))
	}
	return FullBackup{Record: rec}, nil
}

// selectDifferential выбирает последний diff, привязанный к основанию цепочки.
// Отсутствие подходящего diff — не ошибка.
func selectDifferential(records []BackupRecord, idx setIndex, base ChainBase, database string) (*BackupRecord, *DatabaseError) {
	checkpoint := base.CheckpointLSN()
	if checkpoint.IsZero() {
		return nil, nil
	}
	var best *BackupRecord
	for i := range records {
		r := &records[i]
		if r.Type != BackupTypeDifferential || r.End.After(r.RestoreTime) {
			continue
		}
		if r.DatabaseBackupLSN.Cmp(checkpoint) != 0 {
			continue
		}
		if best == nil || better(r, best) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	rec, ok := idx.assemble(*best)
	if !ok {
		return nil, newDatabaseError(database, ErrUnresolvedFiles,
			fmt.Sprintf("у дифференциального бэкапа %s нет файлов", best.BackupSetID))
	}
	return &rec, nil
}

// forkOf возвращает ветку восстановления на конец бэкапа.
func forkOf(r *BackupRecord) string {
	if r.LastRecoveryForkID != "" {
		return r.LastRecoveryForkID
	}
	return r.FirstRecoveryForkID
}

// baselineFor определяет LSN и ветку, от которых начинается цепочка логов:
// diff, затем full, затем точка продолжения.
func baselineFor(base ChainBase, diff *BackupRecord, cp *ContinuationPoint) Baseline {
	var b Baseline
	if cp != nil {
		b = Baseline{LSN: cp.RedoStartLSN, RecoveryForkID: cp.FirstRecoveryForkID, Source: BaselineContinuation}
	}
	if full, ok := base.(FullBackup); ok {
		b.LSN = full.Record.LastLSN
		b.Source = BaselineFull
		if fork := forkOf(&full.Record); fork != "" {
			b.RecoveryForkID = fork
		}
	}
	if diff != nil {
		b.LSN = diff.LastLSN
		b.Source = BaselineDifferential
		if fork := forkOf(diff); fork != "" {
			b.RecoveryForkID = fork
		}
	}
	return b
}
