package backupchain

import (
	"fmt"
	"sort"
)

// logChain — результат выбора журналов для одной базы.
type logChain struct {
	Logs []BackupRecord
	// Truncated — цепочка оборвалась разрывом LSN.
	Truncated bool
	// GapAt — LSN, на котором обнаружен разрыв.
	GapAt LSN
}

// logOrder — порядок журналов: LastLSN, FirstLSN, BackupSetID.
func logOrder(a, b *BackupRecord) bool {
	if c := a.LastLSN.Cmp(b.LastLSN); c != 0 {
		return c < 0
	}
	if c := a.FirstLSN.Cmp(b.FirstLSN); c != 0 {
		return c < 0
	}
	return a.BackupSetID < b.BackupSetID
}

// tailLog находит первый журнал, покрывающий целевой момент и привязанный
// к основанию цепочки.
func tailLog(records []BackupRecord, checkpoint LSN) *BackupRecord {
	var tail *BackupRecord
	for i := range records {
		r := &records[i]
		if r.Type != BackupTypeLog || r.isNoop() || r.End.Before(r.RestoreTime) {
			continue
		}
		if r.DatabaseBackupLSN.Less(checkpoint) {
			continue
		}
		if tail == nil || logOrder(r, tail) {
			tail = r
		}
	}
	return tail
}

// logCandidates отбирает журналы, начатые до целевого момента и не
// закончившиеся раньше baseline, добавляет хвостовой журнал и убирает
// повторы по BackupSetID и по диапазону LSN.
func logCandidates(records []BackupRecord, baseline, checkpoint LSN) []*BackupRecord {
	var out []*BackupRecord
	for i := range records {
		r := &records[i]
		if r.Type != BackupTypeLog || r.isNoop() || !r.Start.Before(r.RestoreTime) {
			continue
		}
		if r.LastLSN.Less(baseline) {
			continue
		}
		out = append(out, r)
	}
	if tail := tailLog(records, checkpoint); tail != nil {
		out = append(out, tail)
	}
	sort.SliceStable(out, func(i, j int) bool { return logOrder(out[i], out[j]) })

	// одинаковый диапазон LSN в разных ветках восстановления — разные журналы
	type lsnRange struct {
		first, last LSN
		fork        string
	}
	sets := make(map[string]struct{}, len(out))
	ranges := make(map[lsnRange]struct{}, len(out))
	uniq := out[:0]
	for _, r := range out {
		if r.BackupSetID != "" {
			if _, dup := sets[r.BackupSetID]; dup {
				continue
			}
			sets[r.BackupSetID] = struct{}{}
		}
		key := lsnRange{r.FirstLSN, r.LastLSN, foldName(r.FirstRecoveryForkID)}
		if _, dup := ranges[key]; dup {
			continue
		}
		ranges[key] = struct{}{}
		uniq = append(uniq, r)
	}
	return uniq
}

// selectLogs строит непрерывную цепочку журналов от baseline до целевого момента.
//
// Журналы чужой ветки восстановления пропускаются до проверки стыковки.
// Журнал включается, если он стыкуется с текущим LastLSN (FirstLSN <= LSN).
// Первый разрыв в текущей ветке завершает цепочку.
func selectLogs(records []BackupRecord, idx setIndex, base ChainBase, baseline Baseline, database string) (logChain, *DatabaseError) {
	var chain logChain
	cur := baseline.LSN
	fork := baseline.RecoveryForkID

	for _, r := range logCandidates(records, baseline.LSN, base.CheckpointLSN()) {
		if r.LastLSN.Less(cur) || (len(chain.Logs) > 0 && r.LastLSN.Cmp(cur) == 0) {
			continue
		}
		if fork != "" && r.FirstRecoveryForkID != "" && foldName(fork) != foldName(r.FirstRecoveryForkID) {
			continue
		}
		if cur.Less(r.FirstLSN) {
			chain.Truncated = true
			chain.GapAt = cur
			break
		}
		rec, ok := idx.assemble(*r)
		if !ok {
			return logChain{}, newDatabaseError(database, ErrUnresolvedFiles,
				fmt.Sprintf("у журнала %s нет файлов", r.BackupSetID))
		}
		chain.Logs = append(chain.Logs, rec)
		cur = r.LastLSN
		if f := forkOf(r); f != "" {
			fork = f
		}
		if !r.End.Before(r.RestoreTime) {
			break
		}
	}
	return chain, nil
}
