package backupchain

import (
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Normalize дополняет записи целевым моментом восстановления.
// Запись без собственного RestoreTime получает restoreTime
// (или FarFuture, если restoreTime нулевой). Входной слайс не изменяется.
func Normalize(records []BackupRecord, restoreTime time.Time) []BackupRecord {
	if restoreTime.IsZero() {
		restoreTime = FarFuture
	}
	out := make([]BackupRecord, len(records))
	for i, r := range records {
		if r.RestoreTime.IsZero() {
			r.RestoreTime = restoreTime
		}
		r.FullName = slices.Clone(r.FullName)
		out[i] = r
	}
	return out
}

// foldName приводит имя объекта SQL Server к виду для сравнения без учёта регистра.
// cases.Caser хранит состояние, поэтому создаётся на каждый вызов.
func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// nameSet — множество имён без учёта регистра.
type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	set := make(nameSet, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		set[foldName(n)] = struct{}{}
	}
	return set
}

func (s nameSet) has(name string) bool {
	_, ok := s[foldName(name)]
	return ok
}

// FilterScope оставляет записи, относящиеся к указанным серверам и базам.
//
// Если хотя бы одна запись содержит AvailabilityGroupName, фильтр по серверу
// сравнивает имя группы доступности (имя AG — псевдоним любой её реплики);
// записи без AG в таком наборе сравниваются по InstanceName.
// Пустые фильтры ничего не отсекают.
func FilterScope(records []BackupRecord, serverNames, databaseNames []string) []BackupRecord {
	servers := newNameSet(serverNames)
	databases := newNameSet(databaseNames)

	agAware := slices.ContainsFunc(records, func(r BackupRecord) bool {
		return r.AvailabilityGroupName != ""
	})

	out := make([]BackupRecord, 0, len(records))
	for _, r := range records {
		if len(servers) > 0 {
			scope := r.InstanceName
			if agAware && r.AvailabilityGroupName != "" {
				scope = r.AvailabilityGroupName
			}
			if !servers.has(scope) {
				continue
			}
		}
		if len(databases) > 0 && !databases.has(r.Database) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// groupByDatabase раскладывает записи по базам, сохраняя исходный порядок
// внутри базы. Имена баз возвращаются отсортированными.
func groupByDatabase(records []BackupRecord) (map[string][]BackupRecord, []string) {
	groups := make(map[string][]BackupRecord)
	for _, r := range records {
		groups[r.Database] = append(groups[r.Database], r)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return groups, names
}
