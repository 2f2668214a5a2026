package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/entity/history"
)

// Источники истории бэкапов.
const (
	HistorySourceMSSQL = "mssql"
	HistorySourceFile  = "file"
)

// PlanConfig — параметры построения плана восстановления.
type PlanConfig struct {
	// RestoreTime — целевой момент в RFC3339. Пусто — последнее состояние.
	RestoreTime string `yaml:"restoreTime" env:"BC_RESTORE_TIME"`

	IgnoreLogs  bool `yaml:"ignoreLogs" env:"BC_IGNORE_LOGS"`
	IgnoreDiffs bool `yaml:"ignoreDiffs" env:"BC_IGNORE_DIFFS"`

	// Databases и Servers — фильтры, через запятую в env.
	Databases []string `yaml:"databases" env:"BC_DATABASES" env-separator:","`
	Servers   []string `yaml:"servers" env:"BC_SERVERS" env-separator:","`

	// Continue — продолжить восстановление баз в состоянии RESTORING.
	Continue bool `yaml:"continue" env:"BC_CONTINUE"`

	// TargetNames — пары "исходная=целевая" для восстановления под другим именем.
	TargetNames []string `yaml:"targetNames" env:"BC_TARGET_NAMES" env-separator:","`

	// Parallelism — число баз, обрабатываемых одновременно. 0 — GOMAXPROCS.
	Parallelism int `yaml:"parallelism" env:"BC_PARALLELISM"`

	// HistorySource — откуда брать историю: mssql или file.
	HistorySource   string `yaml:"historySource" env:"BC_HISTORY_SOURCE" env-default:"mssql"`
	HistoryFile     string `yaml:"historyFile" env:"BC_HISTORY_FILE"`
	HistoryEncoding string `yaml:"historyEncoding" env:"BC_HISTORY_ENCODING" env-default:"utf-8"`

	// LookbackDays ограничивает глубину чтения истории. 0 — без ограничения.
	LookbackDays    int  `yaml:"lookbackDays" env:"BC_LOOKBACK_DAYS"`
	IncludeCopyOnly bool `yaml:"includeCopyOnly" env:"BC_INCLUDE_COPY_ONLY"`
}

func (c PlanConfig) validate() error {
	var errs []error
	if _, err := c.ParseRestoreTime(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ParseTargetNames(); err != nil {
		errs = append(errs, err)
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("plan: parallelism не может быть отрицательным: %d", c.Parallelism))
	}
	if c.LookbackDays < 0 {
		errs = append(errs, fmt.Errorf("plan: lookbackDays не может быть отрицательным: %d", c.LookbackDays))
	}
	if c.HistorySource != HistorySourceMSSQL && c.HistorySource != HistorySourceFile {
		errs = append(errs, fmt.Errorf("plan: неизвестный источник истории %q", c.HistorySource))
	}
	switch strings.ToLower(c.HistoryEncoding) {
	case "", history.EncodingUTF8, "utf8", history.EncodingWindows1251, "cp1251":
	default:
		errs = append(errs, fmt.Errorf("plan: неподдерживаемая кодировка %q", c.HistoryEncoding))
	}
	return errors.Join(errs...)
}

// ParseRestoreTime разбирает RestoreTime. Пустое значение даёт нулевое время.
func (c PlanConfig) ParseRestoreTime() (time.Time, error) {
	if strings.TrimSpace(c.RestoreTime) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(c.RestoreTime))
	if err != nil {
		return time.Time{}, fmt.Errorf("plan: restoreTime должен быть в формате RFC3339: %w", err)
	}
	return t, nil
}

// ParseTargetNames разбирает пары "src=dst".
func (c PlanConfig) ParseTargetNames() (map[string]string, error) {
	if len(c.TargetNames) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(c.TargetNames))
	for _, pair := range c.TargetNames {
		src, dst, ok := strings.Cut(pair, "=")
		src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("plan: targetNames: ожидается \"исходная=целевая\", получено %q", pair)
		}
		out[src] = dst
	}
	return out, nil
}

// Options собирает параметры выбора цепочки. Точки продолжения
// и последние восстановления приходят из истории и добавляются вызывающим.
func (c PlanConfig) Options() (backupchain.Options, error) {
	restoreTime, err := c.ParseRestoreTime()
	if err != nil {
		return backupchain.Options{}, err
	}
	targets, err := c.ParseTargetNames()
	if err != nil {
		return backupchain.Options{}, err
	}
	return backupchain.Options{
		RestoreTime:   restoreTime,
		IgnoreLogs:    c.IgnoreLogs,
		IgnoreDiffs:   c.IgnoreDiffs,
		DatabaseNames: trimAll(c.Databases),
		ServerNames:   trimAll(c.Servers),
		TargetNames:   targets,
		Parallelism:   c.Parallelism,
	}, nil
}

// HistoryQuery строит запрос к источнику истории на момент now.
func (c PlanConfig) HistoryQuery(now time.Time) history.Query {
	q := history.Query{
		Databases:       trimAll(c.Databases),
		Continue:        c.Continue,
		IncludeCopyOnly: c.IncludeCopyOnly,
	}
	if c.LookbackDays > 0 {
		q.Since = now.AddDate(0, 0, -c.LookbackDays)
	}
	return q
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
