// Package history загружает историю резервных копий и состояние
// восстановления для выбора цепочки: из msdb (MSSQLSource) или из
// выгрузки в файл YAML/JSON (FileSource).
package history

import (
	"context"
	"time"

	"github.com/Kargones/backupchain/internal/entity/backupchain"
)

// Query — что загружать.
type Query struct {
	// Databases — имена баз; пусто — все.
	Databases []string
	// Since — не загружать бэкапы, начатые раньше.
	Since time.Time
	// Continue — загрузить точки продолжения и последние восстановления.
	Continue bool
	// IncludeCopyOnly — включать copy-only бэкапы.
	IncludeCopyOnly bool
}

// Snapshot — история бэкапов и состояние целевых баз.
type Snapshot struct {
	Records            []backupchain.BackupRecord    `json:"backups" yaml:"backups"`
	ContinuationPoints []backupchain.ContinuationPoint `json:"continuation_points,omitempty" yaml:"continuationPoints"`
	LastRestoreTypes   []backupchain.LastRestoreType   `json:"last_restores,omitempty" yaml:"lastRestores"`
}

// Source — источник истории бэкапов.
type Source interface {
	// Load загружает историю согласно запросу.
	Load(ctx context.Context, q Query) (*Snapshot, error)
}

// Unavailable возвращает Source, Load которого всегда завершается err.
// Используется, когда источник не настроен, а команда может его не вызывать.
func Unavailable(err error) Source {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) Load(context.Context, Query) (*Snapshot, error) {
	return nil, u.err
}
