// Package backupchain реализует выбор цепочки резервных копий SQL Server
// для восстановления базы данных на момент времени.
//
// На вход подаётся неупорядоченный набор записей истории бэкапов (full,
// differential, log) по одной или нескольким базам, на выходе — для каждой
// базы минимальная LSN-согласованная последовательность:
//
//	FULL → [DIFF] → LOG … LOG
//
// Поддерживается продолжение восстановления базы, уже находящейся
// в состоянии RESTORING: вместо полного бэкапа цепочка строится от
// redo_start_lsn (см. ContinuationPoint).
//
// Пакет не выполняет ввод-вывод: сбор истории (msdb, заголовки файлов)
// и выполнение RESTORE — задача вызывающего кода.
package backupchain

import (
	"strings"
	"time"
)

// FarFuture — момент восстановления по умолчанию («последнее состояние»).
var FarFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// BackupType — тип резервной копии.
type BackupType int

// Поддерживаемые типы резервных копий.
const (
	BackupTypeUnknown BackupType = iota
	BackupTypeFull
	BackupTypeDifferential
	BackupTypeLog
)

// ParseBackupType приводит тип бэкапа к одному из трёх значений.
// Понимает исторические синонимы ("Database", "Database Differential",
// "Transaction Log") и однобуквенные коды msdb.dbo.backupset.type (D, I, L).
// Неизвестные значения дают BackupTypeUnknown — такие записи не попадают в план.
func ParseBackupType(s string) BackupType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "database", "d":
		return BackupTypeFull
	case "differential", "database differential", "diff", "i":
		return BackupTypeDifferential
	case "log", "transaction log", "l":
		return BackupTypeLog
	default:
		return BackupTypeUnknown
	}
}

// String возвращает каноническое имя типа.
func (t BackupType) String() string {
	switch t {
	case BackupTypeFull:
		return "Full"
	case BackupTypeDifferential:
		return "Differential"
	case BackupTypeLog:
		return "Log"
	default:
		return "Unknown"
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (t BackupType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (t *BackupType) UnmarshalText(text []byte) error {
	*t = ParseBackupType(string(text))
	return nil
}

// BackupRecord описывает один файл резервной копии (или уже собранный
// логический бэкап). Файлы одного backup set имеют общий BackupSetID,
// тип и диапазон LSN.
//
// Записи рассматриваются как неизменяемые: движок никогда не меняет
// входные значения, а строит новые (с собранным FullName) для плана.
type BackupRecord struct {
	// Database — имя базы данных, с которой снят бэкап.
	Database string `json:"database" yaml:"database"`
	// ServerName — имя сервера (информационное поле).
	ServerName string `json:"server_name,omitempty" yaml:"serverName"`
	// InstanceName — экземпляр SQL Server, используется фильтром по серверу.
	InstanceName string `json:"instance_name,omitempty" yaml:"instanceName"`
	// AvailabilityGroupName — имя группы доступности, если база в AG.
	AvailabilityGroupName string `json:"availability_group_name,omitempty" yaml:"availabilityGroupName"`

	// BackupSetID — идентификатор логической операции бэкапа.
	BackupSetID string `json:"backup_set_id" yaml:"backupSetId"`
	// Type — тип бэкапа.
	Type BackupType `json:"type" yaml:"type"`
	// Start, End — окно выполнения бэкапа.
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`

	FirstLSN      LSN `json:"first_lsn" yaml:"firstLsn"`
	LastLSN       LSN `json:"last_lsn" yaml:"lastLsn"`
	CheckpointLSN LSN `json:"checkpoint_lsn" yaml:"checkpointLsn"`
	// DatabaseBackupLSN — checkpoint LSN полного бэкапа, к которому привязан diff/log.
	DatabaseBackupLSN LSN `json:"database_backup_lsn" yaml:"databaseBackupLsn"`
	// DifferentialBaseLSN — для full: база, с которой должны совпадать diff.
	DifferentialBaseLSN LSN `json:"differential_base_lsn" yaml:"differentialBaseLsn"`

	// FirstRecoveryForkID — ветка восстановления на начало бэкапа.
	FirstRecoveryForkID string `json:"first_recovery_fork_id,omitempty" yaml:"firstRecoveryForkId"`
	// LastRecoveryForkID — ветка на конец бэкапа; отличается от первой,
	// если лог пересекает точку ветвления.
	LastRecoveryForkID string `json:"last_recovery_fork_id,omitempty" yaml:"lastRecoveryForkId"`

	// FullName — физические пути файлов бэкапа.
	FullName []string `json:"full_name" yaml:"fullName"`
	// Position — номер бэкапа внутри файла (RESTORE ... WITH FILE = n).
	Position int `json:"position,omitempty" yaml:"position"`

	SizeBytes           int64 `json:"size_bytes,omitempty" yaml:"sizeBytes"`
	CompressedSizeBytes int64 `json:"compressed_size_bytes,omitempty" yaml:"compressedSizeBytes"`
	IsCopyOnly          bool  `json:"is_copy_only,omitempty" yaml:"isCopyOnly"`

	// RestoreTime — целевой момент восстановления. Нулевое значение
	// заменяется глобальным значением при нормализации.
	RestoreTime time.Time `json:"restore_time" yaml:"restoreTime"`
}

// isNoop сообщает, что лог не содержит транзакций (FirstLSN == LastLSN).
func (r *BackupRecord) isNoop() bool {
	return r.FirstLSN.Cmp(r.LastLSN) == 0
}

// ContinuationPoint — точка продолжения для базы в состоянии RESTORING.
type ContinuationPoint struct {
	// Database — имя базы на целевом сервере.
	Database string `json:"database" yaml:"database"`
	// RedoStartLSN — LSN, с которого продолжится накат журнала.
	RedoStartLSN LSN `json:"redo_start_lsn" yaml:"redoStartLsn"`
	// FirstRecoveryForkID — текущая ветка восстановления базы.
	FirstRecoveryForkID string `json:"first_recovery_fork_id" yaml:"firstRecoveryForkId"`
	// DifferentialBaseLSN — differential_base_lsn восстановленного full.
	DifferentialBaseLSN LSN `json:"differential_base_lsn" yaml:"differentialBaseLsn"`
}

// LastRestoreType — тип последнего применённого к базе восстановления.
type LastRestoreType struct {
	Database    string     `json:"database" yaml:"database"`
	RestoreType BackupType `json:"restore_type" yaml:"restoreType"`
}

// Options — параметры выбора цепочки.
type Options struct {
	// RestoreTime — целевой момент. Нулевое значение означает FarFuture.
	RestoreTime time.Time
	// IgnoreLogs — не включать журналы транзакций.
	IgnoreLogs bool
	// IgnoreDiffs — не включать дифференциальные бэкапы.
	IgnoreDiffs bool
	// DatabaseNames — фильтр по именам баз (без учёта регистра).
	DatabaseNames []string
	// ServerNames — фильтр по экземпляру или группе доступности.
	ServerNames []string
	// ContinuationPoints — заданы, если восстановление продолжается.
	ContinuationPoints []ContinuationPoint
	// LastRestoreTypes — последние применённые восстановления по базам.
	LastRestoreTypes []LastRestoreType
	// TargetNames — переименование при восстановлении: исходное имя → целевое.
	// Точки продолжения ищутся по целевому имени.
	TargetNames map[string]string
	// Parallelism — максимум баз, обрабатываемых одновременно (<=0 — GOMAXPROCS).
	Parallelism int
}

// ChainBase — основание цепочки: настоящий полный бэкап (FullBackup)
// или маркер продолжения (SyntheticFull). Маркер нельзя восстановить,
// он только задаёт checkpoint LSN для поиска diff и хвостового лога.
type ChainBase interface {
	// CheckpointLSN возвращает LSN, к которому привязываются diff и логи.
	CheckpointLSN() LSN
	// Restorable сообщает, входит ли основание в план восстановления.
	Restorable() bool
	chainBase()
}

// FullBackup — выбранный полный бэкап.
type FullBackup struct {
	Record BackupRecord
}

// CheckpointLSN возвращает checkpoint LSN полного бэкапа.
func (f FullBackup) CheckpointLSN() LSN { return f.Record.CheckpointLSN }

// Restorable всегда true.
func (f FullBackup) Restorable() bool { return true }

func (FullBackup) chainBase() {}

// SyntheticFull — маркер для продолжения восстановления.
type SyntheticFull struct {
	Checkpoint LSN
}

// CheckpointLSN возвращает differential_base_lsn из точки продолжения.
func (s SyntheticFull) CheckpointLSN() LSN { return s.Checkpoint }

// Restorable всегда false.
func (s SyntheticFull) Restorable() bool { return false }

func (SyntheticFull) chainBase() {}

// Источники базового LSN для цепочки логов.
const (
	BaselineFull         = "full"
	BaselineDifferential = "differential"
	BaselineContinuation = "continuation"
)

// Baseline — LSN и ветка, от которых начинается цепочка логов.
type Baseline struct {
	LSN            LSN    `json:"lsn"`
	RecoveryForkID string `json:"recovery_fork_id,omitempty"`
	Source         string `json:"source"`
}

// Plan — план восстановления одной базы.
type Plan struct {
	Database     string
	Base         ChainBase
	Differential *BackupRecord
	Logs         []BackupRecord
	Baseline     Baseline
	// Continued — база продолжает ранее начатое восстановление.
	Continued bool
	// Truncated — цепочка логов прервана разрывом LSN до целевого момента.
	Truncated bool
}

// Records возвращает записи плана в порядке применения: full, diff, логи.
// Синтетический маркер в план не входит.
func (p *Plan) Records() []BackupRecord {
	out := make([]BackupRecord, 0, len(p.Logs)+2)
	if full, ok := p.Base.(FullBackup); ok {
		out = append(out, full.Record)
	}
	if p.Differential != nil {
		out = append(out, *p.Differential)
	}
	return append(out, p.Logs...)
}
