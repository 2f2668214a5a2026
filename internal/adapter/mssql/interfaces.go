// Package mssql определяет интерфейсы и типы данных для чтения истории
// резервных копий и состояния восстановления из Microsoft SQL Server.
// Интерфейсы разделены по принципу ISP:
// DatabaseConnector, BackupHistoryReader, RestoreStateReader.
// Композитный интерфейс Client объединяет все вышеперечисленные.
package mssql

import (
	"context"
	"time"
)

// Коды ошибок для MSSQL операций.
const (
	// ErrMSSQLConnect — ошибка подключения к серверу MSSQL
	ErrMSSQLConnect = "MSSQL.CONNECT_FAILED"
	// ErrMSSQLQuery — ошибка выполнения SQL запроса
	ErrMSSQLQuery = "MSSQL.QUERY_FAILED"
	// ErrMSSQLTimeout — превышено время ожидания операции
	ErrMSSQLTimeout = "MSSQL.TIMEOUT"
)

// HistoryOptions — параметры выборки истории из msdb.
type HistoryOptions struct {
	// Databases — имена баз; пусто — все базы сервера
	Databases []string
	// Since — нижняя граница backup_start_date; нулевое значение — без ограничения
	Since time.Time
	// IncludeCopyOnly — включать copy-only бэкапы
	IncludeCopyOnly bool
}

// BackupFileRow — одна строка msdb.dbo.backupset ⨝ backupmediafamily:
// один физический файл backup set. LSN передаются строкой (numeric(25,0)).
type BackupFileRow struct {
	Database              string
	ServerName            string
	MachineName           string
	AvailabilityGroupName string
	BackupSetID           string
	// Type — код msdb: D, I, L
	Type                string
	Start               time.Time
	End                 time.Time
	FirstLSN            string
	LastLSN             string
	CheckpointLSN       string
	DatabaseBackupLSN   string
	DifferentialBaseLSN string
	FirstRecoveryForkID string
	LastRecoveryForkID  string
	PhysicalDeviceName  string
	Position            int
	BackupSize          int64
	CompressedSize      int64
	IsCopyOnly          bool
}

// RestoringDatabase — база в состоянии RESTORING и точка продолжения наката.
type RestoringDatabase struct {
	Database            string
	RedoStartLSN        string
	RedoStartForkID     string
	DifferentialBaseLSN string
}

// LastRestore — последнее восстановление базы по msdb.dbo.restorehistory.
type LastRestore struct {
	Database string
	// RestoreType — код msdb: D, I, L, F, G, V, R
	RestoreType string
	RestoreDate time.Time
}

// DatabaseConnector предоставляет операции для подключения к серверу MSSQL.
type DatabaseConnector interface {
	// Connect устанавливает соединение с сервером MSSQL.
	Connect(ctx context.Context) error
	// Close закрывает соединение с сервером.
	Close() error
	// Ping проверяет доступность сервера.
	Ping(ctx context.Context) error
}

// BackupHistoryReader читает историю резервных копий.
type BackupHistoryReader interface {
	// GetBackupHistory возвращает файлы бэкапов, упорядоченные по базе и времени.
	GetBackupHistory(ctx context.Context, opts HistoryOptions) ([]BackupFileRow, error)
}

// RestoreStateReader читает состояние баз на целевом сервере.
type RestoreStateReader interface {
	// GetRestoringDatabases возвращает базы в состоянии RESTORING.
	GetRestoringDatabases(ctx context.Context, databases []string) ([]RestoringDatabase, error)
	// GetLastRestores возвращает последнее восстановление по каждой базе.
	GetLastRestores(ctx context.Context, databases []string) ([]LastRestore, error)
}

// Client — композитный интерфейс, объединяющий все операции MSSQL.
type Client interface {
	DatabaseConnector
	BackupHistoryReader
	RestoreStateReader
}
