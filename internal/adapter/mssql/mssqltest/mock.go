// Package mssqltest предоставляет тестовые утилиты для пакета mssql:
// мок-реализации интерфейсов и вспомогательные конструкторы.
package mssqltest

import (
	"context"

	"github.com/Kargones/backupchain/internal/adapter/mssql"
)

// Compile-time проверки реализации интерфейсов
var (
	_ mssql.Client              = (*MockMSSQLClient)(nil)
	_ mssql.DatabaseConnector   = (*MockMSSQLClient)(nil)
	_ mssql.BackupHistoryReader = (*MockMSSQLClient)(nil)
	_ mssql.RestoreStateReader  = (*MockMSSQLClient)(nil)
)

// MockMSSQLClient — мок-реализация mssql.Client для тестирования.
// Использует функциональные поля для гибкой настройки поведения в тестах.
type MockMSSQLClient struct {
	ConnectFunc               func(ctx context.Context) error
	CloseFunc                 func() error
	PingFunc                  func(ctx context.Context) error
	GetBackupHistoryFunc      func(ctx context.Context, opts mssql.HistoryOptions) ([]mssql.BackupFileRow, error)
	GetRestoringDatabasesFunc func(ctx context.Context, databases []string) ([]mssql.RestoringDatabase, error)
	GetLastRestoresFunc       func(ctx context.Context, databases []string) ([]mssql.LastRestore, error)

	// Closed — был ли вызван Close
	Closed bool
}

// Connect при отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Connect(ctx context.Context) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return nil
}

// Close при отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Close() error {
	m.Closed = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Ping при отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// GetBackupHistory при отсутствии пользовательской функции возвращает пустую историю.
func (m *MockMSSQLClient) GetBackupHistory(ctx context.Context, opts mssql.HistoryOptions) ([]mssql.BackupFileRow, error) {
	if m.GetBackupHistoryFunc != nil {
		return m.GetBackupHistoryFunc(ctx, opts)
	}
	return nil, nil
}

// GetRestoringDatabases при отсутствии пользовательской функции возвращает пустой список.
func (m *MockMSSQLClient) GetRestoringDatabases(ctx context.Context, databases []string) ([]mssql.RestoringDatabase, error) {
	if m.GetRestoringDatabasesFunc != nil {
		return m.GetRestoringDatabasesFunc(ctx, databases)
	}
	return nil, nil
}

// GetLastRestores при отсутствии пользовательской функции возвращает пустой список.
func (m *MockMSSQLClient) GetLastRestores(ctx context.Context, databases []string) ([]mssql.LastRestore, error) {
	if m.GetLastRestoresFunc != nil {
		return m.GetLastRestoresFunc(ctx, databases)
	}
	return nil, nil
}

// NewMockMSSQLClient создаёт MockMSSQLClient с дефолтным поведением.
func NewMockMSSQLClient() *MockMSSQLClient {
	return &MockMSSQLClient{}
}

// NewMockMSSQLClientWithHistory создаёт мок с предзаданной историей бэкапов.
func NewMockMSSQLClientWithHistory(rows []mssql.BackupFileRow) *MockMSSQLClient {
	return &MockMSSQLClient{
		GetBackupHistoryFunc: func(_ context.Context, _ mssql.HistoryOptions) ([]mssql.BackupFileRow, error) {
			return rows, nil
		},
	}
}

// NewMockMSSQLClientWithError создаёт мок, который возвращает ошибку
// для всех операций. Полезно для тестирования error-paths.
func NewMockMSSQLClientWithError(err error) *MockMSSQLClient {
	return &MockMSSQLClient{
		ConnectFunc: func(_ context.Context) error { return err },
		CloseFunc:   func() error { return err },
		PingFunc:    func(_ context.Context) error { return err },
		GetBackupHistoryFunc: func(_ context.Context, _ mssql.HistoryOptions) ([]mssql.BackupFileRow, error) {
			return nil, err
		},
		GetRestoringDatabasesFunc: func(_ context.Context, _ []string) ([]mssql.RestoringDatabase, error) {
			return nil, err
		},
		GetLastRestoresFunc: func(_ context.Context, _ []string) ([]mssql.LastRestore, error) {
			return nil, err
		},
	}
}
