package mssql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestNewClient проверяет создание нового клиента с различными параметрами
func TestNewClient(t *testing.T) {
	tests := []struct {
		name         string
		opts         ClientOptions
		wantPort     int
		wantDatabase string
		wantTimeout  time.Duration
	}{
		{
			name: "пустые параметры - устанавливаются значения по умолчанию",
			opts: ClientOptions{
				Server: "test-server",
			},
			wantPort:     1433,
			wantDatabase: "msdb",
			wantTimeout:  30 * time.Second,
		},
		{
			name: "все параметры заданы - не меняются",
			opts: ClientOptions{
				Server:   "custom-server",
				Port:     1434,
				User:     "testuser",
				Password: "testpass",
				Database: "master",
				Timeout:  60 * time.Second,
			},
			wantPort:     1434,
			wantDatabase: "master",
			wantTimeout:  60 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts)
			if err != nil {
				t.Fatalf("NewClient() error = %v, want nil", err)
			}

			cli, ok := c.(*client)
			if !ok {
				t.Fatal("NewClient() не вернул *client")
			}

			if cli.opts.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cli.opts.Port, tt.wantPort)
			}
			if cli.opts.Database != tt.wantDatabase {
				t.Errorf("Database = %s, want %s", cli.opts.Database, tt.wantDatabase)
			}
			if cli.opts.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cli.opts.Timeout, tt.wantTimeout)
			}
		})
	}
}

// TestNewClient_InvalidPort проверяет валидацию порта
func TestNewClient_InvalidPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{name: "порт 0 - используется default 1433", port: 0, wantErr: false},
		{name: "валидный порт 1434", port: 1434, wantErr: false},
		{name: "максимальный порт 65535", port: 65535, wantErr: false},
		{name: "негативный порт", port: -1, wantErr: true},
		{name: "порт больше 65535", port: 65536, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(ClientOptions{Server: "test-server", Port: tt.port})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestNewClient_EmptyServer проверяет валидацию пустого Server
func TestNewClient_EmptyServer(t *testing.T) {
	_, err := NewClient(ClientOptions{Port: 1433})
	if err == nil {
		t.Fatal("NewClient() должен вернуть ошибку для пустого Server")
	}
	if !strings.HasPrefix(err.Error(), ErrMSSQLConnect) {
		t.Errorf("ошибка %q должна начинаться с кода %s", err, ErrMSSQLConnect)
	}
}

// TestNewClientWithEncrypt проверяет явное управление шифрованием
func TestNewClientWithEncrypt(t *testing.T) {
	for _, encrypt := range []bool{true, false} {
		c, err := NewClientWithEncrypt(ClientOptions{Server: "test"}, encrypt)
		if err != nil {
			t.Fatalf("NewClientWithEncrypt() error = %v", err)
		}
		if got := c.(*client).opts.Encrypt; got != encrypt {
			t.Errorf("Encrypt = %v, want %v", got, encrypt)
		}
	}

	c, err := NewClient(ClientOptions{Server: "test"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if !c.(*client).opts.Encrypt {
		t.Error("по умолчанию Encrypt должен быть true")
	}
}

// TestEscapeConnStringParam проверяет экранирование параметров DSN
func TestEscapeConnStringParam(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "password", want: "password"},
		{input: "pass;word", want: "pass%3Bword"},
		{input: "pass=word", want: "pass%3Dword"},
		{input: "p@ss;w=rd!", want: "p%40ss%3Bw%3Drd%21"},
	}

	for _, tt := range tests {
		if got := escapeConnStringParam(tt.input); got != tt.want {
			t.Errorf("escapeConnStringParam(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestClient_PingAndClose проверяет Ping и Close
func TestClient_PingAndClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("ошибка создания sqlmock: %v", err)
	}
	mock.ExpectPing()
	mock.ExpectClose()

	cli := &client{db: db, opts: ClientOptions{Server: "test"}}
	if err := cli.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := cli.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if cli.db != nil {
		t.Error("Close() не обнулил cli.db")
	}
	if err := cli.Ping(context.Background()); err == nil {
		t.Error("Ping() без соединения должен вернуть ошибку")
	}
	if err := cli.Close(); err != nil {
		t.Errorf("повторный Close() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

var historyColumns = []string{
	"database_name", "server_name", "machine_name", "ag_name", "backup_set_uuid", "type",
	"backup_start_date", "backup_finish_date", "first_lsn", "last_lsn", "checkpoint_lsn",
	"database_backup_lsn", "differential_base_lsn", "first_recovery_fork_guid", "last_recovery_fork_guid",
	"physical_device_name", "position", "backup_size", "compressed_backup_size", "is_copy_only",
}

// TestClient_GetBackupHistory проверяет чтение истории бэкапов
func TestClient_GetBackupHistory(t *testing.T) {
	start := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		opts      HistoryOptions
		setupMock func(mock sqlmock.Sqlmock)
		noConnect bool
		wantRows  int
		wantCode  string
	}{
		{
			name: "два файла одного full и лог",
			opts: HistoryOptions{Databases: []string{"Sales", " ", "HR"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(historyColumns).
					AddRow("Sales", `SQL01\INST`, "SQL01", "", "F1", "D", start, start.Add(time.Minute),
						"42000000012300001", "42000000015000001", "42000000012300001", "0", "0",
						"A", "A", `\\nas\sales_1.bak`, 1, 1024, 512, false).
					AddRow("Sales", `SQL01\INST`, "SQL01", "", "F1", "D", start, start.Add(time.Minute),
						"42000000012300001", "42000000015000001", "42000000012300001", "0", "0",
						"A", "A", `\\nas\sales_2.bak`, 1, 1024, 512, false).
					AddRow("Sales", `SQL01\INST`, "SQL01", "", "L1", "L", start.Add(time.Hour), start.Add(time.Hour),
						"42000000015000001", "42000000020000001", "42000000015000001", "42000000012300001", "0",
						"A", "A", `\\nas\sales.trn`, 1, 64, 32, false)
				mock.ExpectQuery("FROM msdb.dbo.backupset").
					WithArgs(sqlmock.AnyArg(), "Sales,HR", false).
					WillReturnRows(rows)
			},
			wantRows: 3,
		},
		{
			name: "ошибка запроса",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM msdb.dbo.backupset").
					WithArgs(sqlmock.AnyArg(), "", false).
					WillReturnError(errors.New("permission denied"))
			},
			wantCode: ErrMSSQLQuery,
		},
		{
			name:      "нет соединения",
			noConnect: true,
			wantCode:  ErrMSSQLQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &client{opts: ClientOptions{Server: "test"}}
			if !tt.noConnect {
				db, mock, err := sqlmock.New()
				if err != nil {
					t.Fatalf("ошибка создания sqlmock: %v", err)
				}
				defer db.Close()
				tt.setupMock(mock)
				cli.db = db
			}

			got, err := cli.GetBackupHistory(context.Background(), tt.opts)
			if tt.wantCode != "" {
				if err == nil || !strings.HasPrefix(err.Error(), tt.wantCode) {
					t.Fatalf("GetBackupHistory() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetBackupHistory() error = %v", err)
			}
			if len(got) != tt.wantRows {
				t.Fatalf("len = %d, want %d", len(got), tt.wantRows)
			}
			if got[1].PhysicalDeviceName != `\\nas\sales_2.bak` {
				t.Errorf("PhysicalDeviceName = %s", got[1].PhysicalDeviceName)
			}
			if got[2].Type != "L" || got[2].DatabaseBackupLSN != "42000000012300001" {
				t.Errorf("неверная строка лога: %+v", got[2])
			}
		})
	}
}

// TestClient_GetBackupHistory_Timeout проверяет код ошибки при таймауте запроса
func TestClient_GetBackupHistory_Timeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("ошибка создания sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM msdb.dbo.backupset").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows(historyColumns))

	cli := &client{db: db, opts: ClientOptions{Server: "test", QueryTimeout: 10 * time.Millisecond}}
	_, err = cli.GetBackupHistory(context.Background(), HistoryOptions{})
	if err == nil || !strings.HasPrefix(err.Error(), ErrMSSQLTimeout) {
		t.Fatalf("GetBackupHistory() error = %v, want %s", err, ErrMSSQLTimeout)
	}
}

// TestClient_GetRestoringDatabases проверяет чтение точек продолжения
func TestClient_GetRestoringDatabases(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("ошибка создания sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM sys.databases").
		WithArgs("Sales").
		WillReturnRows(sqlmock.NewRows([]string{"name", "redo_start_lsn", "redo_start_fork_guid", "differential_base_lsn"}).
			AddRow("Sales", "42000000018000001", "A", "42000000012300001"))

	cli := &client{db: db, opts: ClientOptions{Server: "test"}}
	got, err := cli.GetRestoringDatabases(context.Background(), []string{"Sales"})
	if err != nil {
		t.Fatalf("GetRestoringDatabases() error = %v", err)
	}
	want := RestoringDatabase{
		Database:            "Sales",
		RedoStartLSN:        "42000000018000001",
		RedoStartForkID:     "A",
		DifferentialBaseLSN: "42000000012300001",
	}
	if len(got) != 1 || got[0] != want {
		t.Errorf("GetRestoringDatabases() = %+v, want %+v", got, want)
	}
}

// TestClient_GetLastRestores проверяет чтение restorehistory
func TestClient_GetLastRestores(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("ошибка создания sqlmock: %v", err)
	}
	defer db.Close()

	restored := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM msdb.dbo.restorehistory").
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"destination_database_name", "restore_type", "restore_date"}).
			AddRow("HR", "D", restored).
			AddRow("Sales", "I ", restored).
			AddRow("Temp", nil, restored))

	cli := &client{db: db, opts: ClientOptions{Server: "test"}}
	got, err := cli.GetLastRestores(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetLastRestores() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[1].RestoreType != "I" || got[2].RestoreType != "" {
		t.Errorf("RestoreType = %q, %q", got[1].RestoreType, got[2].RestoreType)
	}
	if !got[0].RestoreDate.Equal(restored) {
		t.Errorf("RestoreDate = %v", got[0].RestoreDate)
	}
}
