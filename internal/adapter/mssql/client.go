package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	// blank import для драйвера SQL Server
	_ "github.com/denisenkom/go-mssqldb"
)

// Compile-time проверка реализации интерфейса
var _ Client = (*client)(nil)

// ClientOptions содержит параметры для создания MSSQL клиента.
type ClientOptions struct {
	// Server — адрес сервера MSSQL
	Server string
	// Port — порт сервера (по умолчанию 1433)
	Port int
	// User — имя пользователя
	User string
	// Password — пароль пользователя
	Password string
	// Database — имя базы данных для подключения (обычно "msdb")
	Database string
	// Timeout — таймаут подключения
	Timeout time.Duration
	// QueryTimeout — таймаут одного запроса; 0 — без ограничения
	QueryTimeout time.Duration
	// Encrypt — использовать TLS шифрование (по умолчанию true).
	// Для явного отключения используйте NewClientWithEncrypt(opts, false).
	Encrypt bool
	// encryptSet — Encrypt был задан явно
	encryptSet bool
}

// client — реализация интерфейса Client для MSSQL.
type client struct {
	db   *sql.DB
	opts ClientOptions
}

// NewClient создаёт новый MSSQL клиент с указанными параметрами.
// Подключение устанавливается через Connect().
func NewClient(opts ClientOptions) (Client, error) {
	if opts.Server == "" {
		return nil, fmt.Errorf("%s: server is required", ErrMSSQLConnect)
	}
	if opts.Port == 0 {
		opts.Port = 1433
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("%s: invalid port %d, must be between 1 and 65535", ErrMSSQLConnect, opts.Port)
	}
	if opts.Database == "" {
		opts.Database = "msdb"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if !opts.encryptSet {
		opts.Encrypt = true
	}

	return &client{
		opts: opts,
	}, nil
}

// NewClientWithEncrypt создаёт MSSQL клиент с явным указанием режима шифрования.
func NewClientWithEncrypt(opts ClientOptions, encrypt bool) (Client, error) {
	opts.Encrypt = encrypt
	opts.encryptSet = true
	return NewClient(opts)
}

// Connect устанавливает соединение с сервером MSSQL.
func (c *client) Connect(ctx context.Context) error {
	encryptMode := "true"
	if !c.opts.Encrypt {
		encryptMode = "disable"
	}

	connString := fmt.Sprintf(
		"server=%s;user id=%s;password=%s;port=%d;database=%s;encrypt=%s;connection timeout=%d;app name=backupchain",
		escapeConnStringParam(c.opts.Server),
		escapeConnStringParam(c.opts.User),
		escapeConnStringParam(c.opts.Password),
		c.opts.Port,
		escapeConnStringParam(c.opts.Database),
		encryptMode,
		int(c.opts.Timeout.Seconds()),
	)

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if ctx.Err() != nil {
			return fmt.Errorf("%s: context cancelled during ping: %w", ErrMSSQLConnect, ctx.Err())
		}
		return fmt.Errorf("%s: ping failed: %w", ErrMSSQLConnect, err)
	}

	c.db = db
	return nil
}

// escapeConnStringParam экранирует параметр для connection string.
// Символы ; и = имеют в DSN особое значение.
func escapeConnStringParam(s string) string {
	return url.QueryEscape(s)
}

// Close закрывает соединение с сервером.
func (c *client) Close() error {
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// Ping проверяет доступность сервера.
func (c *client) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLConnect)
	}
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}
	return nil
}

// queryContext ограничивает запрос QueryTimeout.
func (c *client) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// queryError оборачивает ошибку запроса кодом MSSQL.*.
func (c *client) queryError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: query timed out after %v", ErrMSSQLTimeout, c.opts.QueryTimeout)
	}
	return fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
}

// nameList передаёт список имён одним параметром для STRING_SPLIT.
func nameList(names []string) string {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	return strings.Join(clean, ",")
}

// historyQuery выбирает файлы full/diff/log бэкапов.
// Одна строка — один файл media family; файлы одного backup set
// имеют общий backup_set_uuid.
const historyQuery = `
SELECT
	bs.database_name,
	bs.server_name,
	ISNULL(bs.machine_name, ''),
	ISNULL(ag.name, ''),
	CAST(bs.backup_set_uuid AS nvarchar(36)),
	bs.type,
	bs.backup_start_date,
	bs.backup_finish_date,
	CAST(bs.first_lsn AS varchar(25)),
	CAST(bs.last_lsn AS varchar(25)),
	CAST(bs.checkpoint_lsn AS varchar(25)),
	CAST(ISNULL(bs.database_backup_lsn, 0) AS varchar(25)),
	CAST(ISNULL(bs.differential_base_lsn, 0) AS varchar(25)),
	ISNULL(CAST(bs.first_recovery_fork_guid AS nvarchar(36)), ''),
	ISNULL(CAST(bs.last_recovery_fork_guid AS nvarchar(36)), ''),
	mf.physical_device_name,
	bs.position,
	ISNULL(bs.backup_size, 0),
	ISNULL(bs.compressed_backup_size, 0),
	bs.is_copy_only
FROM msdb.dbo.backupset bs
INNER JOIN msdb.dbo.backupmediafamily mf ON mf.media_set_id = bs.media_set_id
LEFT JOIN sys.availability_databases_cluster adc ON adc.database_name = bs.database_name
LEFT JOIN sys.availability_groups ag ON ag.group_id = adc.group_id
WHERE bs.type IN ('D', 'I', 'L')
	AND bs.backup_start_date >= @p1
	AND (@p2 = '' OR bs.database_name IN (SELECT value FROM STRING_SPLIT(@p2, ',')))
	AND (@p3 = 1 OR bs.is_copy_only = 0)
ORDER BY bs.database_name, bs.backup_start_date, mf.family_sequence_number;
`

// minHistoryDate — нижняя граница datetime в SQL Server.
var minHistoryDate = time.Date(1753, time.January, 1, 0, 0, 0, 0, time.UTC)

// GetBackupHistory возвращает историю бэкапов из msdb.
func (c *client) GetBackupHistory(ctx context.Context, opts HistoryOptions) ([]BackupFileRow, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	qctx, cancel := c.queryContext(ctx)
	defer cancel()

	since := opts.Since
	if since.Before(minHistoryDate) {
		since = minHistoryDate
	}
	rows, err := c.db.QueryContext(qctx, historyQuery, since, nameList(opts.Databases), opts.IncludeCopyOnly)
	if err != nil {
		return nil, c.queryError(qctx, err)
	}
	defer rows.Close()

	var out []BackupFileRow
	for rows.Next() {
		var r BackupFileRow
		if err := rows.Scan(
			&r.Database,
			&r.ServerName,
			&r.MachineName,
			&r.AvailabilityGroupName,
			&r.BackupSetID,
			&r.Type,
			&r.Start,
			&r.End,
			&r.FirstLSN,
			&r.LastLSN,
			&r.CheckpointLSN,
			&r.DatabaseBackupLSN,
			&r.DifferentialBaseLSN,
			&r.FirstRecoveryForkID,
			&r.LastRecoveryForkID,
			&r.PhysicalDeviceName,
			&r.Position,
			&r.BackupSize,
			&r.CompressedSize,
			&r.IsCopyOnly,
		); err != nil {
			return nil, fmt.Errorf("%s: scan backupset: %w", ErrMSSQLQuery, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, c.queryError(qctx, err)
	}
	return out, nil
}

// restoringQuery — базы в RESTORING и LSN, с которого продолжится накат.
const restoringQuery = `
SELECT
	d.name,
	CAST(ISNULL(mf.redo_start_lsn, 0) AS varchar(25)),
	ISNULL(CAST(mf.redo_start_fork_guid AS nvarchar(36)), ''),
	CAST(ISNULL(mf.differential_base_lsn, 0) AS varchar(25))
FROM sys.databases d
INNER JOIN sys.master_files mf ON mf.database_id = d.database_id AND mf.file_id = 1
WHERE d.state_desc = 'RESTORING'
	AND (@p1 = '' OR d.name IN (SELECT value FROM STRING_SPLIT(@p1, ',')))
ORDER BY d.name;
`

// GetRestoringDatabases возвращает базы, ожидающие продолжения восстановления.
func (c *client) GetRestoringDatabases(ctx context.Context, databases []string) ([]RestoringDatabase, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	qctx, cancel := c.queryContext(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(qctx, restoringQuery, nameList(databases))
	if err != nil {
		return nil, c.queryError(qctx, err)
	}
	defer rows.Close()

	var out []RestoringDatabase
	for rows.Next() {
		var r RestoringDatabase
		if err := rows.Scan(&r.Database, &r.RedoStartLSN, &r.RedoStartForkID, &r.DifferentialBaseLSN); err != nil {
			return nil, fmt.Errorf("%s: scan master_files: %w", ErrMSSQLQuery, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, c.queryError(qctx, err)
	}
	return out, nil
}

// lastRestoreQuery — последняя запись restorehistory по каждой базе.
const lastRestoreQuery = `
SELECT
	rh.destination_database_name,
	rh.restore_type,
	rh.restore_date
FROM msdb.dbo.restorehistory rh
WHERE rh.restore_history_id IN (
		SELECT MAX(restore_history_id)
		FROM msdb.dbo.restorehistory
		GROUP BY destination_database_name)
	AND (@p1 = '' OR rh.destination_database_name IN (SELECT value FROM STRING_SPLIT(@p1, ',')))
ORDER BY rh.destination_database_name;
`

// GetLastRestores возвращает тип последнего восстановления по каждой базе.
func (c *client) GetLastRestores(ctx context.Context, databases []string) ([]LastRestore, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	qctx, cancel := c.queryContext(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(qctx, lastRestoreQuery, nameList(databases))
	if err != nil {
		return nil, c.queryError(qctx, err)
	}
	defer rows.Close()

	var out []LastRestore
	for rows.Next() {
		var r LastRestore
		var restoreType sql.NullString
		if err := rows.Scan(&r.Database, &restoreType, &r.RestoreDate); err != nil {
			return nil, fmt.Errorf("%s: scan restorehistory: %w", ErrMSSQLQuery, err)
		}
		r.RestoreType = strings.TrimSpace(restoreType.String)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, c.queryError(qctx, err)
	}
	return out, nil
}
