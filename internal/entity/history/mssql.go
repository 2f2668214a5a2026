package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kargones/backupchain/internal/adapter/mssql"
	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/pkg/apperrors"
	"github.com/Kargones/backupchain/internal/pkg/logging"
)

// MSSQLSource читает историю из msdb и состояние баз из sys.databases.
// Соединение открывается на время Load.
type MSSQLSource struct {
	client mssql.Client
	logger logging.Logger
}

// NewMSSQLSource создаёт MSSQLSource поверх клиента MSSQL.
func NewMSSQLSource(client mssql.Client, logger logging.Logger) *MSSQLSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MSSQLSource{client: client, logger: logger}
}

// Load загружает историю бэкапов, а при q.Continue — точки продолжения
// и последние восстановления.
func (s *MSSQLSource) Load(ctx context.Context, q Query) (*Snapshot, error) {
	if err := s.client.Connect(ctx); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrHistoryLoad,
			"не удалось подключиться к SQL Server", err)
	}
	defer func() {
		if err := s.client.Close(); err != nil {
			s.logger.Warn("ошибка закрытия соединения с SQL Server", "error", err)
		}
	}()

	rows, err := s.client.GetBackupHistory(ctx, mssql.HistoryOptions{
		Databases:       q.Databases,
		Since:           q.Since,
		IncludeCopyOnly: q.IncludeCopyOnly,
	})
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrHistoryLoad,
			"не удалось прочитать историю бэкапов из msdb", err)
	}

	snap := &Snapshot{Records: make([]backupchain.BackupRecord, 0, len(rows))}
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrHistoryDecode,
				fmt.Sprintf("некорректная запись backupset %s базы %s", row.BackupSetID, row.Database), err)
		}
		snap.Records = append(snap.Records, rec)
	}

	if q.Continue {
		if err := s.loadRestoreState(ctx, q.Databases, snap); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("история бэкапов загружена из msdb",
		"files", len(rows),
		"continuation_points", len(snap.ContinuationPoints),
	)
	return snap, nil
}

func (s *MSSQLSource) loadRestoreState(ctx context.Context, databases []string, snap *Snapshot) error {
	restoring, err := s.client.GetRestoringDatabases(ctx, databases)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrHistoryLoad,
			"не удалось прочитать базы в состоянии RESTORING", err)
	}
	for _, r := range restoring {
		cp, err := continuationFromRow(r)
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrHistoryDecode,
				fmt.Sprintf("некорректная точка продолжения базы %s", r.Database), err)
		}
		snap.ContinuationPoints = append(snap.ContinuationPoints, cp)
	}

	last, err := s.client.GetLastRestores(ctx, databases)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrHistoryLoad,
			"не удалось прочитать историю восстановлений", err)
	}
	for _, r := range last {
		t := backupchain.ParseBackupType(r.RestoreType)
		if t == backupchain.BackupTypeUnknown {
			// восстановления файлов, страниц и verify-only не влияют на выбор diff
			s.logger.Debug("пропущен тип восстановления", "database", r.Database, "restore_type", r.RestoreType)
			continue
		}
		snap.LastRestoreTypes = append(snap.LastRestoreTypes, backupchain.LastRestoreType{
			Database:    r.Database,
			RestoreType: t,
		})
	}
	return nil
}

func recordFromRow(row mssql.BackupFileRow) (backupchain.BackupRecord, error) {
	rec := backupchain.BackupRecord{
		Database:              row.Database,
		ServerName:            row.MachineName,
		InstanceName:          row.ServerName,
		AvailabilityGroupName: row.AvailabilityGroupName,
		BackupSetID:           row.BackupSetID,
		Type:                  backupchain.ParseBackupType(row.Type),
		Start:                 row.Start,
		End:                   row.End,
		FirstRecoveryForkID:   strings.ToUpper(row.FirstRecoveryForkID),
		LastRecoveryForkID:    strings.ToUpper(row.LastRecoveryForkID),
		Position:              row.Position,
		SizeBytes:             row.BackupSize,
		CompressedSizeBytes:   row.CompressedSize,
		IsCopyOnly:            row.IsCopyOnly,
	}
	if row.PhysicalDeviceName != "" {
		rec.FullName = []string{row.PhysicalDeviceName}
	}

	lsns := []struct {
		dst  *backupchain.LSN
		text string
	}{
		{&rec.FirstLSN, row.FirstLSN},
		{&rec.LastLSN, row.LastLSN},
		{&rec.CheckpointLSN, row.CheckpointLSN},
		{&rec.DatabaseBackupLSN, row.DatabaseBackupLSN},
		{&rec.DifferentialBaseLSN, row.DifferentialBaseLSN},
	}
	for _, l := range lsns {
		v, err := backupchain.ParseLSN(l.text)
		if err != nil {
			return backupchain.BackupRecord{}, err
		}
		*l.dst = v
	}
	return rec, nil
}

func continuationFromRow(row mssql.RestoringDatabase) (backupchain.ContinuationPoint, error) {
	redo, err := backupchain.ParseLSN(row.RedoStartLSN)
	if err != nil {
		return backupchain.ContinuationPoint{}, err
	}
	base, err := backupchain.ParseLSN(row.DifferentialBaseLSN)
	if err != nil {
		return backupchain.ContinuationPoint{}, err
	}
	return backupchain.ContinuationPoint{
		Database:            row.Database,
		RedoStartLSN:        redo,
		FirstRecoveryForkID: strings.ToUpper(row.RedoStartForkID),
		DifferentialBaseLSN: base,
	}, nil
}
