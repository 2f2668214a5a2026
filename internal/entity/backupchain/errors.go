package backupchain

import (
	"fmt"

	"github.com/Kargones/backupchain/internal/pkg/apperrors"
)

// Коды ошибок выбора цепочки.
const (
	// ErrAmbiguousContinuation — продолжение для нескольких переименованных баз
	// одновременно. Прерывает весь вызов.
	ErrAmbiguousContinuation = "CHAIN.AMBIGUOUS_CONTINUATION"
	// ErrNoFullBackup — нет полного бэкапа до целевого момента.
	ErrNoFullBackup = "CHAIN.NO_FULL_BACKUP"
	// ErrUnresolvedFiles — у выбранного backup set нет ни одного файла.
	ErrUnresolvedFiles = "CHAIN.UNRESOLVED_FILES"
	// ErrContinuationLookup — точка продолжения непригодна.
	ErrContinuationLookup = "CHAIN.CONTINUATION_LOOKUP"
)

// DatabaseError — ошибка, прервавшая построение плана одной базы.
// Остальные базы вызова обрабатываются независимо.
type DatabaseError struct {
	// Database — имя базы, для которой план не построен.
	Database string
	// Err — причина с кодом ошибки.
	Err *apperrors.AppError
}

func newDatabaseError(database, code, message string) *DatabaseError {
	return &DatabaseError{
		Database: database,
		Err:      apperrors.NewAppError(code, message, nil),
	}
}

// Error реализует интерфейс error.
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("база %s: %v", e.Database, e.Err)
}

// Unwrap отдаёт AppError для errors.As.
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Code возвращает код ошибки.
func (e *DatabaseError) Code() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Code
}
