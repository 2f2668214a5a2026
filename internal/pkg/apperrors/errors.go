// Package apperrors предоставляет структурированные ошибки приложения.
// Назван apperrors, чтобы не конфликтовать со стандартным errors.
package apperrors

import (
	"errors"
	"fmt"
)

// Коды ошибок в формате CATEGORY.SPECIFIC_ERROR.
// Категория позволяет искать по префиксу: `grep "HISTORY\."`.
const (
	// CONFIG — загрузка и проверка конфигурации.
	ErrConfigLoad     = "CONFIG.LOAD_FAILED"
	ErrConfigParse    = "CONFIG.PARSE_FAILED"
	ErrConfigValidate = "CONFIG.VALIDATION_FAILED"

	// COMMAND — выполнение команд.
	ErrCommandNotFound = "COMMAND.NOT_FOUND"
	ErrCommandExec     = "COMMAND.EXEC_FAILED"
	// ErrCommandPartial — команда выполнена не для всех объектов.
	ErrCommandPartial  = "COMMAND.PARTIAL_FAILURE"

	// HISTORY — получение истории резервных копий.
	ErrHistoryLoad   = "HISTORY.LOAD_FAILED"
	ErrHistoryDecode = "HISTORY.DECODE_FAILED"

	// OUTPUT — форматирование вывода.
	ErrOutputFormat = "OUTPUT.FORMAT_FAILED"
)

// AppError — структурированная ошибка приложения.
// Поддерживает errors.Is/As через Unwrap().
//
// ВАЖНО: Message не должен содержать секреты (пароли, строки подключения).
//
//	return apperrors.NewAppError(apperrors.ErrHistoryLoad,
//	    "не удалось прочитать историю бэкапов", err)
type AppError struct {
	// Code — машиночитаемый код ошибки.
	Code string `json:"code"`

	// Message — описание для человека.
	Message string `json:"message"`

	// Cause — исходная ошибка. В JSON не попадает.
	Cause error `json:"-"`
}

// Error реализует интерфейс error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает исходную ошибку.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError создаёт AppError с кодом, сообщением и причиной.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf возвращает код первой AppError в цепочке err или пустую строку.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode сообщает, что в цепочке err есть AppError с указанным кодом.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}
