// Package output предоставляет структуры и интерфейсы для форматирования
// результатов команд в JSON и текстовом формате.
package output

// StatusSuccess, StatusPartial и StatusError — возможные значения поля Status в Result.
const (
	StatusSuccess = "success"
	// StatusPartial — команда выполнена, но часть объектов обработать не удалось.
	StatusPartial = "partial"
	StatusError   = "error"
)

// APIVersion — текущая версия формата вывода.
const APIVersion = "v1"

// Result представляет структурированный результат выполнения команды.
// Сериализуется в JSON (BC_OUTPUT_FORMAT=json)
// или в человекочитаемый текст (BC_OUTPUT_FORMAT=text).
type Result struct {
	// Status содержит статус выполнения: "success", "partial" или "error".
	Status string `json:"status"`

	// Command содержит имя выполненной команды.
	Command string `json:"command"`

	// Data содержит command-specific payload.
	// Если Data реализует TextRenderer, текстовый вывод делегируется ему.
	Data any `json:"data,omitempty"`

	// Error содержит информацию об ошибке (только при status="error").
	Error *ErrorInfo `json:"error,omitempty"`

	// Metadata содержит метаданные выполнения.
	Metadata *Metadata `json:"metadata,omitempty"`

	// Summary не сериализуется напрямую: JSONWriter копирует его
	// в Metadata.Summary.
	Summary *SummaryInfo `json:"-"`
}

// ErrorInfo содержит информацию об ошибке в структурированном виде.
// Code — машиночитаемый код ошибки (например, "CONFIG.LOAD_FAILED").
// Message НЕ ДОЛЖЕН содержать секреты (пароли из DSN и т.п.).
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata содержит метаданные выполнения команды.
type Metadata struct {
	// DurationMs — время выполнения команды в миллисекундах.
	DurationMs int64 `json:"duration_ms"`

	// TraceID — идентификатор трассировки для корреляции с логами.
	TraceID string `json:"trace_id,omitempty"`

	// APIVersion — версия формата вывода.
	APIVersion string `json:"api_version"`

	// Summary заполняется из Result.Summary в JSONWriter.
	Summary *SummaryInfo `json:"summary,omitempty"`
}
