package output

import "strings"

// FormatJSON и FormatText — поддерживаемые форматы вывода.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewWriter создаёт Writer по указанному формату (case-insensitive).
// При неизвестном формате возвращает TextWriter.
func NewWriter(format string) Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return NewJSONWriter()
	default:
		return NewTextWriter()
	}
}

// IsValidFormat сообщает, поддерживается ли формат.
func IsValidFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, FormatText:
		return true
	}
	return false
}
