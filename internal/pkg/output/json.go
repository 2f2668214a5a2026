package output

import (
	"encoding/json"
	"io"
)

// JSONWriter форматирует Result в JSON с отступами.
type JSONWriter struct{}

// NewJSONWriter создаёт новый JSONWriter.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// Write сериализует result в JSON и записывает в w.
// Summary переносится в metadata.summary. Входной result не мутируется.
func (j *JSONWriter) Write(w io.Writer, result *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if result == nil {
		return encoder.Encode(result)
	}

	out := *result
	if result.Summary != nil {
		meta := Metadata{APIVersion: APIVersion}
		if result.Metadata != nil {
			meta = *result.Metadata
		}
		meta.Summary = result.Summary
		out.Metadata = &meta
	}
	return encoder.Encode(&out)
}
