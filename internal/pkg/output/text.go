package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const summaryDivider = "══════════════════════════════════════════════════════"

// TextWriter форматирует Result в человекочитаемый текст.
type TextWriter struct{}

// NewTextWriter создаёт новый TextWriter.
func NewTextWriter() *TextWriter {
	return &TextWriter{}
}

// Write форматирует result в текст и записывает в w.
func (t *TextWriter) Write(w io.Writer, result *Result) error {
	if result == nil {
		return nil
	}

	if _, err := fmt.Fprintf(w, "%s: %s\n", result.Command, result.Status); err != nil {
		return err
	}

	if result.Error != nil {
		if _, err := fmt.Fprintf(w, "Error [%s]: %s\n", result.Error.Code, SanitizeValue(result.Error.Message)); err != nil {
			return err
		}
	}

	if result.Data != nil {
		if err := t.writeData(w, result.Data); err != nil {
			return err
		}
	}

	// Для ошибок сводка не выводится
	if result.Status != StatusError {
		return t.writeSummary(w, result)
	}
	return nil
}

func (t *TextWriter) writeData(w io.Writer, data any) error {
	if r, ok := data.(TextRenderer); ok {
		return r.WriteText(w)
	}
	dataJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("не удалось сериализовать Data: %w", err)
	}
	_, err = fmt.Fprintf(w, "Data: %s\n", dataJSON)
	return err
}

// writeSummary выводит блок сводки, отделённый двойной линией.
func (t *TextWriter) writeSummary(w io.Writer, result *Result) error {
	if _, err := fmt.Fprintf(w, "\n%s\n📊 Сводка\n%s\n", summaryDivider, summaryDivider); err != nil {
		return err
	}

	if result.Metadata != nil && result.Metadata.DurationMs > 0 {
		if _, err := fmt.Fprintf(w, "⏱️  Время выполнения: %s\n", formatDuration(result.Metadata.DurationMs)); err != nil {
			return err
		}
	}

	if s := result.Summary; s != nil {
		for _, m := range s.KeyMetrics {
			line := fmt.Sprintf("📈 %s: %s", m.Name, m.Value)
			if m.Unit != "" {
				line += " " + m.Unit
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if s.WarningsCount > 0 {
			if _, err := fmt.Fprintf(w, "\n⚠️  Предупреждений: %d\n", s.WarningsCount); err != nil {
				return err
			}
			for _, warn := range s.Warnings {
				if _, err := fmt.Fprintf(w, "   • %s\n", SanitizeValue(warn)); err != nil {
					return err
				}
			}
		}
	}

	_, err := fmt.Fprintf(w, "%s\n", summaryDivider)
	return err
}

// formatDuration форматирует миллисекунды: "150мс", "2.5с", "3м 5с".
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dмс", ms)
	}
	sec := ms / 1000
	if sec < 60 {
		return fmt.Sprintf("%.1fс", float64(ms)/1000)
	}
	return fmt.Sprintf("%dм %dс", sec/60, sec%60)
}

// SanitizeValue приводит значение к однострочной строке без ANSI
// escape-последовательностей и управляющих символов.
// Имена файлов и баз приходят из msdb и выводятся в терминал как есть.
func SanitizeValue(v any) string {
	s := fmt.Sprintf("%v", v)
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(' ')
		case r < 32 || r == 127:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
