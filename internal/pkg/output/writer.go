package output

import "io"

// Writer определяет интерфейс для форматирования результатов команд.
// Реализации: JSONWriter, TextWriter.
type Writer interface {
	// Write форматирует result и записывает в w.
	Write(w io.Writer, result *Result) error
}

// TextRenderer реализуется payload-ами, у которых есть собственное
// человекочитаемое представление. TextWriter использует его вместо JSON.
type TextRenderer interface {
	WriteText(w io.Writer) error
}
