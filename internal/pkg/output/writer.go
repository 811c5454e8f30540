package output

import "io"

// Writer форматирует результат команды и пишет его в поток.
//
// Реализации: JSONWriter (машиночитаемый вывод для CI) и TextWriter
// (человекочитаемый вывод по умолчанию).
type Writer interface {
	// Write сериализует result и записывает его в w.
	Write(w io.Writer, result *Result) error
}
