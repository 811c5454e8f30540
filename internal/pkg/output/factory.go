package output

import "strings"

// FormatJSON и FormatText — поддерживаемые форматы вывода.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewWriter создаёт Writer по указанному формату.
// Поддерживаемые форматы: "json", "text" (case-insensitive).
// При неизвестном формате возвращает TextWriter (default).
func NewWriter(format string) Writer {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewJSONWriter()
	case FormatText:
		return NewTextWriter()
	default:
		return NewTextWriter()
	}
}
