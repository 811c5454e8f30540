package output

import (
	"encoding/json"
	"fmt"
	"io"
)

const summaryDivider = "══════════════════════════════════════════════════════"

// TextWriter форматирует Result в человекочитаемый текст.
type TextWriter struct{}

// NewTextWriter создаёт новый TextWriter.
func NewTextWriter() *TextWriter {
	return &TextWriter{}
}

// errWriter накапливает первую ошибку записи, убирая повторяющиеся
// проверки err после каждого Fprintf.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Write форматирует result в текст и записывает в w.
func (t *TextWriter) Write(w io.Writer, result *Result) error {
	if result == nil {
		return nil
	}

	ew := &errWriter{w: w}
	ew.printf("%s: %s\n", result.Command, result.Status)

	if result.Error != nil {
		ew.printf("Error [%s]: %s\n", result.Error.Code, result.Error.Message)
	}

	if result.Data != nil {
		dataJSON, err := json.MarshalIndent(result.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("не удалось сериализовать Data: %w", err)
		}
		ew.printf("Data: %s\n", dataJSON)
	}

	// Summary только для успешных операций, при ошибке он перегружает вывод.
	if result.Status != StatusError {
		t.writeSummary(ew, result)
	}

	return ew.err
}

func (t *TextWriter) writeSummary(ew *errWriter, result *Result) {
	ew.printf("\n%s\n", summaryDivider)
	ew.printf("📊 Сводка\n")
	ew.printf("%s\n", summaryDivider)

	if result.Metadata != nil && result.Metadata.DurationMs > 0 {
		ew.printf("⏱️  Время выполнения: %s\n", formatDuration(result.Metadata.DurationMs))
	}

	if result.Summary != nil {
		for _, m := range result.Summary.KeyMetrics {
			if m.Unit != "" {
				ew.printf("📈 %s: %s %s\n", m.Name, m.Value, m.Unit)
			} else {
				ew.printf("📈 %s: %s\n", m.Name, m.Value)
			}
		}

		if result.Summary.WarningsCount > 0 {
			ew.printf("\n⚠️  Предупреждений: %d\n", result.Summary.WarningsCount)
			for _, warn := range result.Summary.Warnings {
				ew.printf("   • %s\n", warn)
			}
		}
	}

	ew.printf("%s\n", summaryDivider)
}

// formatDuration переводит миллисекунды в компактный вид: 850мс, 2.5с, 3м 20с.
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
