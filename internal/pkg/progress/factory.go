package progress

import (
	"os"
	"time"
)

// DefaultReportInterval — интервал между сообщениями прогресса по умолчанию.
const DefaultReportInterval = 5 * time.Second

// New создаёт подходящую реализацию Progress на основе окружения и Options.
// Логика выбора:
// 1. DK_SHOW_PROGRESS=false → NoopProgress
// 2. DK_OUTPUT_FORMAT=json → NoopProgress (текстовые сообщения ломают парсинг stdout)
// 3. Иначе → LogProgress
func New(opts Options) Progress {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	if os.Getenv("DK_SHOW_PROGRESS") == "false" {
		return &NoopProgress{}
	}

	if os.Getenv("DK_OUTPUT_FORMAT") == "json" {
		return &NoopProgress{}
	}

	return NewLogProgress(opts)
}
