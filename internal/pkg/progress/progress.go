// Package progress предоставляет интерфейс и реализации для отображения прогресса
// долгих операций (bulk copy, перенос файлов, публикация dacpac).
package progress

import (
	"fmt"
	"io"
	"time"
)

// Progress определяет интерфейс для отображения прогресса операций.
type Progress interface {
	// Start инициализирует progress с начальным сообщением.
	Start(message string)
	// Update обновляет текущий прогресс.
	// current — текущее количество обработанных единиц (обычно строк),
	// message — опциональное сообщение.
	Update(current int64, message string)
	// Finish завершает progress с финальным статусом.
	Finish()
	// SetTotal устанавливает общее количество (если стало известно).
	SetTotal(total int64)
}

// Options конфигурирует progress.
type Options struct {
	// Total — общее количество единиц работы (0 = неизвестно)
	Total int64
	// Output — куда выводить (обычно os.Stderr)
	Output io.Writer
	// ReportInterval — минимальный интервал между сообщениями в лог
	ReportInterval time.Duration
}

// FormatDuration форматирует duration в читаемый вид (1h 7m 30s, 5m 30s, 45s).
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	if d < 0 {
		return "0s"
	}

	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	if d >= time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		seconds := int(d.Seconds()) % 60

		if minutes == 0 && seconds == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		if seconds == 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// FormatRate форматирует скорость обработки строк (rows/s).
func FormatRate(rows int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "0 rows/s"
	}
	rate := float64(rows) / elapsed.Seconds()
	return fmt.Sprintf("%.0f rows/s", rate)
}
