package progress

import (
	"log/slog"
	"time"
)

// LogProgress выводит прогресс в лог через slog.
// Подходит для CI/CD и pipe-режимов: сообщения появляются не чаще
// ReportInterval, с процентом (если известен Total) и скоростью обработки.
type LogProgress struct {
	opts       Options
	startTime  time.Time
	lastReport time.Time
	current    int64
	message    string
	log        *slog.Logger
}

// NewLogProgress создаёт новый LogProgress.
func NewLogProgress(opts Options) *LogProgress {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	return &LogProgress{
		opts: opts,
		log:  slog.Default(),
	}
}

// Start инициализирует progress с начальным сообщением.
func (p *LogProgress) Start(message string) {
	p.startTime = time.Now()
	p.lastReport = p.startTime
	p.message = message
	p.current = 0

	p.log.Info("Операция начата", slog.String("message", message))
}

// Update обновляет текущий прогресс и пишет в лог не чаще ReportInterval.
func (p *LogProgress) Update(current int64, message string) {
	p.current = current
	if message != "" {
		p.message = message
	}

	now := time.Now()
	if now.Sub(p.lastReport) < p.opts.ReportInterval {
		return
	}
	p.lastReport = now

	elapsed := now.Sub(p.startTime)
	attrs := []any{
		slog.Int64("rows", current),
		slog.String("elapsed", FormatDuration(elapsed)),
		slog.String("rate", FormatRate(current, elapsed)),
		slog.String("message", p.message),
	}
	if p.opts.Total > 0 {
		percent := int(float64(current) / float64(p.opts.Total) * 100)
		if percent > 100 {
			percent = 100
		}
		attrs = append(attrs, slog.Int("percent", percent))
	}
	p.log.Info("Прогресс операции", attrs...)
}

// SetTotal устанавливает общее количество единиц работы.
func (p *LogProgress) SetTotal(total int64) {
	p.opts.Total = total
}

// Finish завершает progress и выводит финальное сообщение.
func (p *LogProgress) Finish() {
	elapsed := time.Since(p.startTime)
	p.log.Info("Операция завершена",
		slog.Int64("rows", p.current),
		slog.String("duration", FormatDuration(elapsed)),
		slog.String("rate", FormatRate(p.current, elapsed)))
}
