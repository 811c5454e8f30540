// Package logging предоставляет интерфейс и реализации структурированного
// логирования.
package logging

// Logger — интерфейс структурированного логирования. Основная реализация
// SlogAdapter (поверх slog), для тестов есть NopLogger.
//
// Методы принимают сообщение и key-value пары:
//
//	logger.Info("Файл перенесён", "database", db, "logical_name", name)
//
// Логи пишутся ТОЛЬКО в stderr (или файл): stdout зарезервирован под
// результат команды и должен оставаться валидным JSON при DK_OUTPUT_FORMAT=json.
type Logger interface {
	// Debug — детальная диагностика.
	Debug(msg string, args ...any)

	// Info — значимые события: старт и завершение операций.
	Info(msg string, args ...any)

	// Warn — recoverable проблемы, deprecated usage.
	Warn(msg string, args ...any)

	// Error — ошибки, требующие внимания.
	Error(msg string, args ...any)

	// With возвращает Logger с добавленными атрибутами, которые попадут
	// во все последующие записи.
	With(args ...any) Logger
}
