package logging

import "log/slog"

// SlogAdapter — production-реализация Logger поверх slog.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter оборачивает готовый slog.Logger.
// Для создания логгера из конфигурации используйте NewLogger.
// nil заменяется на slog.Default() с предупреждением в лог.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
		logger.Warn("logging: в NewSlogAdapter передан nil slog.Logger, используется default")
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }

func (s *SlogAdapter) Info(msg string, args ...any) { s.logger.Info(msg, args...) }

func (s *SlogAdapter) Warn(msg string, args ...any) { s.logger.Warn(msg, args...) }

func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// With возвращает новый SlogAdapter с добавленными атрибутами.
func (s *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(args...)}
}
