package logging

// NopLogger игнорирует все сообщения. Используется в тестах и как
// fallback, когда логгер не передан.
type NopLogger struct{}

// NewNopLogger создаёт Logger, отбрасывающий все записи.
func NewNopLogger() Logger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(_ string, _ ...any) {}

func (n *NopLogger) Info(_ string, _ ...any) {}

func (n *NopLogger) Warn(_ string, _ ...any) {}

func (n *NopLogger) Error(_ string, _ ...any) {}

// With возвращает тот же NopLogger: атрибуты всё равно игнорируются.
func (n *NopLogger) With(_ ...any) Logger {
	return n
}
