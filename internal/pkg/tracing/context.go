package tracing

import "context"

// traceIDKey — приватный тип ключа context, исключает коллизии
// с ключами других пакетов.
type traceIDKey struct{}

// WithTraceID возвращает context с установленным trace ID.
// Уже установленный trace ID перезаписывается.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromContext извлекает trace ID из context.
// Для nil context или отсутствующего значения возвращает пустую строку:
// вызывающая сторона генерирует новый ID через GenerateTraceID.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
