package tracing

import "context"

// NewNopTracerProvider возвращает shutdown-функцию, которая ничего не
// делает. Используется при выключенном трейсинге.
func NewNopTracerProvider() func(context.Context) error {
	return func(_ context.Context) error { return nil }
}
