package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/dbakit/internal/config"
)

// buildApp собирает App из провайдеров так же, как это делает
// сгенерированный wire-код.
func buildApp(cfg *config.Config) *App {
	logger := ProvideLogger(cfg)
	return &App{
		Config:           cfg,
		Logger:           logger,
		OutputWriter:     ProvideOutputWriter(),
		TraceID:          ProvideTraceID(),
		MetricsCollector: ProvideMetricsCollector(cfg, logger),
		TracerShutdown:   ProvideTracerProvider(cfg, logger),
	}
}

func TestApp_FullComposition(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	cfg := &config.Config{
		Command: "index-info",
		Source:  "prod",
	}

	app := buildApp(cfg)

	require.NotNil(t, app.Logger)
	require.NotNil(t, app.OutputWriter)
	require.NotNil(t, app.MetricsCollector)
	require.NotNil(t, app.TracerShutdown)
	assert.Len(t, app.TraceID, 32)
	assert.Same(t, cfg, app.Config)

	// Nop-зависимости безопасны при отключённых метриках и трейсинге.
	app.MetricsCollector.RecordCommandStart("index-info", "Sales")
	assert.NoError(t, app.MetricsCollector.Push(context.Background()))
	assert.NoError(t, app.TracerShutdown(context.Background()))
}

func TestApp_NilConfigSafe(t *testing.T) {
	app := buildApp(nil)

	require.NotNil(t, app.Logger)
	require.NotNil(t, app.MetricsCollector)
	require.NotNil(t, app.TracerShutdown)
	assert.NoError(t, app.TracerShutdown(context.Background()))
}

func TestApp_TraceIDUniquePerApp(t *testing.T) {
	first := buildApp(nil)
	second := buildApp(nil)

	assert.NotEqual(t, first.TraceID, second.TraceID)
}
