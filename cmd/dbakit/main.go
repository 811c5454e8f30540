// Package main содержит точку входа приложения dbakit — инструмента
// администрирования Microsoft SQL Server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Kargones/dbakit/internal/command"
	"github.com/Kargones/dbakit/internal/command/handlers"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/di"
	"github.com/Kargones/dbakit/internal/pkg/logging"
	"github.com/Kargones/dbakit/internal/pkg/metrics"
	"github.com/Kargones/dbakit/internal/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// recordMetrics записывает результат выполнения команды и отправляет метрики
// в Pushgateway.
func recordMetrics(ctx context.Context, collector metrics.Collector, command, database string, start time.Time, success bool) {
	collector.RecordCommandEnd(command, database, time.Since(start), success)
	_ = collector.Push(ctx) // Ошибки push логируются внутри, не критичны
}

func main() {
	os.Exit(run())
}

// run содержит основную логику приложения и возвращает exit code.
// Вынесена из main() чтобы os.Exit() вызывался ПОСЛЕ отработки всех
// defer-ов (tracerShutdown, span.End). Без этого трейсы ошибочных
// выполнений терялись бы: os.Exit() не выполняет defer.
func run() int {
	ctx := context.Background()
	cfg, err := config.MustLoad()
	if err != nil || cfg == nil {
		fmt.Fprintf(os.Stderr, "Не удалось загрузить конфигурацию приложения: %v\n", err)
		return 5
	}
	l := cfg.Logger
	l.Debug("Информация о сборке",
		slog.String("version", constants.Version),
		slog.String("commit_hash", constants.PreCommitHash),
	)

	handlers.RegisterAll()

	// Пустая команда → help
	if cfg.Command == "" {
		cfg.Command = constants.ActHelp
	}

	// trace_id для корреляции логов; связываем с OTel span context,
	// чтобы все span-ы использовали этот trace ID.
	traceID := tracing.GenerateTraceID()
	ctx = tracing.WithTraceID(ctx, traceID)
	ctx = tracing.ContextWithOTelTraceID(ctx, traceID)

	logAdapter := logging.NewSlogAdapter(l)
	metricsCollector := di.ProvideMetricsCollector(cfg, logAdapter)

	tracerShutdown := di.ProvideTracerProvider(cfg, logAdapter)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(shutdownCtx); err != nil {
			l.Error("ошибка завершения tracing",
				slog.String("error", err.Error()),
				slog.String("trace_id", traceID),
				slog.String("command", cfg.Command),
			)
		}
	}()

	tracer := otel.Tracer("dbakit")
	ctx, span := tracer.Start(ctx, cfg.Command,
		trace.WithAttributes(
			attribute.String("command", cfg.Command),
			attribute.String("database", cfg.Database),
			attribute.String("trace_id", traceID),
		),
	)
	defer span.End()

	metricsCollector.RecordCommandStart(cfg.Command, cfg.Database)
	start := time.Now()

	handler, ok := command.Get(cfg.Command)
	if !ok {
		l.Error("неизвестная команда",
			slog.String("DK_COMMAND", cfg.Command),
			slog.String(constants.MsgErrProcessing, constants.MsgAppExit),
		)
		recordMetrics(ctx, metricsCollector, cfg.Command, cfg.Database, start, false)
		return 2
	}

	l.Debug("Выполнение команды", slog.String("command", cfg.Command))
	execErr := handler.Execute(ctx, cfg)

	recordMetrics(ctx, metricsCollector, cfg.Command, cfg.Database, start, execErr == nil)

	if execErr != nil {
		l.Error("Ошибка выполнения команды",
			slog.String("command", cfg.Command),
			slog.String("error", execErr.Error()),
			slog.String(constants.MsgErrProcessing, constants.MsgAppExit),
		)
		return 8
	}
	return 0
}
