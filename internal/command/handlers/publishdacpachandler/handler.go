// Package publishdacpachandler реализует команду publish-dacpac
// для публикации и выгрузки пакетов DACPAC/BACPAC через sqlpackage.
package publishdacpachandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Kargones/dbakit/internal/command"
	errhandler "github.com/Kargones/dbakit/internal/command/handlers/shared"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/logging"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
	"github.com/Kargones/dbakit/internal/service/dacpac"
)

func RegisterCmd() {
	command.Register(&PublishDacpacHandler{})
}

// PublishDacpacData содержит данные ответа команды publish-dacpac.
type PublishDacpacData struct {
	// Action — выполненное действие sqlpackage.
	Action string `json:"action"`
	// PackagePath — путь к пакету .dacpac/.bacpac.
	PackagePath string `json:"package_path"`
	// Server — экземпляр SQL Server.
	Server string `json:"server"`
	// Database — база данных операции.
	Database string `json:"database"`
	// Output — вывод sqlpackage.
	Output string `json:"output,omitempty"`
}

// writeText выводит результат операции в человекочитаемом формате.
func (d *PublishDacpacData) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "sqlpackage %s завершён: пакет %s, база %s на %s\n",
		d.Action, d.PackagePath, d.Database, d.Server); err != nil {
		return err
	}
	if d.Output != "" {
		if _, err := fmt.Fprintln(w, d.Output); err != nil {
			return err
		}
	}
	return nil
}

// PublishDacpacHandler обрабатывает команду publish-dacpac.
type PublishDacpacHandler struct {
	// runDacpac — опциональная подмена запуска sqlpackage для тестов.
	// nil в production: используется dacpac.Publisher.
	runDacpac func(ctx context.Context, opts dacpac.Options) (*dacpac.Result, error)
}

// Name возвращает имя команды.
func (h *PublishDacpacHandler) Name() string {
	return constants.ActPublishDacpac
}

// Description возвращает описание команды для вывода в help.
func (h *PublishDacpacHandler) Description() string {
	return "Публикация или выгрузка пакета DACPAC/BACPAC через sqlpackage"
}

// Execute выполняет команду publish-dacpac.
func (h *PublishDacpacHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActPublishDacpac))

	if cfg == nil || cfg.DacpacPath == "" {
		log.Error("Не указан путь к пакету")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указан путь к пакету (DK_DACPAC_PATH)")
	}

	action, err := dacpac.ParseAction(cfg.DacpacAction)
	if err != nil {
		log.Error("Некорректное действие", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			dacpac.ErrDacpacValidate,
			fmt.Sprintf("Некорректное действие: %v", err))
	}

	connOpts, err := cfg.SourceConnection()
	if err != nil {
		log.Error("Не удалось разрешить подключение", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			errhandler.ErrConnectionResolve,
			fmt.Sprintf("Не удалось разрешить подключение: %v", err))
	}

	server := connOpts.Server
	if connOpts.Port != 0 {
		server = fmt.Sprintf("%s,%d", connOpts.Server, connOpts.Port)
	}
	database := cfg.Database
	if database == "" {
		database = connOpts.Database
	}

	properties, err := config.ParseProperties(cfg.DacpacProperties)
	if err != nil {
		log.Error("Некорректные свойства", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			dacpac.ErrDacpacValidate,
			fmt.Sprintf("Некорректные свойства пакета: %v", err))
	}

	opts := dacpac.Options{
		Action:      action,
		PackagePath: cfg.DacpacPath,
		Server:      server,
		Database:    database,
		User:        connOpts.User,
		Password:    connOpts.Password,
		Properties:  properties,
	}
	if cfg.AppConfig != nil {
		opts.SqlPackagePath = cfg.AppConfig.SqlPackagePath
	}

	run := h.runDacpac
	if run == nil {
		run = dacpac.NewPublisher(logging.NewSlogAdapter(log)).Run
	}

	result, err := run(ctx, opts)
	if err != nil {
		log.Error("Операция sqlpackage не выполнена", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			errhandler.ErrorCode(err, dacpac.ErrDacpacRun),
			fmt.Sprintf("Операция sqlpackage не выполнена: %v", err))
	}

	data := &PublishDacpacData{
		Action:      string(result.Action),
		PackagePath: result.PackagePath,
		Server:      server,
		Database:    database,
		Output:      result.Output,
	}

	log.Info("Операция sqlpackage выполнена",
		slog.String("action", data.Action),
		slog.String("package", data.PackagePath),
		slog.String("database", data.Database))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	jsonResult := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActPublishDacpac,
		Data:    data,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, jsonResult)
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *PublishDacpacHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActPublishDacpac,
		Error: &output.ErrorInfo{
			Code:    code,
			Message: message,
		},
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	if err := writer.Write(os.Stdout, result); err != nil {
		return err
	}
	return fmt.Errorf("%s: %s", code, message)
}
