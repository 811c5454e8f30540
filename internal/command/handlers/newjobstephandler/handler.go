// Package newjobstephandler реализует команду new-job-step
// для добавления шага в job SQL Server Agent.
package newjobstephandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/command"
	errhandler "github.com/Kargones/dbakit/internal/command/handlers/shared"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
)

func RegisterCmd() {
	command.Register(&NewJobStepHandler{})
}

// NewJobStepData содержит данные ответа команды new-job-step.
type NewJobStepData struct {
	// JobName — имя job.
	JobName string `json:"job_name"`
	// StepName — имя добавленного шага.
	StepName string `json:"step_name"`
	// StepID — позиция шага (0 = добавлен в конец).
	StepID int `json:"step_id,omitempty"`
	// Subsystem — подсистема выполнения шага.
	Subsystem string `json:"subsystem"`
	// Database — база данных TSQL шага.
	Database string `json:"database,omitempty"`
}

// writeText выводит результат добавления шага в человекочитаемом формате.
func (d *NewJobStepData) writeText(w io.Writer) error {
	position := "в конец"
	if d.StepID > 0 {
		position = fmt.Sprintf("на позицию %d", d.StepID)
	}
	_, err := fmt.Fprintf(w, "Шаг %q добавлен %s job %q (%s)\n",
		d.StepName, position, d.JobName, d.Subsystem)
	return err
}

// NewJobStepHandler обрабатывает команду new-job-step.
type NewJobStepHandler struct {
	// client — опциональный MSSQL клиент (nil в production, mock в тестах)
	client mssql.Client
}

// Name возвращает имя команды.
func (h *NewJobStepHandler) Name() string {
	return constants.ActNewJobStep
}

// Description возвращает описание команды для вывода в help.
func (h *NewJobStepHandler) Description() string {
	return "Добавление шага в job SQL Server Agent"
}

// Execute выполняет команду new-job-step.
func (h *NewJobStepHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActNewJobStep))

	if cfg == nil || cfg.JobName == "" {
		log.Error("Не указано имя job")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указано имя job (DK_JOB_NAME)")
	}
	if cfg.StepName == "" {
		log.Error("Не указано имя шага")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указано имя шага (DK_STEP_NAME)")
	}
	if cfg.StepCommand == "" {
		log.Error("Не указана команда шага")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указана команда шага (DK_STEP_COMMAND)")
	}

	client := h.client
	if client == nil {
		var err error
		client, err = errhandler.NewSourceClient(ctx, cfg)
		if err != nil {
			log.Error("Не удалось создать MSSQL клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				errhandler.ErrClientCreate,
				fmt.Sprintf("Не удалось подключиться: %v", err))
		}
		defer func() { _ = client.Close() }() //nolint:errcheck // закрытие при выходе
	}

	opts := mssql.JobStepOptions{
		JobName:   cfg.JobName,
		StepName:  cfg.StepName,
		StepID:    cfg.StepID,
		Subsystem: cfg.StepSubsystem,
		Command:   cfg.StepCommand,
		Database:  cfg.Database,
	}
	if err := client.CreateJobStep(ctx, opts); err != nil {
		log.Error("Не удалось добавить шаг", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			mssql.ErrMSSQLExec,
			fmt.Sprintf("Не удалось добавить шаг: %v", err))
	}

	subsystem := cfg.StepSubsystem
	if subsystem == "" {
		subsystem = "TSQL"
	}
	data := &NewJobStepData{
		JobName:   cfg.JobName,
		StepName:  cfg.StepName,
		StepID:    cfg.StepID,
		Subsystem: subsystem,
		Database:  cfg.Database,
	}

	log.Info("Шаг добавлен",
		slog.String("job", data.JobName),
		slog.String("step", data.StepName))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActNewJobStep,
		Data:    data,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *NewJobStepHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActNewJobStep,
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
