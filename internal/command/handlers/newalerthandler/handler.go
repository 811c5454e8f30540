// Package newalerthandler реализует команду new-alert
// для создания алерта SQL Server Agent.
package newalerthandler

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
	command.Register(&NewAlertHandler{})
}

// NewAlertData содержит данные ответа команды new-alert.
type NewAlertData struct {
	// Name — имя созданного алерта.
	Name string `json:"name"`
	// Severity — уровень severity (0 если алерт по message id).
	Severity int `json:"severity,omitempty"`
	// MessageID — номер сообщения (0 если алерт по severity).
	MessageID int `json:"message_id,omitempty"`
	// Database — ограничение на базу данных (пусто = все базы).
	Database string `json:"database,omitempty"`
	// Operator — оператор, привязанный к алерту (пусто = без уведомлений).
	Operator string `json:"operator,omitempty"`
}

// writeText выводит результат создания алерта в человекочитаемом формате.
func (d *NewAlertData) writeText(w io.Writer) error {
	trigger := fmt.Sprintf("severity %d", d.Severity)
	if d.MessageID != 0 {
		trigger = fmt.Sprintf("message %d", d.MessageID)
	}
	_, err := fmt.Fprintf(w, "Алерт %q создан (%s)\n", d.Name, trigger)
	if err != nil {
		return err
	}
	if d.Operator != "" {
		_, err = fmt.Fprintf(w, "Оператор: %s\n", d.Operator)
	}
	return err
}

// NewAlertHandler обрабатывает команду new-alert.
type NewAlertHandler struct {
	// client — опциональный MSSQL клиент (nil в production, mock в тестах)
	client mssql.Client
}

// Name возвращает имя команды.
func (h *NewAlertHandler) Name() string {
	return constants.ActNewAlert
}

// Description возвращает описание команды для вывода в help.
func (h *NewAlertHandler) Description() string {
	return "Создание алерта SQL Server Agent"
}

// Execute выполняет команду new-alert.
func (h *NewAlertHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActNewAlert))

	if cfg == nil || cfg.AlertName == "" {
		log.Error("Не указано имя алерта")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указано имя алерта (DK_ALERT_NAME)")
	}
	// Условие срабатывания — ровно одно из двух (ограничение sp_add_alert)
	if (cfg.AlertSeverity == 0) == (cfg.AlertMessage == 0) {
		log.Error("Некорректное условие срабатывания алерта",
			slog.Int("severity", cfg.AlertSeverity),
			slog.Int("message_id", cfg.AlertMessage))
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Задайте ровно одно из DK_ALERT_SEVERITY или DK_ALERT_MESSAGE_ID")
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

	opts := mssql.AlertOptions{
		Name:      cfg.AlertName,
		Severity:  cfg.AlertSeverity,
		MessageID: cfg.AlertMessage,
		Database:  cfg.Database,
	}
	if err := client.CreateAlert(ctx, opts); err != nil {
		log.Error("Не удалось создать алерт", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			mssql.ErrMSSQLExec,
			fmt.Sprintf("Не удалось создать алерт: %v", err))
	}

	if cfg.AlertOperator != "" {
		if err := client.AddAlertNotification(ctx, cfg.AlertName, cfg.AlertOperator); err != nil {
			log.Error("Не удалось привязать оператора",
				slog.String("operator", cfg.AlertOperator),
				slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				mssql.ErrMSSQLExec,
				fmt.Sprintf("Алерт создан, но оператор %s не привязан: %v", cfg.AlertOperator, err))
		}
	}

	data := &NewAlertData{
		Name:      cfg.AlertName,
		Severity:  cfg.AlertSeverity,
		MessageID: cfg.AlertMessage,
		Database:  cfg.Database,
		Operator:  cfg.AlertOperator,
	}

	log.Info("Алерт создан", slog.String("alert", data.Name))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActNewAlert,
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
func (h *NewAlertHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActNewAlert,
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
