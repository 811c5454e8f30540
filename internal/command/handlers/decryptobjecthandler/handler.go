// Package decryptobjecthandler реализует команду decrypt-object
// для восстановления исходного текста объектов, созданных WITH ENCRYPTION.
package decryptobjecthandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/command"
	errhandler "github.com/Kargones/dbakit/internal/command/handlers/shared"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/logging"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
	"github.com/Kargones/dbakit/internal/service/decrypt"
)

func RegisterCmd() {
	command.Register(&DecryptObjectHandler{})
}

// ObjectData описывает результат восстановления одного объекта.
type ObjectData struct {
	// Schema — схема объекта.
	Schema string `json:"schema"`
	// Name — имя объекта.
	Name string `json:"name"`
	// Type — код типа из sys.objects (P, V, TR, FN, IF, TF).
	Type string `json:"type"`
	// Script — восстановленный исходный текст (пустой при ошибке).
	Script string `json:"script,omitempty"`
	// Error — причина сбоя для этого объекта (пустая при успехе).
	Error string `json:"error,omitempty"`
}

// DecryptObjectData содержит данные ответа команды decrypt-object.
type DecryptObjectData struct {
	// Database — база данных, в которой выполнялось восстановление.
	Database string `json:"database"`
	// Objects — результаты по каждому объекту.
	Objects []ObjectData `json:"objects"`
	// Recovered — количество успешно восстановленных объектов.
	Recovered int `json:"recovered"`
	// Failed — количество объектов с ошибками.
	Failed int `json:"failed"`
}

// writeText выводит результаты восстановления в человекочитаемом формате.
func (d *DecryptObjectData) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "База данных: %s\nВосстановлено объектов: %d из %d\n",
		d.Database, d.Recovered, len(d.Objects))
	if err != nil {
		return err
	}
	for _, obj := range d.Objects {
		if obj.Error != "" {
			if _, err = fmt.Fprintf(w, "\n-- %s.%s (%s): ОШИБКА: %s\n",
				obj.Schema, obj.Name, obj.Type, obj.Error); err != nil {
				return err
			}
			continue
		}
		if _, err = fmt.Fprintf(w, "\n-- %s.%s (%s)\n%s\nGO\n",
			obj.Schema, obj.Name, obj.Type, obj.Script); err != nil {
			return err
		}
	}
	return nil
}

// DecryptObjectHandler обрабатывает команду decrypt-object.
type DecryptObjectHandler struct {
	// client — опциональный MSSQL клиент (nil в production, mock в тестах).
	// Production клиент создаётся через DAC: sys.sysobjvalues недоступна
	// обычным сессиям.
	client mssql.Client
}

// Name возвращает имя команды.
func (h *DecryptObjectHandler) Name() string {
	return constants.ActDecryptObject
}

// Description возвращает описание команды для вывода в help.
func (h *DecryptObjectHandler) Description() string {
	return "Восстановление исходного текста объектов WITH ENCRYPTION"
}

// Execute выполняет команду decrypt-object.
func (h *DecryptObjectHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActDecryptObject))

	if cfg == nil || cfg.Database == "" {
		log.Error("Не указана база данных")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указана база данных (DK_DATABASE)")
	}

	client := h.client
	if client == nil {
		var err error
		client, err = errhandler.NewDACClient(ctx, cfg)
		if err != nil {
			log.Error("Не удалось создать DAC клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				errhandler.ErrClientCreate,
				fmt.Sprintf("Не удалось подключиться через DAC: %v", err))
		}
		defer func() { _ = client.Close() }() //nolint:errcheck // закрытие при выходе
	}

	svc := decrypt.NewService(client, decrypt.Encoding(cfg.ObjectEncoding),
		logging.NewSlogAdapter(log))

	results, err := svc.DecryptObjects(ctx, cfg.Database, config.ParseList(cfg.Objects))
	if err != nil {
		log.Error("Восстановление текста объектов не выполнено", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			decrypt.ErrDecryptSecret,
			fmt.Sprintf("Восстановление не выполнено: %v", err))
	}

	data := &DecryptObjectData{
		Database: cfg.Database,
		Objects:  make([]ObjectData, 0, len(results)),
	}
	for _, r := range results {
		obj := ObjectData{
			Schema: r.Object.Schema,
			Name:   r.Object.Name,
			Type:   r.Object.Type,
			Script: r.Script,
		}
		if r.Err != nil {
			obj.Error = r.Err.Error()
			data.Failed++
		} else {
			data.Recovered++
		}
		data.Objects = append(data.Objects, obj)
	}

	log.Info("Восстановление завершено",
		slog.Int("recovered", data.Recovered),
		slog.Int("failed", data.Failed))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("recovered", strconv.Itoa(data.Recovered), "objects")
	for _, obj := range data.Objects {
		if obj.Error != "" {
			summary.AddWarning(fmt.Sprintf("%s.%s: %s", obj.Schema, obj.Name, obj.Error))
		}
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActDecryptObject,
		Data:    data,
		Summary: summary,
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
func (h *DecryptObjectHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActDecryptObject,
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
