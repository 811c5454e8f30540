// Package copytabledatahandler реализует команду copy-table-data
// для потокового копирования данных таблицы через bulk copy.
package copytabledatahandler

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
	"github.com/Kargones/dbakit/internal/pkg/progress"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
	"github.com/Kargones/dbakit/internal/service/tabledata"
)

func RegisterCmd() {
	command.Register(&CopyTableDataHandler{})
}

// CopyTableDataData содержит данные ответа команды copy-table-data.
type CopyTableDataData struct {
	// SourceTable — трёхчастное имя таблицы-источника.
	SourceTable string `json:"source_table"`
	// DestTable — трёхчастное имя целевой таблицы.
	DestTable string `json:"dest_table"`
	// RowsCopied — точное количество скопированных строк.
	RowsCopied int64 `json:"rows_copied"`
	// DurationMs — длительность копирования в миллисекундах.
	DurationMs int64 `json:"duration_ms"`
	// RowsPerSecond — средняя скорость копирования.
	RowsPerSecond float64 `json:"rows_per_second"`
	// Truncated — очищалась ли целевая таблица перед копированием.
	Truncated bool `json:"truncated"`
}

// writeText выводит результат копирования в человекочитаемом формате.
func (d *CopyTableDataData) writeText(w io.Writer) error {
	truncText := ""
	if d.Truncated {
		truncText = " (цель очищена)"
	}
	_, err := fmt.Fprintf(w, "Скопировано: %s → %s%s\nСтрок: %d\nВремя: %s\nСкорость: %.0f строк/с\n",
		d.SourceTable, d.DestTable, truncText,
		d.RowsCopied,
		progress.FormatDuration(time.Duration(d.DurationMs)*time.Millisecond),
		d.RowsPerSecond)
	return err
}

// CopyTableDataHandler обрабатывает команду copy-table-data.
type CopyTableDataHandler struct {
	// source, dest — опциональные MSSQL клиенты (nil в production, mock в тестах)
	source mssql.Client
	dest   mssql.Client
}

// Name возвращает имя команды.
func (h *CopyTableDataHandler) Name() string {
	return constants.ActCopyTableData
}

// Description возвращает описание команды для вывода в help.
func (h *CopyTableDataHandler) Description() string {
	return "Копирование данных таблицы через bulk copy"
}

// Execute выполняет команду copy-table-data.
func (h *CopyTableDataHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActCopyTableData))

	if cfg == nil || cfg.Database == "" {
		log.Error("Не указана база данных")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указана база данных (DK_DATABASE)")
	}
	if cfg.Table == "" {
		log.Error("Не указана таблица-источник")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указана таблица-источник (DK_TABLE)")
	}

	source := h.source
	if source == nil {
		var err error
		source, err = errhandler.NewSourceClient(ctx, cfg)
		if err != nil {
			log.Error("Не удалось подключиться к источнику", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				errhandler.ErrClientCreate,
				fmt.Sprintf("Не удалось подключиться к источнику: %v", err))
		}
		defer func() { _ = source.Close() }() //nolint:errcheck // закрытие при выходе
	}

	dest := h.dest
	if dest == nil {
		// Копирование внутри одного экземпляра переиспользует соединение источника
		if cfg.Destination == "" || cfg.Destination == cfg.Source {
			dest = source
		} else {
			var err error
			dest, err = errhandler.NewDestinationClient(ctx, cfg)
			if err != nil {
				log.Error("Не удалось подключиться к приёмнику", slog.String("error", err.Error()))
				return h.writeError(format, traceID, start,
					errhandler.ErrClientCreate,
					fmt.Sprintf("Не удалось подключиться к приёмнику: %v", err))
			}
			defer func() { _ = dest.Close() }() //nolint:errcheck // закрытие при выходе
		}
	}

	copier := tabledata.NewCopier(source, dest,
		progress.New(progress.Options{}),
		logging.NewSlogAdapter(log))

	opts := tabledata.CopyOptions{
		SourceDatabase: cfg.Database,
		SourceSchema:   cfg.Schema,
		SourceTable:    cfg.Table,
		DestDatabase:   cfg.DestDatabase,
		DestSchema:     cfg.DestSchema,
		DestTable:      cfg.DestTable,
		Truncate:       cfg.Truncate,
		BatchSize:      cfg.BatchSize,
		NotifyAfter:    cfg.NotifyAfter,
		KeepIdentity:   cfg.KeepIdentity,
		KeepNulls:      cfg.KeepNulls,
		CommandTimeout: cfg.CommandTimeout(),
	}

	copyResult, err := copier.Copy(ctx, opts)
	if err != nil {
		log.Error("Копирование не выполнено", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			errhandler.ErrorCode(err, tabledata.ErrCopySource),
			fmt.Sprintf("Копирование не выполнено: %v", err))
	}

	destDatabase := cfg.DestDatabase
	if destDatabase == "" {
		destDatabase = cfg.Database
	}
	destSchema := cfg.DestSchema
	if destSchema == "" {
		destSchema = defaultSchema(cfg.Schema)
	}
	destTable := cfg.DestTable
	if destTable == "" {
		destTable = cfg.Table
	}

	data := &CopyTableDataData{
		SourceTable:   fmt.Sprintf("%s.%s.%s", cfg.Database, defaultSchema(cfg.Schema), cfg.Table),
		DestTable:     fmt.Sprintf("%s.%s.%s", destDatabase, destSchema, destTable),
		RowsCopied:    copyResult.RowsCopied,
		DurationMs:    copyResult.Elapsed.Milliseconds(),
		RowsPerSecond: copyResult.RowsPerSecond,
		Truncated:     cfg.Truncate,
	}

	log.Info("Копирование завершено",
		slog.Int64("rows", data.RowsCopied),
		slog.Float64("rows_per_second", data.RowsPerSecond))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("rows_copied", strconv.FormatInt(data.RowsCopied, 10), "rows")
	summary.AddMetric("rows_per_second", fmt.Sprintf("%.0f", data.RowsPerSecond), "rows/s")

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActCopyTableData,
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

// defaultSchema возвращает схему или dbo по умолчанию.
func defaultSchema(schema string) string {
	if schema == "" {
		return "dbo"
	}
	return schema
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *CopyTableDataHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActCopyTableData,
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
