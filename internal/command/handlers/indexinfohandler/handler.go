// Package indexinfohandler реализует команду index-info для вывода
// метаданных индексов и статистик таблиц.
package indexinfohandler

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
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
)

func RegisterCmd() {
	command.Register(&IndexInfoHandler{})
}

// IndexData описывает индекс и статистику его использования.
type IndexData struct {
	Schema          string `json:"schema"`
	Table           string `json:"table"`
	Index           string `json:"index"`
	IndexType       string `json:"index_type"`
	KeyColumns      string `json:"key_columns"`
	IncludedColumns string `json:"included_columns,omitempty"`
	IsUnique        bool   `json:"is_unique"`
	IsPrimaryKey    bool   `json:"is_primary_key"`
	RowCount        int64  `json:"row_count"`
	SizeKB          int64  `json:"size_kb"`
	UserSeeks       int64  `json:"user_seeks"`
	UserScans       int64  `json:"user_scans"`
	UserLookups     int64  `json:"user_lookups"`
	UserUpdates     int64  `json:"user_updates"`
}

// StatisticsData описывает объект статистики таблицы.
type StatisticsData struct {
	Schema              string `json:"schema"`
	Table               string `json:"table"`
	Name                string `json:"name"`
	Columns             string `json:"columns"`
	LastUpdated         string `json:"last_updated,omitempty"`
	RowsSampled         int64  `json:"rows_sampled"`
	ModificationCounter int64  `json:"modification_counter"`
	IsAutoCreated       bool   `json:"is_auto_created"`
}

// IndexInfoData содержит данные ответа команды index-info.
type IndexInfoData struct {
	// Database — база данных.
	Database string `json:"database"`
	// Indexes — индексы со статистикой использования.
	Indexes []IndexData `json:"indexes"`
	// Statistics — объекты статистики.
	Statistics []StatisticsData `json:"statistics"`
}

// writeText выводит метаданные в человекочитаемом формате.
func (d *IndexInfoData) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "База данных: %s\nИндексы (%d):\n", d.Database, len(d.Indexes))
	if err != nil {
		return err
	}
	for _, idx := range d.Indexes {
		flags := ""
		if idx.IsPrimaryKey {
			flags = " PK"
		} else if idx.IsUnique {
			flags = " UNIQUE"
		}
		if _, err = fmt.Fprintf(w, "  %s.%s.%s (%s%s): %d строк, %d КБ, seeks=%d scans=%d\n",
			idx.Schema, idx.Table, idx.Index, idx.IndexType, flags,
			idx.RowCount, idx.SizeKB, idx.UserSeeks, idx.UserScans); err != nil {
			return err
		}
	}

	if _, err = fmt.Fprintf(w, "Статистики (%d):\n", len(d.Statistics)); err != nil {
		return err
	}
	for _, st := range d.Statistics {
		updated := st.LastUpdated
		if updated == "" {
			updated = "никогда"
		}
		if _, err = fmt.Fprintf(w, "  %s.%s.%s [%s]: обновлена %s, модификаций %d\n",
			st.Schema, st.Table, st.Name, st.Columns, updated, st.ModificationCounter); err != nil {
			return err
		}
	}
	return nil
}

// IndexInfoHandler обрабатывает команду index-info.
type IndexInfoHandler struct {
	// client — опциональный MSSQL клиент (nil в production, mock в тестах)
	client mssql.Client
}

// Name возвращает имя команды.
func (h *IndexInfoHandler) Name() string {
	return constants.ActIndexInfo
}

// Description возвращает описание команды для вывода в help.
func (h *IndexInfoHandler) Description() string {
	return "Метаданные индексов и статистик таблиц"
}

// Execute выполняет команду index-info.
func (h *IndexInfoHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActIndexInfo))

	if cfg == nil || cfg.Database == "" {
		log.Error("Не указана база данных")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указана база данных (DK_DATABASE)")
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

	// Пустой cfg.Table — метаданные всех таблиц базы
	indexes, err := client.GetIndexInfo(ctx, cfg.Database, cfg.Schema, cfg.Table)
	if err != nil {
		log.Error("Не удалось получить индексы", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			mssql.ErrMSSQLQuery,
			fmt.Sprintf("Не удалось получить индексы: %v", err))
	}

	statistics, err := client.GetStatisticsInfo(ctx, cfg.Database, cfg.Schema, cfg.Table)
	if err != nil {
		log.Error("Не удалось получить статистики", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			mssql.ErrMSSQLQuery,
			fmt.Sprintf("Не удалось получить статистики: %v", err))
	}

	data := &IndexInfoData{
		Database:   cfg.Database,
		Indexes:    make([]IndexData, 0, len(indexes)),
		Statistics: make([]StatisticsData, 0, len(statistics)),
	}
	for _, idx := range indexes {
		data.Indexes = append(data.Indexes, IndexData{
			Schema:          idx.Schema,
			Table:           idx.Table,
			Index:           idx.Index,
			IndexType:       idx.IndexType,
			KeyColumns:      idx.KeyColumns,
			IncludedColumns: idx.IncludedColumns,
			IsUnique:        idx.IsUnique,
			IsPrimaryKey:    idx.IsPrimaryKey,
			RowCount:        idx.RowCount,
			SizeKB:          idx.SizeKB,
			UserSeeks:       idx.UserSeeks,
			UserScans:       idx.UserScans,
			UserLookups:     idx.UserLookups,
			UserUpdates:     idx.UserUpdates,
		})
	}
	for _, st := range statistics {
		sd := StatisticsData{
			Schema:              st.Schema,
			Table:               st.Table,
			Name:                st.Name,
			Columns:             st.Columns,
			RowsSampled:         st.RowsSampled,
			ModificationCounter: st.ModificationCounter,
			IsAutoCreated:       st.IsAutoCreated,
		}
		if st.LastUpdated != nil {
			sd.LastUpdated = st.LastUpdated.Format(time.RFC3339)
		}
		data.Statistics = append(data.Statistics, sd)
	}

	log.Info("Метаданные получены",
		slog.Int("indexes", len(data.Indexes)),
		slog.Int("statistics", len(data.Statistics)))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("indexes", strconv.Itoa(len(data.Indexes)), "objects")
	summary.AddMetric("statistics", strconv.Itoa(len(data.Statistics)), "objects")

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActIndexInfo,
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
func (h *IndexInfoHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActIndexInfo,
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
