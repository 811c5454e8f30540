// Package movedbfilehandler реализует команду move-db-file
// для переноса файлов базы данных на новые пути.
package movedbfilehandler

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
	"github.com/Kargones/dbakit/internal/service/dbfile"
)

func RegisterCmd() {
	// Алиас "move-database-file" сохранён для обратной совместимости.
	command.RegisterWithAlias(&MoveDbFileHandler{}, "move-database-file")
}

// FileData описывает результат переноса одного файла.
type FileData struct {
	// LogicalName — логическое имя файла.
	LogicalName string `json:"logical_name"`
	// OldPath — путь до переноса.
	OldPath string `json:"old_path"`
	// NewPath — путь после переноса.
	NewPath string `json:"new_path"`
	// Success — файл перенесён и путь обновлён в каталоге.
	Success bool `json:"success"`
	// Error — ошибка переноса (пустая при успехе).
	Error string `json:"error,omitempty"`
}

// MoveDbFileData содержит данные ответа команды move-db-file.
type MoveDbFileData struct {
	// Database — база данных.
	Database string `json:"database"`
	// Files — результаты по каждому файлу.
	Files []FileData `json:"files"`
	// Online — база возвращена в ONLINE.
	Online bool `json:"online"`
	// Moved — количество успешно перенесённых файлов.
	Moved int `json:"moved"`
}

// writeText выводит результат переноса в человекочитаемом формате.
func (d *MoveDbFileData) writeText(w io.Writer) error {
	onlineText := "ONLINE"
	if !d.Online {
		onlineText = "OFFLINE"
	}
	_, err := fmt.Fprintf(w, "База данных: %s (%s)\nПеренесено файлов: %d из %d\n",
		d.Database, onlineText, d.Moved, len(d.Files))
	if err != nil {
		return err
	}
	for _, f := range d.Files {
		if f.Success {
			_, err = fmt.Fprintf(w, "  %s: %s → %s\n", f.LogicalName, f.OldPath, f.NewPath)
		} else {
			_, err = fmt.Fprintf(w, "  %s: ОШИБКА: %s\n", f.LogicalName, f.Error)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MoveDbFileHandler обрабатывает команду move-db-file.
type MoveDbFileHandler struct {
	// client — опциональный MSSQL клиент (nil в production, mock в тестах)
	client mssql.Client
}

// Name возвращает имя команды.
func (h *MoveDbFileHandler) Name() string {
	return constants.ActMoveDbFile
}

// Description возвращает описание команды для вывода в help.
func (h *MoveDbFileHandler) Description() string {
	return "Перенос файлов базы данных на новые пути"
}

// Execute выполняет команду move-db-file.
func (h *MoveDbFileHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActMoveDbFile))

	if cfg == nil || cfg.Database == "" {
		log.Error("Не указана база данных")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указана база данных (DK_DATABASE)")
	}

	destinations, err := config.ParseFileMoves(cfg.FileMoves)
	if err != nil {
		log.Error("Некорректный формат DK_FILE_MOVES", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			fmt.Sprintf("Некорректный формат DK_FILE_MOVES: %v", err))
	}
	if len(destinations) == 0 {
		log.Error("Не указаны файлы для переноса")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указаны файлы для переноса (DK_FILE_MOVES)")
	}

	client := h.client
	if client == nil {
		client, err = errhandler.NewSourceClient(ctx, cfg)
		if err != nil {
			log.Error("Не удалось создать MSSQL клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				errhandler.ErrClientCreate,
				fmt.Sprintf("Не удалось подключиться: %v", err))
		}
		defer func() { _ = client.Close() }() //nolint:errcheck // закрытие при выходе
	}

	mover := dbfile.NewMover(client, logging.NewSlogAdapter(log))
	moveResult, moveErr := mover.Move(ctx, dbfile.MoveOptions{
		Database:      cfg.Database,
		Destinations:  destinations,
		RelocateFiles: cfg.RelocateFiles,
		DeleteSource:  cfg.DeleteSource,
	})
	if moveResult == nil {
		log.Error("Перенос файлов не выполнен", slog.String("error", moveErr.Error()))
		return h.writeError(format, traceID, start,
			errhandler.ErrorCode(moveErr, dbfile.ErrMoveFile),
			fmt.Sprintf("Перенос файлов не выполнен: %v", moveErr))
	}

	data := &MoveDbFileData{
		Database: moveResult.Database,
		Files:    make([]FileData, 0, len(moveResult.Files)),
		Online:   moveResult.Online,
	}
	for _, f := range moveResult.Files {
		fd := FileData{
			LogicalName: f.LogicalName,
			OldPath:     f.OldPath,
			NewPath:     f.NewPath,
			Success:     f.Success,
		}
		if f.Err != nil {
			fd.Error = f.Err.Error()
		} else {
			data.Moved++
		}
		data.Files = append(data.Files, fd)
	}

	// Частичный сбой: результаты по файлам выводятся, команда
	// завершается ошибкой после вывода.
	if moveErr != nil {
		log.Warn("Перенос завершён с ошибками",
			slog.Int("moved", data.Moved),
			slog.Int("total", len(data.Files)))
		return h.writePartialFailure(format, traceID, start, data, moveErr)
	}

	log.Info("Перенос завершён",
		slog.Int("moved", data.Moved),
		slog.Bool("online", data.Online))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActMoveDbFile,
		Data:    data,
		Summary: buildSummary(data),
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}

// buildSummary собирает сводку по переносу.
func buildSummary(data *MoveDbFileData) *output.SummaryInfo {
	summary := output.NewSummaryInfo()
	summary.AddMetric("files_moved", strconv.Itoa(data.Moved), "files")
	for _, f := range data.Files {
		if f.Error != "" {
			summary.AddWarning(fmt.Sprintf("%s: %s", f.LogicalName, f.Error))
		}
	}
	return summary
}

// writePartialFailure выводит результат с покомандными данными при
// частичном сбое переноса и возвращает итоговую ошибку.
func (h *MoveDbFileHandler) writePartialFailure(format, traceID string, start time.Time, data *MoveDbFileData, moveErr error) error {
	if format != output.FormatJSON {
		if err := data.writeText(os.Stdout); err != nil {
			return err
		}
		return moveErr
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActMoveDbFile,
		Data:    data,
		Error: &output.ErrorInfo{
			Code:    errhandler.ErrorCode(moveErr, dbfile.ErrMoveFile),
			Message: moveErr.Error(),
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
	return moveErr
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *MoveDbFileHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActMoveDbFile,
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
