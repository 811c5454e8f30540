// Package dbfile реализует перенос файлов базы данных на новые пути:
// перевод базы в OFFLINE, перемещение файлов, обновление путей в каталоге
// и возврат базы в ONLINE.
package dbfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/pkg/apperrors"
	"github.com/Kargones/dbakit/internal/pkg/logging"
)

// Коды ошибок переноса файлов базы данных.
const (
	ErrMoveValidate = "DBFILE.VALIDATION"
	ErrMoveOffline  = "DBFILE.OFFLINE"
	ErrMoveOnline   = "DBFILE.ONLINE"
	ErrMoveFile     = "DBFILE.MOVE"
)

// MoveOptions задаёт параметры переноса файлов.
type MoveOptions struct {
	// Database — база, файлы которой переносятся.
	Database string
	// Destinations — отображение логического имени файла на целевой путь.
	// Целевой путь может быть каталогом (имя файла сохраняется) или
	// полным путём нового файла.
	Destinations map[string]string
	// RelocateFiles физически перемещает файлы средствами ОС.
	// Применимо только когда утилита запущена на хосте сервера.
	// При false обновляются только пути в каталоге: файлы должен
	// перенести оператор до возврата базы в ONLINE.
	RelocateFiles bool
	// DeleteSource удаляет исходный файл после успешного копирования.
	DeleteSource bool
}

// FileMoveResult описывает результат переноса одного файла.
type FileMoveResult struct {
	// LogicalName — логическое имя файла.
	LogicalName string
	// OldPath — путь до переноса.
	OldPath string
	// NewPath — путь после переноса.
	NewPath string
	// Success — файл перенесён и путь обновлён в каталоге.
	Success bool
	// Err — ошибка переноса, nil при успехе.
	Err error
}

// MoveResult описывает результат операции переноса.
type MoveResult struct {
	// Database — база данных.
	Database string
	// Files — результаты по каждому файлу в порядке обработки.
	Files []FileMoveResult
	// Online — база возвращена в ONLINE.
	Online bool
}

// Mover переносит файлы базы данных.
type Mover struct {
	files mssql.FileManager
	log   logging.Logger
}

// NewMover создаёт Mover. log может быть nil.
func NewMover(files mssql.FileManager, log logging.Logger) *Mover {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Mover{files: files, log: log}
}

// Move переносит файлы базы на новые пути.
// Ошибка переноса одного файла не прерывает обработку остальных:
// результат каждого файла фиксируется отдельно, база возвращается
// в ONLINE в любом случае. Общая ошибка возвращается если хотя бы
// один файл перенести не удалось.
func (m *Mover) Move(ctx context.Context, opts MoveOptions) (*MoveResult, error) {
	if opts.Database == "" {
		return nil, apperrors.NewAppError(ErrMoveValidate, "не указана база данных", nil)
	}
	if len(opts.Destinations) == 0 {
		return nil, apperrors.NewAppError(ErrMoveValidate, "не указаны файлы для переноса", nil)
	}

	files, err := m.files.ListDatabaseFiles(ctx, opts.Database)
	if err != nil {
		return nil, err
	}

	plan, err := buildPlan(files, opts.Destinations)
	if err != nil {
		return nil, err
	}

	m.log.Info("Перенос файлов базы данных начат",
		"database", opts.Database, "files", len(plan), "relocate", opts.RelocateFiles)

	if err := m.files.SetDatabaseOffline(ctx, opts.Database); err != nil {
		return nil, apperrors.NewAppError(ErrMoveOffline,
			fmt.Sprintf("не удалось перевести базу %s в OFFLINE", opts.Database), err)
	}

	result := &MoveResult{Database: opts.Database}
	failed := 0
	for _, p := range plan {
		fr := m.moveOne(ctx, opts, p)
		if !fr.Success {
			failed++
			m.log.Warn("Файл не перенесён",
				"database", opts.Database, "file", fr.LogicalName, "error", fr.Err)
		}
		result.Files = append(result.Files, fr)
	}

	if err := m.files.SetDatabaseOnline(ctx, opts.Database); err != nil {
		return result, apperrors.NewAppError(ErrMoveOnline,
			fmt.Sprintf("база %s осталась в OFFLINE", opts.Database), err)
	}
	result.Online = true

	if failed > 0 {
		return result, apperrors.NewAppError(ErrMoveFile,
			fmt.Sprintf("не перенесено файлов: %d из %d", failed, len(plan)), nil)
	}

	m.log.Info("Перенос файлов базы данных завершён",
		"database", opts.Database, "files", len(plan))
	return result, nil
}

// movePlan — запланированный перенос одного файла.
type movePlan struct {
	logicalName string
	oldPath     string
	newPath     string
}

// buildPlan сопоставляет запрошенные логические имена с файлами каталога
// и вычисляет целевые пути. Файлы обрабатываются в алфавитном порядке
// логических имён, чтобы порядок MoveResult.Files был воспроизводим.
func buildPlan(files []mssql.DatabaseFile, destinations map[string]string) ([]movePlan, error) {
	byName := make(map[string]mssql.DatabaseFile, len(files))
	for _, f := range files {
		byName[strings.ToLower(f.LogicalName)] = f
	}

	names := make([]string, 0, len(destinations))
	for logical := range destinations {
		names = append(names, logical)
	}
	sort.Strings(names)

	plan := make([]movePlan, 0, len(destinations))
	for _, logical := range names {
		dest := destinations[logical]
		f, ok := byName[strings.ToLower(logical)]
		if !ok {
			return nil, apperrors.NewAppError(ErrMoveValidate,
				fmt.Sprintf("логический файл %q не найден в базе", logical), nil)
		}

		newPath := dest
		if filepath.Ext(dest) == "" {
			newPath = filepath.Join(dest, filepath.Base(f.PhysicalName))
		}
		if newPath == f.PhysicalName {
			return nil, apperrors.NewAppError(ErrMoveValidate,
				fmt.Sprintf("файл %q уже находится по пути %s", logical, newPath), nil)
		}

		plan = append(plan, movePlan{
			logicalName: f.LogicalName,
			oldPath:     f.PhysicalName,
			newPath:     newPath,
		})
	}
	return plan, nil
}

func (m *Mover) moveOne(ctx context.Context, opts MoveOptions, p movePlan) FileMoveResult {
	fr := FileMoveResult{
		LogicalName: p.logicalName,
		OldPath:     p.oldPath,
		NewPath:     p.newPath,
	}

	if opts.RelocateFiles {
		if err := relocate(p.oldPath, p.newPath, opts.DeleteSource); err != nil {
			fr.Err = apperrors.NewAppError(ErrMoveFile,
				fmt.Sprintf("не удалось переместить %s", p.oldPath), err)
			return fr
		}
	}

	if err := m.files.ModifyFilePath(ctx, opts.Database, p.logicalName, p.newPath); err != nil {
		fr.Err = apperrors.NewAppError(ErrMoveFile,
			fmt.Sprintf("не удалось обновить путь файла %s", p.logicalName), err)
		return fr
	}

	fr.Success = true
	return fr
}

// relocate перемещает файл средствами ОС.
// Сначала пробует rename, при ошибке (другой том) копирует поблочно.
func relocate(oldPath, newPath string, deleteSource bool) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return err
	}

	if deleteSource {
		if err := os.Rename(oldPath, newPath); err == nil {
			return nil
		}
	}

	src, err := os.Open(oldPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(newPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	if deleteSource {
		return os.Remove(oldPath)
	}
	return nil
}
