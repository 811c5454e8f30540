// Package tabledata реализует потоковое копирование данных таблиц между
// экземплярами SQL Server через bulk copy API.
package tabledata

import (
	"context"
	"fmt"
	"time"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/apperrors"
	"github.com/Kargones/dbakit/internal/pkg/logging"
	"github.com/Kargones/dbakit/internal/pkg/progress"
	"github.com/Kargones/dbakit/internal/pkg/rowcount"
)

// Коды ошибок копирования данных таблиц.
const (
	ErrCopySource   = "TABLECOPY.SOURCE"
	ErrCopyDest     = "TABLECOPY.DESTINATION"
	ErrCopyValidate = "TABLECOPY.VALIDATION"
)

// CopyOptions задаёт параметры копирования таблицы.
type CopyOptions struct {
	// SourceDatabase — база-источник.
	SourceDatabase string
	// SourceSchema — схема источника (по умолчанию dbo).
	SourceSchema string
	// SourceTable — таблица-источник.
	SourceTable string
	// DestDatabase — целевая база (по умолчанию SourceDatabase).
	DestDatabase string
	// DestSchema — целевая схема (по умолчанию SourceSchema).
	DestSchema string
	// DestTable — целевая таблица (по умолчанию SourceTable).
	DestTable string
	// Truncate очищает целевую таблицу перед копированием.
	Truncate bool
	// BatchSize — размер batch для bulk copy.
	BatchSize int
	// NotifyAfter — период уведомлений о прогрессе в строках.
	NotifyAfter int
	// KeepIdentity сохраняет значения identity-колонок источника.
	KeepIdentity bool
	// KeepNulls сохраняет NULL вместо значений по умолчанию.
	KeepNulls bool
	// CheckConstraints включает проверку constraints при вставке.
	CheckConstraints bool
	// FireTriggers включает срабатывание триггеров при вставке.
	FireTriggers bool
	// CommandTimeout ограничивает время всей операции (0 = без лимита).
	CommandTimeout time.Duration
}

// CopyResult описывает результат копирования таблицы.
type CopyResult struct {
	// RowsCopied — точное количество скопированных строк.
	RowsCopied int64
	// Elapsed — длительность операции.
	Elapsed time.Duration
	// RowsPerSecond — средняя скорость копирования.
	RowsPerSecond float64
}

// Copier копирует данные таблицы из источника в приёмник.
// Источник и приёмник могут быть одним соединением (копирование внутри
// экземпляра) или разными (перенос между серверами).
type Copier struct {
	source mssql.BulkCopier
	dest   mssql.BulkCopier
	prog   progress.Progress
	log    logging.Logger
}

// NewCopier создаёт Copier.
// prog может быть nil (прогресс не отображается), log может быть nil.
func NewCopier(source, dest mssql.BulkCopier, prog progress.Progress, log logging.Logger) *Copier {
	if prog == nil {
		prog = progress.NewNoOp()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Copier{source: source, dest: dest, prog: prog, log: log}
}

// Copy выполняет потоковое копирование таблицы.
// Прогресс восстанавливается из 32-битных отчётов драйвера через rowcount.Counter,
// поэтому итоговое количество строк корректно и для таблиц больше 2^31 строк.
func (c *Copier) Copy(ctx context.Context, opts CopyOptions) (*CopyResult, error) {
	opts = withDefaults(opts)
	if err := c.validate(opts); err != nil {
		return nil, err
	}

	if opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.CommandTimeout)
		defer cancel()
	}

	start := time.Now()
	label := fmt.Sprintf("%s.%s.%s -> %s.%s.%s",
		opts.SourceDatabase, opts.SourceSchema, opts.SourceTable,
		opts.DestDatabase, opts.DestSchema, opts.DestTable)
	c.log.Info("Копирование таблицы начато", "copy", label,
		"batch_size", opts.BatchSize, "truncate", opts.Truncate)

	reader, err := c.source.OpenTableReader(ctx, opts.SourceDatabase, opts.SourceSchema, opts.SourceTable, nil)
	if err != nil {
		return nil, apperrors.NewAppError(ErrCopySource,
			fmt.Sprintf("не удалось открыть источник %s.%s.%s", opts.SourceDatabase, opts.SourceSchema, opts.SourceTable), err)
	}
	defer reader.Close()

	if opts.Truncate {
		if err := c.dest.TruncateTable(ctx, opts.DestDatabase, opts.DestSchema, opts.DestTable); err != nil {
			return nil, apperrors.NewAppError(ErrCopyDest,
				fmt.Sprintf("не удалось очистить таблицу %s.%s.%s", opts.DestDatabase, opts.DestSchema, opts.DestTable), err)
		}
		c.log.Info("Целевая таблица очищена", "table", opts.DestTable)
	}

	counter := rowcount.NewCounter()
	c.prog.Start(label)

	bulkOpts := mssql.BulkCopyOptions{
		Database:         opts.DestDatabase,
		Schema:           opts.DestSchema,
		Table:            opts.DestTable,
		Columns:          reader.Columns(),
		BatchSize:        opts.BatchSize,
		NotifyAfter:      opts.NotifyAfter,
		KeepIdentity:     opts.KeepIdentity,
		KeepNulls:        opts.KeepNulls,
		CheckConstraints: opts.CheckConstraints,
		FireTriggers:     opts.FireTriggers,
		OnRowsCopied: func(reported int64) {
			counter.Advance(reported)
			c.prog.Update(counter.Total(), "")
		},
	}

	rows, err := c.dest.BulkCopy(ctx, bulkOpts, reader)
	if err != nil {
		c.prog.Finish()
		return nil, apperrors.NewAppError(ErrCopyDest,
			fmt.Sprintf("bulk copy в %s.%s.%s прерван", opts.DestDatabase, opts.DestSchema, opts.DestTable), err)
	}

	c.prog.Finish()
	elapsed := time.Since(start)

	result := &CopyResult{
		RowsCopied: rows,
		Elapsed:    elapsed,
	}
	if elapsed > 0 {
		result.RowsPerSecond = float64(rows) / elapsed.Seconds()
	}

	c.log.Info("Копирование таблицы завершено", "copy", label,
		"rows", rows, "elapsed", progress.FormatDuration(elapsed),
		"rate", progress.FormatRate(rows, elapsed))
	return result, nil
}

func withDefaults(opts CopyOptions) CopyOptions {
	if opts.SourceSchema == "" {
		opts.SourceSchema = "dbo"
	}
	if opts.DestDatabase == "" {
		opts.DestDatabase = opts.SourceDatabase
	}
	if opts.DestSchema == "" {
		opts.DestSchema = opts.SourceSchema
	}
	if opts.DestTable == "" {
		opts.DestTable = opts.SourceTable
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = constants.DefaultBatchSize
	}
	if opts.NotifyAfter <= 0 {
		opts.NotifyAfter = constants.DefaultNotifyAfter
	}
	return opts
}

func (c *Copier) validate(opts CopyOptions) error {
	if opts.SourceDatabase == "" {
		return apperrors.NewAppError(ErrCopyValidate, "не указана база-источник", nil)
	}
	if opts.SourceTable == "" {
		return apperrors.NewAppError(ErrCopyValidate, "не указана таблица-источник", nil)
	}
	// Совпадение всех трёх частей имени запрещено только в пределах одного
	// соединения. При копировании между экземплярами одинаковые имена —
	// штатный сценарий.
	if c.source == c.dest &&
		opts.SourceDatabase == opts.DestDatabase &&
		opts.SourceSchema == opts.DestSchema &&
		opts.SourceTable == opts.DestTable {
		return apperrors.NewAppError(ErrCopyValidate,
			"источник и приёмник совпадают, копирование невозможно", nil)
	}
	return nil
}
