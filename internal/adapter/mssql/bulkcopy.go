package mssql

import (
	"context"
	"fmt"
	"math"
	"strings"

	mssqldb "github.com/denisenkom/go-mssqldb"
)

// wrap32 приводит кумулятивный счётчик строк к 32-битной семантике
// DONE-токена TDS: после Int32.MaxValue счёт продолжается от нуля.
// Обратная коррекция выполняется потребителем через internal/pkg/rowcount.
func wrap32(n int64) int64 {
	if n > math.MaxInt32 {
		return n % math.MaxInt32
	}
	return n
}

// BulkCopy вставляет строки источника в целевую таблицу через механизм
// bulk copy драйвера go-mssqldb (INSERT BULK). Строки вставляются батчами
// внутри одной транзакции; OnRowsCopied вызывается синхронно на стеке
// вставки каждые NotifyAfter строк и один раз по завершении.
func (c *client) BulkCopy(ctx context.Context, opts BulkCopyOptions, rows RowSource) (int64, error) {
	if c.db == nil {
		return 0, fmt.Errorf("%s: connection not established", ErrMSSQLBulkCopy)
	}
	if opts.Table == "" {
		return 0, fmt.Errorf("%s: target table is required", ErrMSSQLBulkCopy)
	}
	if len(opts.Columns) == 0 {
		return 0, fmt.Errorf("%s: column list is required", ErrMSSQLBulkCopy)
	}
	schema := opts.Schema
	if schema == "" {
		schema = "dbo"
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin transaction: %w", ErrMSSQLBulkCopy, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if opts.Database != "" {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("USE %s;", quoteName(opts.Database))); err != nil {
			return 0, fmt.Errorf("%s: switch to database %s: %w", ErrMSSQLBulkCopy, opts.Database, err)
		}
	}

	target := fmt.Sprintf("%s.%s", quoteName(schema), quoteName(opts.Table))

	if opts.KeepIdentity {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET IDENTITY_INSERT %s ON;", target)); err != nil {
			return 0, fmt.Errorf("%s: enable identity insert for %s: %w", ErrMSSQLBulkCopy, target, err)
		}
	}

	bulkOpts := mssqldb.BulkOptions{
		CheckConstraints: opts.CheckConstraints,
		FireTriggers:     opts.FireTriggers,
		KeepNulls:        opts.KeepNulls,
		Tablock:          opts.Tablock,
		RowsPerBatch:     opts.BatchSize,
	}

	stmt, err := tx.PrepareContext(ctx, mssqldb.CopyIn(target, bulkOpts, opts.Columns...))
	if err != nil {
		return 0, fmt.Errorf("%s: prepare bulk copy into %s: %w", ErrMSSQLBulkCopy, target, err)
	}
	defer func() { _ = stmt.Close() }()

	var copied int64
	for {
		row, err := rows.Next()
		if err != nil {
			return 0, fmt.Errorf("%s: read source row %d: %w", ErrMSSQLBulkCopy, copied+1, err)
		}
		if row == nil {
			break
		}
		if len(row) != len(opts.Columns) {
			return 0, fmt.Errorf("%s: row %d has %d values, want %d", ErrMSSQLBulkCopy, copied+1, len(row), len(opts.Columns))
		}

		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if ctx.Err() != nil {
				return 0, fmt.Errorf("%s: %w", ErrMSSQLTimeout, ctx.Err())
			}
			return 0, fmt.Errorf("%s: buffer row %d: %w", ErrMSSQLBulkCopy, copied+1, err)
		}

		copied++
		if opts.NotifyAfter > 0 && copied%int64(opts.NotifyAfter) == 0 && opts.OnRowsCopied != nil {
			opts.OnRowsCopied(wrap32(copied))
		}
	}

	// Финальный Exec без аргументов сбрасывает буфер и завершает INSERT BULK
	result, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: flush bulk copy: %w", ErrMSSQLBulkCopy, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		// Драйвер всегда возвращает количество строк для INSERT BULK,
		// fallback на локальный счётчик на случай нестандартного результата
		inserted = copied
	}

	if opts.KeepIdentity {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET IDENTITY_INSERT %s OFF;", target)); err != nil {
			return 0, fmt.Errorf("%s: disable identity insert for %s: %w", ErrMSSQLBulkCopy, target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit bulk copy: %w", ErrMSSQLBulkCopy, err)
	}
	committed = true

	if opts.OnRowsCopied != nil {
		opts.OnRowsCopied(wrap32(copied))
	}

	return inserted, nil
}

// TableReader — потоковый источник строк таблицы, реализует RowSource.
type TableReader struct {
	rows    rowScanner
	columns []string
	closeFn func() error
}

// rowScanner — минимальный контракт *sql.Rows, используемый TableReader.
// Выделен для подмены в тестах без реального соединения.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Columns возвращает имена колонок источника в порядке значений строк.
func (r *TableReader) Columns() []string {
	return r.columns
}

// Next возвращает очередную строку значений или (nil, nil) в конце данных.
func (r *TableReader) Next() ([]any, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: iterate source rows: %w", ErrMSSQLQuery, err)
		}
		return nil, nil
	}

	values := make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("%s: scan source row: %w", ErrMSSQLQuery, err)
	}
	return values, nil
}

// Close освобождает курсор источника.
func (r *TableReader) Close() error {
	if r.closeFn != nil {
		return r.closeFn()
	}
	return nil
}

// TruncateTable очищает целевую таблицу перед копированием.
func (c *client) TruncateTable(ctx context.Context, database, schema, table string) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}
	if schema == "" {
		schema = "dbo"
	}

	stmt := fmt.Sprintf("TRUNCATE TABLE %s.%s.%s;",
		quoteName(database), quoteName(schema), quoteName(table))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: truncate %s.%s.%s: %w", ErrMSSQLExec, database, schema, table, err)
	}
	return nil
}

// OpenTableReader открывает поток строк таблицы-источника.
// Пустой columns — все колонки таблицы (SELECT *).
func (c *client) OpenTableReader(ctx context.Context, database, schema, table string, columns []string) (*TableReader, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}
	if schema == "" {
		schema = "dbo"
	}

	colList := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = quoteName(col)
		}
		colList = strings.Join(quoted, ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s.%s.%s;",
		colList, quoteName(database), quoteName(schema), quoteName(table))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: open table reader for %s.%s.%s: %w", ErrMSSQLQuery, database, schema, table, err)
	}

	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%s: read source columns: %w", ErrMSSQLQuery, err)
	}

	return &TableReader{
		rows:    rows,
		columns: cols,
		closeFn: rows.Close,
	}, nil
}
