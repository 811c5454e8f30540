package mssql

import (
	"context"
	"fmt"
)

// ListDatabaseFiles возвращает файлы базы данных из sys.master_files.
func (c *client) ListDatabaseFiles(ctx context.Context, database string) ([]DatabaseFile, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	query := `
	SELECT
		mf.file_id,
		mf.name,
		mf.physical_name,
		mf.type_desc,
		CAST(mf.size AS BIGINT) * 8,
		mf.state_desc
	FROM sys.master_files mf
	WHERE mf.database_id = DB_ID(@p1)
	ORDER BY mf.file_id;
	`

	rows, err := c.db.QueryContext(ctx, query, database)
	if err != nil {
		return nil, fmt.Errorf("%s: list files for %s: %w", ErrMSSQLQuery, database, err)
	}
	defer func() { _ = rows.Close() }()

	var files []DatabaseFile
	for rows.Next() {
		var f DatabaseFile
		if err := rows.Scan(&f.FileID, &f.LogicalName, &f.PhysicalName,
			&f.Type, &f.SizeKB, &f.State); err != nil {
			return nil, fmt.Errorf("%s: scan file row: %w", ErrMSSQLQuery, err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%s: database %s not found in sys.master_files", ErrMSSQLQuery, database)
	}

	return files, nil
}

// SetDatabaseOffline переводит базу в OFFLINE.
// WITH ROLLBACK IMMEDIATE разрывает открытые сессии: без этого перевод
// будет ждать завершения всех транзакций неограниченно долго.
func (c *client) SetDatabaseOffline(ctx context.Context, database string) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}

	stmt := fmt.Sprintf("ALTER DATABASE %s SET OFFLINE WITH ROLLBACK IMMEDIATE;", quoteName(database))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: set %s offline: %w", ErrMSSQLExec, database, err)
	}
	return nil
}

// ModifyFilePath меняет зарегистрированный путь логического файла базы.
// Сервер проверит существование файла по новому пути только при следующем
// переводе базы в ONLINE; перенос самого файла на диске — внешняя операция.
func (c *client) ModifyFilePath(ctx context.Context, database, logicalName, newPath string) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}

	// Имена и путь не параметризуются в ALTER DATABASE — только квотирование
	stmt := fmt.Sprintf("ALTER DATABASE %s MODIFY FILE (NAME = %s, FILENAME = %s);",
		quoteName(database), quoteName(logicalName), quoteString(newPath))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: modify file %s of %s: %w", ErrMSSQLExec, logicalName, database, err)
	}
	return nil
}

// SetDatabaseOnline возвращает базу в ONLINE.
func (c *client) SetDatabaseOnline(ctx context.Context, database string) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}

	stmt := fmt.Sprintf("ALTER DATABASE %s SET ONLINE;", quoteName(database))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: set %s online: %w", ErrMSSQLExec, database, err)
	}
	return nil
}
