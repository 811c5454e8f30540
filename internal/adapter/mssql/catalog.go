package mssql

import (
	"context"
	"database/sql"
	"fmt"
)

// ListEncryptedObjects возвращает объекты базы данных, созданные WITH ENCRYPTION:
// процедуры (P), представления (V), триггеры (TR) и функции (FN, IF, TF).
func (c *client) ListEncryptedObjects(ctx context.Context, database string) ([]EncryptedObject, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	query := fmt.Sprintf(`
	USE %s;
	SELECT
		o.object_id,
		SCHEMA_NAME(o.schema_id),
		o.name,
		RTRIM(o.type),
		ISNULL(SCHEMA_NAME(po.schema_id), ''),
		ISNULL(po.name, '')
	FROM sys.objects o
	LEFT JOIN sys.objects po ON po.object_id = o.parent_object_id
	WHERE o.type IN ('P', 'V', 'TR', 'FN', 'IF', 'TF')
		AND OBJECTPROPERTY(o.object_id, 'IsEncrypted') = 1
	ORDER BY SCHEMA_NAME(o.schema_id), o.name;
	`, quoteName(database))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: list encrypted objects in %s: %w", ErrMSSQLQuery, database, err)
	}
	defer func() { _ = rows.Close() }()

	var objects []EncryptedObject
	for rows.Next() {
		obj := EncryptedObject{Database: database}
		if err := rows.Scan(&obj.ObjectID, &obj.Schema, &obj.Name, &obj.Type,
			&obj.ParentSchema, &obj.ParentName); err != nil {
			return nil, fmt.Errorf("%s: scan encrypted object row: %w", ErrMSSQLQuery, err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	return objects, nil
}

// GetEncryptedValue читает сырой зашифрованный образ объекта из sys.sysobjvalues.
// Таблица доступна только через Dedicated Admin Connection (ClientOptions.DAC).
func (c *client) GetEncryptedValue(ctx context.Context, database string, objectID int) ([]byte, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	query := fmt.Sprintf(`
	USE %s;
	SELECT imageval
	FROM sys.sysobjvalues
	WHERE objid = @p1 AND valclass = 1;
	`, quoteName(database))

	var secret []byte
	err := c.db.QueryRowContext(ctx, query, objectID).Scan(&secret)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: object %d not found in sys.sysobjvalues (DAC required)", ErrMSSQLQuery, objectID)
		}
		return nil, fmt.Errorf("%s: read imageval for object %d: %w", ErrMSSQLQuery, objectID, err)
	}

	return secret, nil
}

// FetchKnownSecret выполняет подстановку known plaintext определения внутри
// транзакции, читает его зашифрованный образ из sys.sysobjvalues и откатывает
// транзакцию. Rollback через defer гарантирован на всех путях выхода, включая
// ошибку чтения после успешного ALTER: временная мутация схемы не должна
// пережить вызов ни при каких условиях.
func (c *client) FetchKnownSecret(ctx context.Context, database string, objectID int, alterSQL string) ([]byte, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", ErrMSSQLExec, err)
	}
	// Коммита нет ни на одном пути — подмена определения всегда откатывается.
	defer func() { _ = tx.Rollback() }()

	useStmt := fmt.Sprintf("USE %s;", quoteName(database))
	if _, err := tx.ExecContext(ctx, useStmt); err != nil {
		return nil, fmt.Errorf("%s: switch to database %s: %w", ErrMSSQLExec, database, err)
	}

	if _, err := tx.ExecContext(ctx, alterSQL); err != nil {
		return nil, fmt.Errorf("%s: apply known plaintext definition: %w", ErrMSSQLExec, err)
	}

	var knownSecret []byte
	query := "SELECT imageval FROM sys.sysobjvalues WHERE objid = @p1 AND valclass = 1;"
	if err := tx.QueryRowContext(ctx, query, objectID).Scan(&knownSecret); err != nil {
		return nil, fmt.Errorf("%s: read known secret for object %d: %w", ErrMSSQLQuery, objectID, err)
	}

	return knownSecret, nil
}

// GetIndexInfo возвращает индексы таблицы со статистикой использования
// из sys.indexes и sys.dm_db_index_usage_stats. Пустой table — все таблицы базы.
func (c *client) GetIndexInfo(ctx context.Context, database, schema, table string) ([]IndexInfo, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	query := fmt.Sprintf(`
	USE %s;
	SELECT
		SCHEMA_NAME(t.schema_id),
		t.name,
		ISNULL(i.name, ''),
		i.type_desc,
		ISNULL(STUFF((
			SELECT ', ' + c.name
			FROM sys.index_columns ic
			JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
			WHERE ic.object_id = i.object_id AND ic.index_id = i.index_id
				AND ic.is_included_column = 0
			ORDER BY ic.key_ordinal
			FOR XML PATH('')), 1, 2, ''), ''),
		ISNULL(STUFF((
			SELECT ', ' + c.name
			FROM sys.index_columns ic
			JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
			WHERE ic.object_id = i.object_id AND ic.index_id = i.index_id
				AND ic.is_included_column = 1
			ORDER BY ic.index_column_id
			FOR XML PATH('')), 1, 2, ''), ''),
		i.is_unique,
		i.is_primary_key,
		ISNULL(ps.row_count, 0),
		ISNULL(ps.used_page_count, 0) * 8,
		ISNULL(us.user_seeks, 0),
		ISNULL(us.user_scans, 0),
		ISNULL(us.user_lookups, 0),
		ISNULL(us.user_updates, 0)
	FROM sys.tables t
	JOIN sys.indexes i ON i.object_id = t.object_id
	LEFT JOIN sys.dm_db_partition_stats ps
		ON ps.object_id = i.object_id AND ps.index_id = i.index_id AND ps.partition_number = 1
	LEFT JOIN sys.dm_db_index_usage_stats us
		ON us.object_id = i.object_id AND us.index_id = i.index_id AND us.database_id = DB_ID()
	WHERE (@p1 = '' OR SCHEMA_NAME(t.schema_id) = @p1)
		AND (@p2 = '' OR t.name = @p2)
	ORDER BY SCHEMA_NAME(t.schema_id), t.name, i.index_id;
	`, quoteName(database))

	rows, err := c.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("%s: index info for %s: %w", ErrMSSQLQuery, database, err)
	}
	defer func() { _ = rows.Close() }()

	var infos []IndexInfo
	for rows.Next() {
		var info IndexInfo
		if err := rows.Scan(&info.Schema, &info.Table, &info.Index, &info.IndexType,
			&info.KeyColumns, &info.IncludedColumns, &info.IsUnique, &info.IsPrimaryKey,
			&info.RowCount, &info.SizeKB,
			&info.UserSeeks, &info.UserScans, &info.UserLookups, &info.UserUpdates); err != nil {
			return nil, fmt.Errorf("%s: scan index row: %w", ErrMSSQLQuery, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	return infos, nil
}

// GetStatisticsInfo возвращает объекты статистики таблицы из sys.stats
// и sys.dm_db_stats_properties. Пустой table — все таблицы базы.
func (c *client) GetStatisticsInfo(ctx context.Context, database, schema, table string) ([]StatisticsInfo, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	query := fmt.Sprintf(`
	USE %s;
	SELECT
		SCHEMA_NAME(t.schema_id),
		t.name,
		s.name,
		ISNULL(STUFF((
			SELECT ', ' + c.name
			FROM sys.stats_columns sc
			JOIN sys.columns c ON c.object_id = sc.object_id AND c.column_id = sc.column_id
			WHERE sc.object_id = s.object_id AND sc.stats_id = s.stats_id
			ORDER BY sc.stats_column_id
			FOR XML PATH('')), 1, 2, ''), ''),
		sp.last_updated,
		ISNULL(sp.rows_sampled, 0),
		ISNULL(sp.modification_counter, 0),
		s.auto_created
	FROM sys.tables t
	JOIN sys.stats s ON s.object_id = t.object_id
	CROSS APPLY sys.dm_db_stats_properties(s.object_id, s.stats_id) sp
	WHERE (@p1 = '' OR SCHEMA_NAME(t.schema_id) = @p1)
		AND (@p2 = '' OR t.name = @p2)
	ORDER BY SCHEMA_NAME(t.schema_id), t.name, s.stats_id;
	`, quoteName(database))

	rows, err := c.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("%s: statistics info for %s: %w", ErrMSSQLQuery, database, err)
	}
	defer func() { _ = rows.Close() }()

	var infos []StatisticsInfo
	for rows.Next() {
		var info StatisticsInfo
		var lastUpdated sql.NullTime
		if err := rows.Scan(&info.Schema, &info.Table, &info.Name, &info.Columns,
			&lastUpdated, &info.RowsSampled, &info.ModificationCounter, &info.IsAutoCreated); err != nil {
			return nil, fmt.Errorf("%s: scan statistics row: %w", ErrMSSQLQuery, err)
		}
		if lastUpdated.Valid {
			t := lastUpdated.Time
			info.LastUpdated = &t
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	return infos, nil
}
