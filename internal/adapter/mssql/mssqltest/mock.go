// Package mssqltest предоставляет тестовые утилиты для пакета mssql:
// мок-реализации интерфейсов и вспомогательные конструкторы.
package mssqltest

import (
	"context"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
)

// Compile-time проверки реализации интерфейсов
var (
	_ mssql.Client            = (*MockMSSQLClient)(nil)
	_ mssql.DatabaseConnector = (*MockMSSQLClient)(nil)
	_ mssql.ObjectCatalog     = (*MockMSSQLClient)(nil)
	_ mssql.BulkCopier        = (*MockMSSQLClient)(nil)
	_ mssql.FileManager       = (*MockMSSQLClient)(nil)
	_ mssql.SecurityManager   = (*MockMSSQLClient)(nil)
	_ mssql.AgentManager      = (*MockMSSQLClient)(nil)
)

// MockMSSQLClient — мок-реализация mssql.Client для тестирования.
// Использует функциональные поля для гибкой настройки поведения в тестах.
type MockMSSQLClient struct {
	// ConnectFunc — пользовательская реализация Connect
	ConnectFunc func(ctx context.Context) error
	// CloseFunc — пользовательская реализация Close
	CloseFunc func() error
	// PingFunc — пользовательская реализация Ping
	PingFunc func(ctx context.Context) error
	// ListEncryptedObjectsFunc — пользовательская реализация ListEncryptedObjects
	ListEncryptedObjectsFunc func(ctx context.Context, database string) ([]mssql.EncryptedObject, error)
	// GetEncryptedValueFunc — пользовательская реализация GetEncryptedValue
	GetEncryptedValueFunc func(ctx context.Context, database string, objectID int) ([]byte, error)
	// FetchKnownSecretFunc — пользовательская реализация FetchKnownSecret
	FetchKnownSecretFunc func(ctx context.Context, database string, objectID int, alterSQL string) ([]byte, error)
	// GetIndexInfoFunc — пользовательская реализация GetIndexInfo
	GetIndexInfoFunc func(ctx context.Context, database, schema, table string) ([]mssql.IndexInfo, error)
	// GetStatisticsInfoFunc — пользовательская реализация GetStatisticsInfo
	GetStatisticsInfoFunc func(ctx context.Context, database, schema, table string) ([]mssql.StatisticsInfo, error)
	// BulkCopyFunc — пользовательская реализация BulkCopy
	BulkCopyFunc func(ctx context.Context, opts mssql.BulkCopyOptions, rows mssql.RowSource) (int64, error)
	// OpenTableReaderFunc — пользовательская реализация OpenTableReader
	OpenTableReaderFunc func(ctx context.Context, database, schema, table string, columns []string) (*mssql.TableReader, error)
	// TruncateTableFunc — пользовательская реализация TruncateTable
	TruncateTableFunc func(ctx context.Context, database, schema, table string) error
	// ListDatabaseFilesFunc — пользовательская реализация ListDatabaseFiles
	ListDatabaseFilesFunc func(ctx context.Context, database string) ([]mssql.DatabaseFile, error)
	// SetDatabaseOfflineFunc — пользовательская реализация SetDatabaseOffline
	SetDatabaseOfflineFunc func(ctx context.Context, database string) error
	// ModifyFilePathFunc — пользовательская реализация ModifyFilePath
	ModifyFilePathFunc func(ctx context.Context, database, logicalName, newPath string) error
	// SetDatabaseOnlineFunc — пользовательская реализация SetDatabaseOnline
	SetDatabaseOnlineFunc func(ctx context.Context, database string) error
	// CreateLoginFunc — пользовательская реализация CreateLogin
	CreateLoginFunc func(ctx context.Context, opts mssql.LoginOptions) error
	// AddServerRoleMemberFunc — пользовательская реализация AddServerRoleMember
	AddServerRoleMemberFunc func(ctx context.Context, role, login string) error
	// LoginExistsFunc — пользовательская реализация LoginExists
	LoginExistsFunc func(ctx context.Context, name string) (bool, error)
	// CreateAlertFunc — пользовательская реализация CreateAlert
	CreateAlertFunc func(ctx context.Context, opts mssql.AlertOptions) error
	// AddAlertNotificationFunc — пользовательская реализация AddAlertNotification
	AddAlertNotificationFunc func(ctx context.Context, alertName, operatorName string) error
	// CreateJobStepFunc — пользовательская реализация CreateJobStep
	CreateJobStepFunc func(ctx context.Context, opts mssql.JobStepOptions) error
}

// Connect устанавливает соединение с сервером MSSQL.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Connect(ctx context.Context) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return nil
}

// Close закрывает соединение с сервером.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Ping проверяет доступность сервера.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// ListEncryptedObjects возвращает зашифрованные объекты базы.
// При отсутствии пользовательской функции возвращает пустой список.
func (m *MockMSSQLClient) ListEncryptedObjects(ctx context.Context, database string) ([]mssql.EncryptedObject, error) {
	if m.ListEncryptedObjectsFunc != nil {
		return m.ListEncryptedObjectsFunc(ctx, database)
	}
	return nil, nil
}

// GetEncryptedValue читает зашифрованный образ объекта.
// При отсутствии пользовательской функции возвращает пустой blob.
func (m *MockMSSQLClient) GetEncryptedValue(ctx context.Context, database string, objectID int) ([]byte, error) {
	if m.GetEncryptedValueFunc != nil {
		return m.GetEncryptedValueFunc(ctx, database, objectID)
	}
	return []byte{}, nil
}

// FetchKnownSecret выполняет известную подстановку и читает её образ.
// При отсутствии пользовательской функции возвращает пустой blob.
func (m *MockMSSQLClient) FetchKnownSecret(ctx context.Context, database string, objectID int, alterSQL string) ([]byte, error) {
	if m.FetchKnownSecretFunc != nil {
		return m.FetchKnownSecretFunc(ctx, database, objectID, alterSQL)
	}
	return []byte{}, nil
}

// GetIndexInfo возвращает индексы таблицы.
// При отсутствии пользовательской функции возвращает реалистичные тестовые данные.
func (m *MockMSSQLClient) GetIndexInfo(ctx context.Context, database, schema, table string) ([]mssql.IndexInfo, error) {
	if m.GetIndexInfoFunc != nil {
		return m.GetIndexInfoFunc(ctx, database, schema, table)
	}
	return []mssql.IndexInfo{
		{
			Schema:       "dbo",
			Table:        "Orders",
			Index:        "PK_Orders",
			IndexType:    "CLUSTERED",
			KeyColumns:   "OrderID",
			IsUnique:     true,
			IsPrimaryKey: true,
			RowCount:     100000,
			SizeKB:       8192,
			UserSeeks:    5000,
		},
	}, nil
}

// GetStatisticsInfo возвращает статистики таблицы.
// При отсутствии пользовательской функции возвращает пустой список.
func (m *MockMSSQLClient) GetStatisticsInfo(ctx context.Context, database, schema, table string) ([]mssql.StatisticsInfo, error) {
	if m.GetStatisticsInfoFunc != nil {
		return m.GetStatisticsInfoFunc(ctx, database, schema, table)
	}
	return nil, nil
}

// BulkCopy вставляет строки источника в целевую таблицу.
// При отсутствии пользовательской функции потребляет источник и возвращает
// количество прочитанных строк.
func (m *MockMSSQLClient) BulkCopy(ctx context.Context, opts mssql.BulkCopyOptions, rows mssql.RowSource) (int64, error) {
	if m.BulkCopyFunc != nil {
		return m.BulkCopyFunc(ctx, opts, rows)
	}
	var copied int64
	for {
		row, err := rows.Next()
		if err != nil {
			return 0, err
		}
		if row == nil {
			break
		}
		copied++
		if opts.NotifyAfter > 0 && copied%int64(opts.NotifyAfter) == 0 && opts.OnRowsCopied != nil {
			opts.OnRowsCopied(copied)
		}
	}
	if opts.OnRowsCopied != nil {
		opts.OnRowsCopied(copied)
	}
	return copied, nil
}

// OpenTableReader открывает поток строк таблицы-источника.
// При отсутствии пользовательской функции возвращает статичный reader
// с тремя строками тестовых данных.
func (m *MockMSSQLClient) OpenTableReader(ctx context.Context, database, schema, table string, columns []string) (*mssql.TableReader, error) {
	if m.OpenTableReaderFunc != nil {
		return m.OpenTableReaderFunc(ctx, database, schema, table, columns)
	}
	return mssql.StaticTableReader([]string{"id", "name"}, [][]any{
		{int64(1), "alpha"},
		{int64(2), "beta"},
		{int64(3), "gamma"},
	}), nil
}

// TruncateTable очищает целевую таблицу.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) TruncateTable(ctx context.Context, database, schema, table string) error {
	if m.TruncateTableFunc != nil {
		return m.TruncateTableFunc(ctx, database, schema, table)
	}
	return nil
}

// ListDatabaseFiles возвращает файлы базы данных.
// При отсутствии пользовательской функции возвращает реалистичную пару данных/лог.
func (m *MockMSSQLClient) ListDatabaseFiles(ctx context.Context, database string) ([]mssql.DatabaseFile, error) {
	if m.ListDatabaseFilesFunc != nil {
		return m.ListDatabaseFilesFunc(ctx, database)
	}
	return []mssql.DatabaseFile{
		{FileID: 1, LogicalName: database, PhysicalName: `C:\Data\` + database + `.mdf`, Type: "ROWS", SizeKB: 1048576, State: "ONLINE"},
		{FileID: 2, LogicalName: database + "_log", PhysicalName: `C:\Data\` + database + `_log.ldf`, Type: "LOG", SizeKB: 262144, State: "ONLINE"},
	}, nil
}

// SetDatabaseOffline переводит базу в OFFLINE.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) SetDatabaseOffline(ctx context.Context, database string) error {
	if m.SetDatabaseOfflineFunc != nil {
		return m.SetDatabaseOfflineFunc(ctx, database)
	}
	return nil
}

// ModifyFilePath меняет путь логического файла.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) ModifyFilePath(ctx context.Context, database, logicalName, newPath string) error {
	if m.ModifyFilePathFunc != nil {
		return m.ModifyFilePathFunc(ctx, database, logicalName, newPath)
	}
	return nil
}

// SetDatabaseOnline возвращает базу в ONLINE.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) SetDatabaseOnline(ctx context.Context, database string) error {
	if m.SetDatabaseOnlineFunc != nil {
		return m.SetDatabaseOnlineFunc(ctx, database)
	}
	return nil
}

// CreateLogin создаёт логин сервера.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) CreateLogin(ctx context.Context, opts mssql.LoginOptions) error {
	if m.CreateLoginFunc != nil {
		return m.CreateLoginFunc(ctx, opts)
	}
	return nil
}

// AddServerRoleMember добавляет логин в серверную роль.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) AddServerRoleMember(ctx context.Context, role, login string) error {
	if m.AddServerRoleMemberFunc != nil {
		return m.AddServerRoleMemberFunc(ctx, role, login)
	}
	return nil
}

// LoginExists проверяет существование логина.
// При отсутствии пользовательской функции возвращает false.
func (m *MockMSSQLClient) LoginExists(ctx context.Context, name string) (bool, error) {
	if m.LoginExistsFunc != nil {
		return m.LoginExistsFunc(ctx, name)
	}
	return false, nil
}

// CreateAlert создаёт алерт SQL Server Agent.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) CreateAlert(ctx context.Context, opts mssql.AlertOptions) error {
	if m.CreateAlertFunc != nil {
		return m.CreateAlertFunc(ctx, opts)
	}
	return nil
}

// AddAlertNotification привязывает оператора к алерту.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) AddAlertNotification(ctx context.Context, alertName, operatorName string) error {
	if m.AddAlertNotificationFunc != nil {
		return m.AddAlertNotificationFunc(ctx, alertName, operatorName)
	}
	return nil
}

// CreateJobStep добавляет шаг job.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) CreateJobStep(ctx context.Context, opts mssql.JobStepOptions) error {
	if m.CreateJobStepFunc != nil {
		return m.CreateJobStepFunc(ctx, opts)
	}
	return nil
}

// NewMockMSSQLClient создаёт MockMSSQLClient с дефолтными значениями.
func NewMockMSSQLClient() *MockMSSQLClient {
	return &MockMSSQLClient{}
}
