// Package mssql определяет интерфейсы и типы данных для работы с Microsoft SQL Server.
// Пакет предоставляет абстракцию над операциями администрирования, разделённую
// по принципу ISP (Interface Segregation Principle) на сфокусированные интерфейсы:
// DatabaseConnector, ObjectCatalog, BulkCopier, FileManager, SecurityManager,
// AgentManager. Композитный интерфейс Client объединяет все вышеперечисленные.
package mssql

import (
	"context"
	"time"
)

// Коды ошибок для MSSQL операций.
const (
	// ErrMSSQLConnect — ошибка подключения к серверу MSSQL
	ErrMSSQLConnect = "MSSQL.CONNECT_FAILED"
	// ErrMSSQLQuery — ошибка выполнения SQL запроса
	ErrMSSQLQuery = "MSSQL.QUERY_FAILED"
	// ErrMSSQLExec — ошибка выполнения DDL/DML команды
	ErrMSSQLExec = "MSSQL.EXEC_FAILED"
	// ErrMSSQLBulkCopy — ошибка bulk copy операции
	ErrMSSQLBulkCopy = "MSSQL.BULKCOPY_FAILED"
	// ErrMSSQLTimeout — превышено время ожидания операции
	ErrMSSQLTimeout = "MSSQL.TIMEOUT"
)

// ClientOptions содержит параметры для создания MSSQL клиента.
type ClientOptions struct {
	// Server — адрес сервера MSSQL
	Server string
	// Port — порт сервера (по умолчанию 1433)
	Port int
	// User — имя пользователя
	User string
	// Password — пароль пользователя
	Password string
	// Database — имя базы данных для подключения (обычно "master")
	Database string
	// Timeout — таймаут подключения
	Timeout time.Duration
	// Encrypt — использовать TLS шифрование (по умолчанию true для безопасности)
	Encrypt bool
	// DAC — подключаться через Dedicated Admin Connection (префикс admin:).
	// Требуется для чтения sys.sysobjvalues при восстановлении текста объектов.
	DAC bool
	// encryptSet — внутренний флаг, указывающий что Encrypt был явно задан.
	// Для явного контроля шифрования используйте NewClientWithEncrypt.
	encryptSet bool
}

// EncryptedObject описывает объект, созданный WITH ENCRYPTION.
type EncryptedObject struct {
	// Database — база данных объекта
	Database string
	// Schema — схема объекта
	Schema string
	// Name — имя объекта
	Name string
	// Type — код типа из sys.objects: P, V, TR, FN, IF, TF
	Type string
	// ObjectID — object_id в системном каталоге
	ObjectID int
	// ParentSchema — схема родительской таблицы (только для триггеров)
	ParentSchema string
	// ParentName — имя родительской таблицы (только для триггеров)
	ParentName string
}

// IndexInfo описывает индекс и статистику его использования.
// Типизированная структура результата вместо динамических property bags.
type IndexInfo struct {
	// Schema — схема таблицы
	Schema string
	// Table — имя таблицы
	Table string
	// Index — имя индекса
	Index string
	// IndexType — тип индекса (CLUSTERED, NONCLUSTERED, HEAP)
	IndexType string
	// KeyColumns — ключевые колонки через запятую
	KeyColumns string
	// IncludedColumns — included колонки через запятую
	IncludedColumns string
	// IsUnique — уникальный ли индекс
	IsUnique bool
	// IsPrimaryKey — является ли индекс первичным ключом
	IsPrimaryKey bool
	// RowCount — количество строк
	RowCount int64
	// SizeKB — размер индекса в килобайтах
	SizeKB int64
	// UserSeeks — количество seek операций
	UserSeeks int64
	// UserScans — количество scan операций
	UserScans int64
	// UserLookups — количество lookup операций
	UserLookups int64
	// UserUpdates — количество update операций
	UserUpdates int64
}

// StatisticsInfo описывает объект статистики таблицы.
type StatisticsInfo struct {
	// Schema — схема таблицы
	Schema string
	// Table — имя таблицы
	Table string
	// Name — имя статистики
	Name string
	// Columns — колонки статистики через запятую
	Columns string
	// LastUpdated — время последнего обновления (nil если не обновлялась)
	LastUpdated *time.Time
	// RowsSampled — количество строк в выборке
	RowsSampled int64
	// ModificationCounter — количество модификаций с последнего обновления
	ModificationCounter int64
	// IsAutoCreated — создана ли статистика автоматически
	IsAutoCreated bool
}

// DatabaseFile описывает файл базы данных из sys.master_files.
type DatabaseFile struct {
	// FileID — идентификатор файла
	FileID int
	// LogicalName — логическое имя файла
	LogicalName string
	// PhysicalName — путь к файлу на диске сервера
	PhysicalName string
	// Type — тип файла: ROWS, LOG, FILESTREAM, FULLTEXT
	Type string
	// SizeKB — размер файла в килобайтах
	SizeKB int64
	// State — состояние файла (ONLINE, OFFLINE, ...)
	State string
}

// BulkCopyOptions содержит параметры bulk copy вставки.
type BulkCopyOptions struct {
	// Database — целевая база данных
	Database string
	// Schema — схема целевой таблицы
	Schema string
	// Table — имя целевой таблицы
	Table string
	// Columns — список колонок в порядке значений строк
	Columns []string
	// BatchSize — количество строк в одном батче (0 = значение по умолчанию)
	BatchSize int
	// NotifyAfter — период уведомлений OnRowsCopied в строках (0 = без уведомлений)
	NotifyAfter int
	// Tablock — использовать табличную блокировку
	Tablock bool
	// KeepIdentity — сохранять значения identity-колонок источника.
	// Реализуется через SET IDENTITY_INSERT ON/OFF в рамках транзакции
	// bulk copy: драйвер не поддерживает KEEP_IDENTITY в INSERT BULK.
	KeepIdentity bool
	// KeepNulls — сохранять NULL вместо значений по умолчанию
	KeepNulls bool
	// CheckConstraints — проверять ограничения при вставке
	CheckConstraints bool
	// FireTriggers — выполнять триггеры целевой таблицы
	FireTriggers bool
	// OnRowsCopied — синхронный callback прогресса. Вызывается на том же
	// стеке что и вставка. reported — кумулятивный счётчик скопированных
	// строк в 32-битной семантике драйвера: после Int32.MaxValue значение
	// переполняется. Коррекция — ответственность вызывающей стороны
	// (internal/pkg/rowcount).
	OnRowsCopied func(reported int64)
}

// RowSource — источник строк для bulk copy. Возвращает очередную строку
// значений в порядке BulkCopyOptions.Columns; (nil, nil) означает конец данных.
type RowSource interface {
	Next() ([]any, error)
}

// LoginOptions содержит параметры создания логина SQL Server.
type LoginOptions struct {
	// Name — имя логина
	Name string
	// Password — пароль (только для SQL логинов)
	Password string
	// DefaultDatabase — база данных по умолчанию
	DefaultDatabase string
	// Language — язык по умолчанию
	Language string
	// WindowsLogin — создать Windows логин (FROM WINDOWS) вместо SQL логина
	WindowsLogin bool
	// PasswordPolicyEnforced — применять политику паролей Windows
	PasswordPolicyEnforced bool
	// PasswordExpirationEnforced — применять истечение срока пароля
	PasswordExpirationEnforced bool
	// Disabled — создать логин отключённым
	Disabled bool
	// ServerRoles — серверные роли для добавления логина
	ServerRoles []string
}

// AlertOptions содержит параметры создания алерта SQL Server Agent.
type AlertOptions struct {
	// Name — имя алерта
	Name string
	// Severity — уровень severity (0 если алерт по message id)
	Severity int
	// MessageID — номер сообщения об ошибке (0 если алерт по severity)
	MessageID int
	// Database — ограничение на базу данных (пусто = все базы)
	Database string
	// DelayBetweenResponses — задержка между срабатываниями в секундах
	DelayBetweenResponses int
	// NotificationMessage — дополнительный текст уведомления
	NotificationMessage string
	// Disabled — создать алерт отключённым
	Disabled bool
}

// JobStepOptions содержит параметры добавления шага в job SQL Server Agent.
type JobStepOptions struct {
	// JobName — имя job
	JobName string
	// StepName — имя шага
	StepName string
	// StepID — позиция шага (0 = добавить в конец)
	StepID int
	// Subsystem — подсистема выполнения (TSQL, CmdExec, PowerShell, ...)
	Subsystem string
	// Command — текст команды шага
	Command string
	// Database — база данных для TSQL шагов
	Database string
	// OnSuccessAction — действие при успехе (1 = quit with success)
	OnSuccessAction int
	// OnFailAction — действие при ошибке (2 = quit with failure)
	OnFailAction int
	// RetryAttempts — количество повторов при ошибке
	RetryAttempts int
	// RetryIntervalMinutes — интервал между повторами в минутах
	RetryIntervalMinutes int
}

// DatabaseConnector предоставляет операции для подключения к серверу MSSQL.
type DatabaseConnector interface {
	// Connect устанавливает соединение с сервером MSSQL.
	Connect(ctx context.Context) error
	// Close закрывает соединение с сервером.
	Close() error
	// Ping проверяет доступность сервера.
	Ping(ctx context.Context) error
}

// ObjectCatalog предоставляет чтение системного каталога: зашифрованные
// объекты и метаданные индексов/статистик.
type ObjectCatalog interface {
	// ListEncryptedObjects возвращает объекты базы, созданные WITH ENCRYPTION.
	ListEncryptedObjects(ctx context.Context, database string) ([]EncryptedObject, error)
	// GetEncryptedValue читает сырой зашифрованный образ объекта
	// из sys.sysobjvalues. Требует DAC подключения.
	GetEncryptedValue(ctx context.Context, database string, objectID int) ([]byte, error)
	// FetchKnownSecret выполняет alterSQL внутри транзакции, читает
	// зашифрованный образ объекта и гарантированно откатывает транзакцию
	// на всех путях выхода.
	FetchKnownSecret(ctx context.Context, database string, objectID int, alterSQL string) ([]byte, error)
	// GetIndexInfo возвращает индексы таблицы со статистикой использования.
	// Пустой table — все таблицы базы.
	GetIndexInfo(ctx context.Context, database, schema, table string) ([]IndexInfo, error)
	// GetStatisticsInfo возвращает объекты статистики таблицы.
	// Пустой table — все таблицы базы.
	GetStatisticsInfo(ctx context.Context, database, schema, table string) ([]StatisticsInfo, error)
}

// BulkCopier предоставляет серверный bulk insert и чтение строк источника.
type BulkCopier interface {
	// BulkCopy вставляет строки источника в целевую таблицу через
	// механизм bulk copy драйвера. Возвращает итоговое количество
	// вставленных строк по данным сервера.
	BulkCopy(ctx context.Context, opts BulkCopyOptions, rows RowSource) (int64, error)
	// OpenTableReader открывает поток строк таблицы-источника.
	// Пустой columns — все колонки таблицы. Возвращённый reader
	// обязателен к закрытию вызывающей стороной.
	OpenTableReader(ctx context.Context, database, schema, table string, columns []string) (*TableReader, error)
	// TruncateTable очищает целевую таблицу перед копированием.
	TruncateTable(ctx context.Context, database, schema, table string) error
}

// FileManager предоставляет операции с файлами баз данных.
type FileManager interface {
	// ListDatabaseFiles возвращает файлы базы данных из sys.master_files.
	ListDatabaseFiles(ctx context.Context, database string) ([]DatabaseFile, error)
	// SetDatabaseOffline переводит базу в OFFLINE с разрывом сессий.
	SetDatabaseOffline(ctx context.Context, database string) error
	// ModifyFilePath меняет зарегистрированный путь логического файла.
	// Вступает в силу при следующем переводе базы в ONLINE.
	ModifyFilePath(ctx context.Context, database, logicalName, newPath string) error
	// SetDatabaseOnline возвращает базу в ONLINE.
	SetDatabaseOnline(ctx context.Context, database string) error
}

// SecurityManager предоставляет операции управления логинами и ролями.
type SecurityManager interface {
	// CreateLogin создаёт логин сервера.
	CreateLogin(ctx context.Context, opts LoginOptions) error
	// AddServerRoleMember добавляет логин в серверную роль.
	AddServerRoleMember(ctx context.Context, role, login string) error
	// LoginExists проверяет существование логина.
	LoginExists(ctx context.Context, name string) (bool, error)
}

// AgentManager предоставляет операции SQL Server Agent.
type AgentManager interface {
	// CreateAlert создаёт алерт через msdb.dbo.sp_add_alert.
	CreateAlert(ctx context.Context, opts AlertOptions) error
	// AddAlertNotification привязывает оператора к алерту
	// через msdb.dbo.sp_add_notification (уведомление по email).
	AddAlertNotification(ctx context.Context, alertName, operatorName string) error
	// CreateJobStep добавляет шаг job через msdb.dbo.sp_add_jobstep.
	CreateJobStep(ctx context.Context, opts JobStepOptions) error
}

// Client — композитный интерфейс, объединяющий все операции MSSQL.
type Client interface {
	DatabaseConnector
	ObjectCatalog
	BulkCopier
	FileManager
	SecurityManager
	AgentManager
}
