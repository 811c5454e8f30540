// Package config содержит конфигурацию приложения.
package config

import (
	"log/slog"
	"time"
)

// AppConfig представляет настройки приложения из файла app.yaml.
// Содержит именованные подключения к экземплярам SQL Server, путь к
// sqlpackage и секции ambient-подсистем (логирование, метрики, трейсинг).
type AppConfig struct {
	// Connections — именованные подключения к экземплярам SQL Server.
	// Имя подключения используется в DK_SOURCE / DK_DESTINATION.
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// SqlPackagePath — путь к утилите sqlpackage.
	SqlPackagePath string `yaml:"sqlPackagePath"`

	// Timeout — таймаут команд по умолчанию.
	Timeout time.Duration `yaml:"timeout"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ConnectionConfig описывает подключение к экземпляру SQL Server.
type ConnectionConfig struct {
	// Server — адрес сервера.
	Server string `yaml:"server"`
	// Port — порт (по умолчанию 1433).
	Port int `yaml:"port"`
	// User — SQL-логин. Пустой — интегрированная аутентификация.
	User string `yaml:"user"`
	// Database — база по умолчанию (обычно master).
	Database string `yaml:"database"`
	// Encrypt — требовать TLS.
	Encrypt bool `yaml:"encrypt"`
}

// SecretConfig представляет секретные данные из файла secret.yaml.
// Содержит пароли подключений по именам из AppConfig.Connections.
type SecretConfig struct {
	Passwords map[string]string `yaml:"passwords"`
}

// Config хранит настройки для работы приложения.
// Заполняется из переменных окружения DK_* и файлов app.yaml / secret.yaml.
type Config struct {
	// Command — имя выполняемой команды (kebab-case).
	Command string `env:"DK_COMMAND" env-default:""`
	// Env — окружение запуска (dev, staging, production).
	Env string `env:"DK_ENV" env-default:"dev"`
	// Actor — кто запустил команду (для логов и метрик).
	Actor string `env:"DK_ACTOR" env-default:""`
	// OutputFormat — формат вывода результата: text или json.
	OutputFormat string `env:"DK_OUTPUT_FORMAT" env-default:"text"`

	Logger *slog.Logger

	// Пути к файлам конфигурации
	ConfigApp    string `env:"DK_CONFIG_APP" env-default:""`
	ConfigSecret string `env:"DK_CONFIG_SECRET" env-default:""`

	// Source — имя подключения-источника из AppConfig.Connections.
	Source string `env:"DK_SOURCE" env-default:""`
	// Destination — имя целевого подключения. Пустое — совпадает с Source.
	Destination string `env:"DK_DESTINATION" env-default:""`

	// Database — база данных, над которой выполняется команда.
	Database string `env:"DK_DATABASE" env-default:""`
	// Schema — схема объекта (по умолчанию dbo).
	Schema string `env:"DK_SCHEMA" env-default:""`
	// Table — таблица для copy-table-data / index-info.
	Table string `env:"DK_TABLE" env-default:""`
	// Objects — список имён объектов через запятую (decrypt-object).
	Objects string `env:"DK_OBJECTS" env-default:""`
	// ObjectEncoding — кодировка текста объектов: ascii или utf8.
	ObjectEncoding string `env:"DK_OBJECT_ENCODING" env-default:"ascii"`

	// Параметры bulk copy
	BatchSize   int  `env:"DK_BATCH_SIZE" env-default:"0"`
	NotifyAfter int  `env:"DK_NOTIFY_AFTER" env-default:"0"`
	Truncate    bool `env:"DK_TRUNCATE" env-default:"false"`
	// KeepIdentity сохраняет значения identity-колонок источника.
	KeepIdentity bool `env:"DK_KEEP_IDENTITY" env-default:"false"`
	// KeepNulls сохраняет NULL вместо значений по умолчанию приёмника.
	KeepNulls bool `env:"DK_KEEP_NULLS" env-default:"false"`
	// DestDatabase/DestSchema/DestTable — целевые координаты копирования.
	DestDatabase string `env:"DK_DEST_DATABASE" env-default:""`
	DestSchema   string `env:"DK_DEST_SCHEMA" env-default:""`
	DestTable    string `env:"DK_DEST_TABLE" env-default:""`

	// Параметры move-db-file: logical1=/path1,logical2=/path2
	FileMoves     string `env:"DK_FILE_MOVES" env-default:""`
	RelocateFiles bool   `env:"DK_RELOCATE_FILES" env-default:"false"`
	DeleteSource  bool   `env:"DK_DELETE_SOURCE" env-default:"false"`

	// Параметры new-login
	LoginName    string `env:"DK_LOGIN_NAME" env-default:""`
	LoginType    string `env:"DK_LOGIN_TYPE" env-default:"sql"`
	ServerRoles  string `env:"DK_SERVER_ROLES" env-default:""`
	CheckPolicy  bool   `env:"DK_CHECK_POLICY" env-default:"true"`
	LoginDisable bool   `env:"DK_LOGIN_DISABLED" env-default:"false"`

	// Параметры new-alert
	AlertName     string `env:"DK_ALERT_NAME" env-default:""`
	AlertSeverity int    `env:"DK_ALERT_SEVERITY" env-default:"0"`
	AlertMessage  int    `env:"DK_ALERT_MESSAGE_ID" env-default:"0"`
	AlertOperator string `env:"DK_ALERT_OPERATOR" env-default:""`

	// Параметры new-job-step
	JobName     string `env:"DK_JOB_NAME" env-default:""`
	StepName    string `env:"DK_STEP_NAME" env-default:""`
	StepCommand string `env:"DK_STEP_COMMAND" env-default:""`
	StepID      int    `env:"DK_STEP_ID" env-default:"0"`
	// StepSubsystem — подсистема шага: TSQL, CmdExec, PowerShell.
	StepSubsystem string `env:"DK_STEP_SUBSYSTEM" env-default:"TSQL"`

	// Параметры publish-dacpac
	DacpacAction string `env:"DK_DACPAC_ACTION" env-default:"publish"`
	DacpacPath   string `env:"DK_DACPAC_PATH" env-default:""`
	// DacpacProperties — свойства /p: через запятую: Name=Value,Name2=Value2
	DacpacProperties string `env:"DK_DACPAC_PROPERTIES" env-default:""`

	// Настройки приложения (из app.yaml)
	AppConfig *AppConfig

	// Секреты (из secret.yaml)
	SecretConfig *SecretConfig

	// Logging настройки
	LoggingConfig *LoggingConfig

	// Metrics настройки
	MetricsConfig *MetricsConfig

	// Tracing настройки (OpenTelemetry)
	TracingConfig *TracingConfig
}
