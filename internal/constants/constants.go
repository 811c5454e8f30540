// Package constants содержит все константы, используемые в проекте dbakit.
// Константы сгруппированы по их функциональному назначению для удобства использования и поддержки.
package constants

// Константы сообщений приложения
const (
	// MsgAppExit - сообщение о завершении работы программы
	MsgAppExit = "Завершение работы програмы"
	// MsgErrProcessing - сообщение об обработке ошибки
	MsgErrProcessing = "Обработка ошибки"
	// MsgSource - сообщение об исходном объекте
	MsgSource = "Исходный"
	// MsgDistination - сообщение о конечном объекте
	MsgDistination = "Конечный"
)

// Константы действий (команд)
const (
	// ActDecryptObject - действие восстановления исходного текста зашифрованного объекта
	ActDecryptObject = "decrypt-object"
	// ActCopyTableData - действие копирования данных таблицы через bulk copy
	ActCopyTableData = "copy-table-data"
	// ActMoveDbFile - действие переноса файлов базы данных
	ActMoveDbFile = "move-db-file"
	// ActIndexInfo - действие получения метаданных индексов и статистик
	ActIndexInfo = "index-info"
	// ActNewLogin - действие создания логина SQL Server
	ActNewLogin = "new-login"
	// ActNewAlert - действие создания алерта SQL Server Agent
	ActNewAlert = "new-alert"
	// ActNewJobStep - действие добавления шага в job SQL Server Agent
	ActNewJobStep = "new-job-step"
	// ActPublishDacpac - действие публикации DACPAC/BACPAC пакета
	ActPublishDacpac = "publish-dacpac"
	// ActHelp - действие вывода справки по командам
	ActHelp = "help"
	// ActVersion - действие вывода версии приложения
	ActVersion = "version"
)

// Константы API
const (
	// APIVersion - версия формата JSON вывода
	APIVersion = "v1"
)

// Значения по умолчанию для подключения к SQL Server
const (
	// DefaultMssqlPort - порт SQL Server по умолчанию
	DefaultMssqlPort = 1433
	// DefaultMssqlDatabase - база данных для подключения по умолчанию
	DefaultMssqlDatabase = "master"
	// DefaultBatchSize - размер батча bulk copy по умолчанию
	DefaultBatchSize = 50000
	// DefaultNotifyAfter - интервал уведомлений о прогрессе bulk copy (строк)
	DefaultNotifyAfter = 5000
)

// Version - версия приложения. Заменяется при сборке через ldflags.
var Version = "dev"

// PreCommitHash - хеш коммита сборки. Заменяется при сборке через ldflags.
var PreCommitHash = "unknown"
