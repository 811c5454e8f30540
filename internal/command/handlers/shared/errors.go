// Package shared содержит общие компоненты для всех command handlers:
// коды ошибок уровня конфигурации, создание MSSQL клиентов и
// единообразный вывод ошибок в текстовом формате.
package shared

// Общие коды ошибок для всех команд.
const (
	// ErrConfigMissing — отсутствует необходимая конфигурация.
	ErrConfigMissing = "CONFIG.MISSING"
	// ErrConnectionResolve — не удалось разрешить именованное подключение.
	ErrConnectionResolve = "CONFIG.CONNECTION_FAILED"
	// ErrClientCreate — не удалось создать MSSQL клиент.
	ErrClientCreate = "MSSQL.CLIENT_CREATE_FAILED"
)
