// Package mssql предоставляет реализацию клиента для работы с Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	// blank import для драйвера SQL Server
	_ "github.com/denisenkom/go-mssqldb"
)

// Compile-time проверка реализации интерфейса
var _ Client = (*client)(nil)

// client — реализация интерфейса Client для MSSQL.
type client struct {
	db   *sql.DB
	opts ClientOptions
}

// NewClient создаёт новый MSSQL клиент с указанными параметрами.
// Примечание: подключение устанавливается отложенно через Connect().
func NewClient(opts ClientOptions) (Client, error) {
	if opts.Server == "" {
		return nil, fmt.Errorf("%s: server is required", ErrMSSQLConnect)
	}
	if opts.Port == 0 {
		opts.Port = 1433
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("%s: invalid port %d, must be between 1 and 65535", ErrMSSQLConnect, opts.Port)
	}
	if opts.Database == "" {
		opts.Database = "master"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	// По умолчанию включаем шифрование для безопасности.
	// Если encryptSet=false, значит Encrypt не был явно задан — используем true.
	if !opts.encryptSet {
		opts.Encrypt = true
	}

	return &client{
		opts: opts,
	}, nil
}

// NewClientWithEncrypt создаёт MSSQL клиент с явным указанием режима шифрования.
// Используйте этот конструктор для явного контроля над TLS.
func NewClientWithEncrypt(opts ClientOptions, encrypt bool) (Client, error) {
	opts.Encrypt = encrypt
	opts.encryptSet = true
	return NewClient(opts)
}

// Connect устанавливает соединение с сервером MSSQL.
func (c *client) Connect(ctx context.Context) error {
	encryptMode := "true"
	if !c.opts.Encrypt {
		encryptMode = "disable"
	}

	// DAC подключение использует префикс admin: в адресе сервера.
	// Требуется для чтения sys.sysobjvalues (decrypt-object).
	server := c.opts.Server
	if c.opts.DAC {
		server = "admin:" + server
	}

	// Экранируем параметры для защиты от инъекций в connection string
	connString := fmt.Sprintf(
		"server=%s;user id=%s;password=%s;port=%d;database=%s;encrypt=%s;connection timeout=%d",
		escapeConnStringParam(server),
		escapeConnStringParam(c.opts.User),
		escapeConnStringParam(c.opts.Password),
		c.opts.Port,
		escapeConnStringParam(c.opts.Database),
		encryptMode,
		int(c.opts.Timeout.Seconds()),
	)

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}

	// DAC допускает единственную сессию — ограничиваем пул одним соединением,
	// иначе пул откроет вторую сессию и сервер её отклонит.
	if c.opts.DAC {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			// best-effort close; original error is more important
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: context cancelled during ping: %w", ErrMSSQLConnect, ctx.Err())
		}
		return fmt.Errorf("%s: ping failed: %w", ErrMSSQLConnect, err)
	}

	c.db = db
	return nil
}

// escapeConnStringParam экранирует параметр для безопасного использования в connection string.
// Защищает от инъекции управляющих символов (; = и др.) в DSN.
func escapeConnStringParam(s string) string {
	// go-mssqldb использует URL-подобный формат, где ; и = имеют особое значение
	return url.QueryEscape(s)
}

// quoteName квотирует идентификатор SQL Server в квадратные скобки.
// Идентификаторы (имена баз, таблиц, логических файлов) не могут быть
// параметрами запроса, поэтому квотирование обязательно.
func quoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteString квотирует строковый литерал для T-SQL конструкций,
// не допускающих параметризацию (ALTER DATABASE ... FILENAME).
func quoteString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Close закрывает соединение с сервером.
func (c *client) Close() error {
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// Ping проверяет доступность сервера.
func (c *client) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLConnect)
	}
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}
	return nil
}
