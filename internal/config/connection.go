package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/constants"
)

// DefaultCommandTimeout — таймаут команд по умолчанию.
const DefaultCommandTimeout = 30 * time.Minute

// ResolveConnection возвращает параметры клиента MSSQL для именованного
// подключения из AppConfig.Connections.
// Пароль берётся из secret.yaml по имени подключения; переменная окружения
// DK_MSSQL_PASSWORD_<ИМЯ> (имя в верхнем регистре, дефисы заменены на
// подчёркивания) переопределяет значение из файла.
func (cfg *Config) ResolveConnection(name string) (mssql.ClientOptions, error) {
	if name == "" {
		return mssql.ClientOptions{}, fmt.Errorf("не указано имя подключения")
	}
	if cfg.AppConfig == nil || len(cfg.AppConfig.Connections) == 0 {
		return mssql.ClientOptions{}, fmt.Errorf("в app.yaml не заданы подключения")
	}

	conn, ok := cfg.AppConfig.Connections[name]
	if !ok {
		return mssql.ClientOptions{}, fmt.Errorf("подключение %q не найдено в app.yaml", name)
	}
	if conn.Server == "" {
		return mssql.ClientOptions{}, fmt.Errorf("у подключения %q не задан server", name)
	}

	opts := mssql.ClientOptions{
		Server:   conn.Server,
		Port:     conn.Port,
		User:     conn.User,
		Database: conn.Database,
		Encrypt:  conn.Encrypt,
		Timeout:  cfg.CommandTimeout(),
	}
	if opts.Port == 0 {
		opts.Port = constants.DefaultMssqlPort
	}
	if opts.Database == "" {
		opts.Database = constants.DefaultMssqlDatabase
	}

	opts.Password = cfg.connectionPassword(name)
	return opts, nil
}

// SourceConnection возвращает параметры подключения-источника (DK_SOURCE).
func (cfg *Config) SourceConnection() (mssql.ClientOptions, error) {
	if cfg.Source == "" {
		return mssql.ClientOptions{}, fmt.Errorf("не задано подключение-источник (DK_SOURCE)")
	}
	return cfg.ResolveConnection(cfg.Source)
}

// DestinationConnection возвращает параметры целевого подключения.
// При пустом DK_DESTINATION используется источник.
func (cfg *Config) DestinationConnection() (mssql.ClientOptions, error) {
	name := cfg.Destination
	if name == "" {
		name = cfg.Source
	}
	if name == "" {
		return mssql.ClientOptions{}, fmt.Errorf("не задано целевое подключение (DK_DESTINATION)")
	}
	return cfg.ResolveConnection(name)
}

// CommandTimeout возвращает таймаут команд из app.yaml или значение по умолчанию.
func (cfg *Config) CommandTimeout() time.Duration {
	if cfg.AppConfig != nil && cfg.AppConfig.Timeout > 0 {
		return cfg.AppConfig.Timeout
	}
	return DefaultCommandTimeout
}

func (cfg *Config) connectionPassword(name string) string {
	envKey := "DK_MSSQL_PASSWORD_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if password := os.Getenv(envKey); password != "" {
		return password
	}
	if cfg.SecretConfig != nil {
		return cfg.SecretConfig.Passwords[name]
	}
	return ""
}
