// Package dacpac реализует публикацию и выгрузку пакетов DACPAC/BACPAC
// через утилиту sqlpackage.
package dacpac

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Kargones/dbakit/internal/pkg/apperrors"
	"github.com/Kargones/dbakit/internal/pkg/logging"
	"github.com/Kargones/dbakit/internal/util/runner"
)

// Коды ошибок операций с пакетами.
const (
	ErrDacpacValidate = "DACPAC.VALIDATION"
	ErrDacpacRun      = "DACPAC.RUN"
)

// Action — действие sqlpackage.
type Action string

// Поддерживаемые действия sqlpackage.
const (
	ActionPublish Action = "Publish"
	ActionExtract Action = "Extract"
	ActionExport  Action = "Export"
	ActionImport  Action = "Import"
)

// DefaultSqlPackagePath — имя исполняемого файла sqlpackage по умолчанию
// (ищется в PATH).
const DefaultSqlPackagePath = "sqlpackage"

// Options задаёт параметры операции с пакетом.
type Options struct {
	// Action — действие: Publish, Extract, Export, Import.
	Action Action
	// PackagePath — путь к файлу .dacpac/.bacpac.
	// Для Publish/Import это источник, для Extract/Export — результат.
	PackagePath string
	// Server — целевой экземпляр SQL Server (host или host,port).
	Server string
	// Database — целевая база данных.
	Database string
	// User — SQL-логин. Пустой — интегрированная аутентификация.
	User string
	// Password — пароль SQL-логина.
	Password string
	// Properties — дополнительные свойства /p:Name=Value.
	Properties map[string]string
	// SqlPackagePath — путь к sqlpackage (по умолчанию ищется в PATH).
	SqlPackagePath string
}

// Result описывает результат операции с пакетом.
type Result struct {
	// Action — выполненное действие.
	Action Action
	// PackagePath — путь к пакету.
	PackagePath string
	// Output — вывод sqlpackage.
	Output string
}

// commandRunner запускает внешнюю команду. Выделен для подмены в тестах.
type commandRunner func(ctx context.Context, workDir, exe string, params []string, l *slog.Logger) ([]byte, error)

// Publisher выполняет операции с пакетами DACPAC/BACPAC.
type Publisher struct {
	run commandRunner
	log logging.Logger
}

// NewPublisher создаёт Publisher. log может быть nil.
func NewPublisher(log logging.Logger) *Publisher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Publisher{
		run: func(ctx context.Context, workDir, exe string, params []string, l *slog.Logger) ([]byte, error) {
			r := &runner.Runner{RunString: exe, Params: params, WorkDir: workDir}
			return r.RunCommand(ctx, l)
		},
		log: log,
	}
}

// Run выполняет операцию sqlpackage.
func (p *Publisher) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	exe := opts.SqlPackagePath
	if exe == "" {
		exe = DefaultSqlPackagePath
	}

	params := buildParams(opts)
	p.log.Info("Запуск sqlpackage",
		"action", string(opts.Action), "package", opts.PackagePath,
		"server", opts.Server, "database", opts.Database)

	out, err := p.run(ctx, filepath.Dir(opts.PackagePath), exe, params, slog.Default())
	if err != nil {
		return nil, apperrors.NewAppError(ErrDacpacRun,
			fmt.Sprintf("sqlpackage %s завершился с ошибкой: %s", opts.Action, runner.TrimOut(out)), err)
	}

	p.log.Info("sqlpackage завершён", "action", string(opts.Action), "package", opts.PackagePath)
	return &Result{
		Action:      opts.Action,
		PackagePath: opts.PackagePath,
		Output:      string(out),
	}, nil
}

func validate(opts Options) error {
	switch opts.Action {
	case ActionPublish, ActionExtract, ActionExport, ActionImport:
	default:
		return apperrors.NewAppError(ErrDacpacValidate,
			fmt.Sprintf("неизвестное действие %q", opts.Action), nil)
	}
	if opts.PackagePath == "" {
		return apperrors.NewAppError(ErrDacpacValidate, "не указан путь к пакету", nil)
	}
	if opts.Server == "" {
		return apperrors.NewAppError(ErrDacpacValidate, "не указан сервер", nil)
	}
	if opts.Database == "" {
		return apperrors.NewAppError(ErrDacpacValidate, "не указана база данных", nil)
	}

	// Для Publish/Import пакет должен существовать заранее.
	if opts.Action == ActionPublish || opts.Action == ActionImport {
		if _, err := os.Stat(opts.PackagePath); err != nil {
			return apperrors.NewAppError(ErrDacpacValidate,
				fmt.Sprintf("пакет %s недоступен", opts.PackagePath), err)
		}
	}
	return nil
}

// buildParams собирает аргументы sqlpackage.
// Publish/Import читают пакет (SourceFile), Extract/Export создают (TargetFile);
// соответственно меняется сторона параметров подключения.
func buildParams(opts Options) []string {
	params := []string{"/Action:" + string(opts.Action)}

	switch opts.Action {
	case ActionPublish, ActionImport:
		params = append(params,
			"/SourceFile:"+opts.PackagePath,
			"/TargetServerName:"+opts.Server,
			"/TargetDatabaseName:"+opts.Database)
		if opts.User != "" {
			params = append(params,
				"/TargetUser:"+opts.User,
				"/TargetPassword:"+opts.Password)
		}
	case ActionExtract, ActionExport:
		params = append(params,
			"/TargetFile:"+opts.PackagePath,
			"/SourceServerName:"+opts.Server,
			"/SourceDatabaseName:"+opts.Database)
		if opts.User != "" {
			params = append(params,
				"/SourceUser:"+opts.User,
				"/SourcePassword:"+opts.Password)
		}
	}

	keys := make([]string, 0, len(opts.Properties))
	for k := range opts.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params = append(params, fmt.Sprintf("/p:%s=%s", k, opts.Properties[k]))
	}
	return params
}

// ParseAction разбирает действие из строки конфигурации.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "publish":
		return ActionPublish, nil
	case "extract":
		return ActionExtract, nil
	case "export":
		return ActionExport, nil
	case "import":
		return ActionImport, nil
	default:
		return "", apperrors.NewAppError(ErrDacpacValidate,
			fmt.Sprintf("неизвестное действие %q, допустимы publish, extract, export, import", s), nil)
	}
}
