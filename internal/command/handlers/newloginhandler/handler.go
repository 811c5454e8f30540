// Package newloginhandler реализует команду new-login
// для создания логина SQL Server с назначением серверных ролей.
package newloginhandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/command"
	errhandler "github.com/Kargones/dbakit/internal/command/handlers/shared"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
)

// Коды ошибок команды new-login.
const (
	// ErrLoginExists — логин уже существует.
	ErrLoginExists = "LOGIN.ALREADY_EXISTS"
)

func RegisterCmd() {
	command.Register(&NewLoginHandler{})
}

// NewLoginData содержит данные ответа команды new-login.
type NewLoginData struct {
	// Name — имя созданного логина.
	Name string `json:"name"`
	// Type — тип логина: sql или windows.
	Type string `json:"type"`
	// ServerRoles — назначенные серверные роли.
	ServerRoles []string `json:"server_roles,omitempty"`
	// Disabled — создан ли логин отключённым.
	Disabled bool `json:"disabled"`
}

// writeText выводит результат создания логина в человекочитаемом формате.
func (d *NewLoginData) writeText(w io.Writer) error {
	state := "включён"
	if d.Disabled {
		state = "отключён"
	}
	_, err := fmt.Fprintf(w, "Логин %s создан (%s, %s)\n", d.Name, d.Type, state)
	if err != nil {
		return err
	}
	if len(d.ServerRoles) > 0 {
		_, err = fmt.Fprintf(w, "Серверные роли: %s\n", strings.Join(d.ServerRoles, ", "))
	}
	return err
}

// NewLoginHandler обрабатывает команду new-login.
type NewLoginHandler struct {
	// client — опциональный MSSQL клиент (nil в production, mock в тестах)
	client mssql.Client
}

// Name возвращает имя команды.
func (h *NewLoginHandler) Name() string {
	return constants.ActNewLogin
}

// Description возвращает описание команды для вывода в help.
func (h *NewLoginHandler) Description() string {
	return "Создание логина SQL Server"
}

// Execute выполняет команду new-login.
func (h *NewLoginHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")
	log := slog.Default().With(
		slog.String("trace_id", traceID),
		slog.String("command", constants.ActNewLogin))

	if cfg == nil || cfg.LoginName == "" {
		log.Error("Не указано имя логина")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не указано имя логина (DK_LOGIN_NAME)")
	}

	loginType := strings.ToLower(cfg.LoginType)
	if loginType != "sql" && loginType != "windows" {
		log.Error("Неизвестный тип логина", slog.String("type", cfg.LoginType))
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			fmt.Sprintf("Неизвестный тип логина %q, поддерживаются sql и windows", cfg.LoginType))
	}

	// Пароль только через окружение: в Config и логи не попадает
	password := os.Getenv("DK_LOGIN_PASSWORD")
	if loginType == "sql" && password == "" {
		log.Error("Не задан пароль SQL логина")
		return h.writeError(format, traceID, start,
			errhandler.ErrConfigMissing,
			"Не задан пароль SQL логина (DK_LOGIN_PASSWORD)")
	}

	client := h.client
	if client == nil {
		var err error
		client, err = errhandler.NewSourceClient(ctx, cfg)
		if err != nil {
			log.Error("Не удалось создать MSSQL клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				errhandler.ErrClientCreate,
				fmt.Sprintf("Не удалось подключиться: %v", err))
		}
		defer func() { _ = client.Close() }() //nolint:errcheck // закрытие при выходе
	}

	exists, err := client.LoginExists(ctx, cfg.LoginName)
	if err != nil {
		log.Error("Не удалось проверить существование логина", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			mssql.ErrMSSQLQuery,
			fmt.Sprintf("Не удалось проверить существование логина: %v", err))
	}
	if exists {
		log.Error("Логин уже существует", slog.String("login", cfg.LoginName))
		return h.writeError(format, traceID, start,
			ErrLoginExists,
			fmt.Sprintf("Логин %s уже существует", cfg.LoginName))
	}

	roles := config.ParseList(cfg.ServerRoles)
	opts := mssql.LoginOptions{
		Name:                   cfg.LoginName,
		Password:               password,
		WindowsLogin:           loginType == "windows",
		PasswordPolicyEnforced: cfg.CheckPolicy,
		Disabled:               cfg.LoginDisable,
		ServerRoles:            roles,
	}

	if err := client.CreateLogin(ctx, opts); err != nil {
		log.Error("Не удалось создать логин", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			mssql.ErrMSSQLExec,
			fmt.Sprintf("Не удалось создать логин: %v", err))
	}

	for _, role := range roles {
		if err := client.AddServerRoleMember(ctx, role, cfg.LoginName); err != nil {
			log.Error("Не удалось добавить логин в роль",
				slog.String("role", role),
				slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				mssql.ErrMSSQLExec,
				fmt.Sprintf("Логин создан, но не добавлен в роль %s: %v", role, err))
		}
	}

	data := &NewLoginData{
		Name:        cfg.LoginName,
		Type:        loginType,
		ServerRoles: roles,
		Disabled:    cfg.LoginDisable,
	}

	log.Info("Логин создан",
		slog.String("login", data.Name),
		slog.String("type", data.Type),
		slog.Int("roles", len(roles)))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActNewLogin,
		Data:    data,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *NewLoginHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return errhandler.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActNewLogin,
		Error: &output.ErrorInfo{
			Code:    code,
			Message: message,
		},
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	if err := writer.Write(os.Stdout, result); err != nil {
		return err
	}
	return fmt.Errorf("%s: %s", code, message)
}
