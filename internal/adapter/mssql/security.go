package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateLogin создаёт логин сервера: SQL логин с паролем либо Windows логин.
// Серверные роли из opts.ServerRoles добавляются после создания.
func (c *client) CreateLogin(ctx context.Context, opts LoginOptions) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}
	if opts.Name == "" {
		return fmt.Errorf("%s: login name is required", ErrMSSQLExec)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE LOGIN %s", quoteName(opts.Name))

	if opts.WindowsLogin {
		b.WriteString(" FROM WINDOWS")
		var with []string
		if opts.DefaultDatabase != "" {
			with = append(with, "DEFAULT_DATABASE = "+quoteName(opts.DefaultDatabase))
		}
		if opts.Language != "" {
			with = append(with, "DEFAULT_LANGUAGE = "+quoteName(opts.Language))
		}
		if len(with) > 0 {
			b.WriteString(" WITH " + strings.Join(with, ", "))
		}
	} else {
		if opts.Password == "" {
			return fmt.Errorf("%s: password is required for SQL login", ErrMSSQLExec)
		}
		with := []string{"PASSWORD = " + quoteString(opts.Password)}
		if opts.DefaultDatabase != "" {
			with = append(with, "DEFAULT_DATABASE = "+quoteName(opts.DefaultDatabase))
		}
		if opts.Language != "" {
			with = append(with, "DEFAULT_LANGUAGE = "+quoteName(opts.Language))
		}
		with = append(with, "CHECK_POLICY = "+onOff(opts.PasswordPolicyEnforced))
		// CHECK_EXPIRATION допустим только вместе с CHECK_POLICY = ON
		if opts.PasswordPolicyEnforced {
			with = append(with, "CHECK_EXPIRATION = "+onOff(opts.PasswordExpirationEnforced))
		}
		b.WriteString(" WITH " + strings.Join(with, ", "))
	}
	b.WriteString(";")

	if opts.Disabled {
		fmt.Fprintf(&b, " ALTER LOGIN %s DISABLE;", quoteName(opts.Name))
	}

	if _, err := c.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("%s: create login %s: %w", ErrMSSQLExec, opts.Name, err)
	}

	for _, role := range opts.ServerRoles {
		if err := c.AddServerRoleMember(ctx, role, opts.Name); err != nil {
			return err
		}
	}

	return nil
}

// onOff конвертирует bool в T-SQL ON/OFF.
func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

// AddServerRoleMember добавляет логин в серверную роль.
func (c *client) AddServerRoleMember(ctx context.Context, role, login string) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}

	stmt := fmt.Sprintf("ALTER SERVER ROLE %s ADD MEMBER %s;", quoteName(role), quoteName(login))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: add %s to server role %s: %w", ErrMSSQLExec, login, role, err)
	}
	return nil
}

// LoginExists проверяет существование логина в sys.server_principals.
func (c *client) LoginExists(ctx context.Context, name string) (bool, error) {
	if c.db == nil {
		return false, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	query := `
	SELECT 1
	FROM sys.server_principals
	WHERE name = @p1 AND type IN ('S', 'U', 'G');
	`

	var one int
	err := c.db.QueryRowContext(ctx, query, name).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("%s: check login %s: %w", ErrMSSQLQuery, name, err)
	}
	return true, nil
}
