package mssql

import (
	"context"
	"fmt"
)

// CreateAlert создаёт алерт SQL Server Agent через msdb.dbo.sp_add_alert.
// Алерт срабатывает либо по severity, либо по номеру сообщения — ровно одно
// из двух должно быть задано (ограничение самой процедуры).
func (c *client) CreateAlert(ctx context.Context, opts AlertOptions) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}
	if opts.Name == "" {
		return fmt.Errorf("%s: alert name is required", ErrMSSQLExec)
	}
	if (opts.Severity == 0) == (opts.MessageID == 0) {
		return fmt.Errorf("%s: alert %s: exactly one of severity or message id must be set", ErrMSSQLExec, opts.Name)
	}

	enabled := 1
	if opts.Disabled {
		enabled = 0
	}

	query := `
	EXEC msdb.dbo.sp_add_alert
		@name = @p1,
		@severity = @p2,
		@message_id = @p3,
		@database_name = @p4,
		@delay_between_responses = @p5,
		@notification_message = @p6,
		@enabled = @p7;
	`

	_, err := c.db.ExecContext(ctx, query,
		opts.Name,
		opts.Severity,
		opts.MessageID,
		nullIfEmpty(opts.Database),
		opts.DelayBetweenResponses,
		nullIfEmpty(opts.NotificationMessage),
		enabled,
	)
	if err != nil {
		return fmt.Errorf("%s: create alert %s: %w", ErrMSSQLExec, opts.Name, err)
	}

	return nil
}

// nullIfEmpty возвращает nil для пустой строки: sp_add_alert трактует
// NULL и пустую строку по-разному (пустая строка — валидное имя базы).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// AddAlertNotification привязывает оператора к алерту через
// msdb.dbo.sp_add_notification. Метод уведомления — email.
func (c *client) AddAlertNotification(ctx context.Context, alertName, operatorName string) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}
	if alertName == "" {
		return fmt.Errorf("%s: alert name is required", ErrMSSQLExec)
	}
	if operatorName == "" {
		return fmt.Errorf("%s: operator name is required", ErrMSSQLExec)
	}

	query := `
	EXEC msdb.dbo.sp_add_notification
		@alert_name = @p1,
		@operator_name = @p2,
		@notification_method = 1;
	`

	_, err := c.db.ExecContext(ctx, query, alertName, operatorName)
	if err != nil {
		return fmt.Errorf("%s: add notification for alert %s: %w", ErrMSSQLExec, alertName, err)
	}

	return nil
}

// CreateJobStep добавляет шаг job через msdb.dbo.sp_add_jobstep.
func (c *client) CreateJobStep(ctx context.Context, opts JobStepOptions) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLExec)
	}
	if opts.JobName == "" {
		return fmt.Errorf("%s: job name is required", ErrMSSQLExec)
	}
	if opts.StepName == "" {
		return fmt.Errorf("%s: step name is required", ErrMSSQLExec)
	}

	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "TSQL"
	}
	onSuccess := opts.OnSuccessAction
	if onSuccess == 0 {
		onSuccess = 1 // quit with success
	}
	onFail := opts.OnFailAction
	if onFail == 0 {
		onFail = 2 // quit with failure
	}

	query := `
	EXEC msdb.dbo.sp_add_jobstep
		@job_name = @p1,
		@step_name = @p2,
		@step_id = @p3,
		@subsystem = @p4,
		@command = @p5,
		@database_name = @p6,
		@on_success_action = @p7,
		@on_fail_action = @p8,
		@retry_attempts = @p9,
		@retry_interval = @p10;
	`

	_, err := c.db.ExecContext(ctx, query,
		opts.JobName,
		opts.StepName,
		nullIfZero(opts.StepID),
		subsystem,
		opts.Command,
		nullIfEmpty(opts.Database),
		onSuccess,
		onFail,
		opts.RetryAttempts,
		opts.RetryIntervalMinutes,
	)
	if err != nil {
		return fmt.Errorf("%s: add step %s to job %s: %w", ErrMSSQLExec, opts.StepName, opts.JobName, err)
	}

	return nil
}

// nullIfZero возвращает nil для нулевого step_id: NULL означает
// "добавить шаг в конец job".
func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
