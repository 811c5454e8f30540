package mssql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestClient_CreateAlert проверяет валидацию и вызов sp_add_alert
func TestClient_CreateAlert(t *testing.T) {
	tests := []struct {
		name      string
		opts      AlertOptions
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name: "алерт по severity",
			opts: AlertOptions{
				Name:                  "Severity 17",
				Severity:              17,
				DelayBetweenResponses: 60,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("sp_add_alert").
					WithArgs("Severity 17", 17, 0, nil, 60, nil, 1).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "алерт по message id для конкретной базы",
			opts: AlertOptions{
				Name:      "Deadlock 1205",
				MessageID: 1205,
				Database:  "appdb",
				Disabled:  true,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("sp_add_alert").
					WithArgs("Deadlock 1205", 0, 1205, "appdb", 0, nil, 0).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:    "severity и message id одновременно - ошибка",
			opts:    AlertOptions{Name: "bad", Severity: 17, MessageID: 1205},
			wantErr: true,
		},
		{
			name:    "ни severity ни message id - ошибка",
			opts:    AlertOptions{Name: "bad"},
			wantErr: true,
		},
		{
			name:    "пустое имя - ошибка",
			opts:    AlertOptions{Severity: 17},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mock := newMockClient(t)
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}

			err := cli.CreateAlert(context.Background(), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateAlert() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания sqlmock: %v", err)
			}
		})
	}
}

// TestClient_AddAlertNotification проверяет привязку оператора к алерту
func TestClient_AddAlertNotification(t *testing.T) {
	tests := []struct {
		name      string
		alert     string
		operator  string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name:     "уведомление оператора по email",
			alert:    "Severity 17",
			operator: "DBA Team",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("sp_add_notification").
					WithArgs("Severity 17", "DBA Team").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:     "пустое имя алерта - ошибка",
			operator: "DBA Team",
			wantErr:  true,
		},
		{
			name:    "пустое имя оператора - ошибка",
			alert:   "Severity 17",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mock := newMockClient(t)
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}

			err := cli.AddAlertNotification(context.Background(), tt.alert, tt.operator)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddAlertNotification() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания sqlmock: %v", err)
			}
		})
	}
}

// TestClient_CreateJobStep проверяет defaults и вызов sp_add_jobstep
func TestClient_CreateJobStep(t *testing.T) {
	tests := []struct {
		name      string
		opts      JobStepOptions
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name: "TSQL шаг с значениями по умолчанию",
			opts: JobStepOptions{
				JobName:  "Nightly Maintenance",
				StepName: "Rebuild Indexes",
				Command:  "EXEC dbo.usp_RebuildIndexes;",
				Database: "appdb",
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("sp_add_jobstep").
					WithArgs("Nightly Maintenance", "Rebuild Indexes", nil, "TSQL",
						"EXEC dbo.usp_RebuildIndexes;", "appdb", 1, 2, 0, 0).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "CmdExec шаг с повторами на заданной позиции",
			opts: JobStepOptions{
				JobName:              "Export",
				StepName:             "Run bcp",
				StepID:               2,
				Subsystem:            "CmdExec",
				Command:              `bcp appdb.dbo.Orders out orders.dat -n -T`,
				RetryAttempts:        3,
				RetryIntervalMinutes: 5,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("sp_add_jobstep").
					WithArgs("Export", "Run bcp", 2, "CmdExec",
						`bcp appdb.dbo.Orders out orders.dat -n -T`, nil, 1, 2, 3, 5).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:    "пустое имя job - ошибка",
			opts:    JobStepOptions{StepName: "x"},
			wantErr: true,
		},
		{
			name:    "пустое имя шага - ошибка",
			opts:    JobStepOptions{JobName: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mock := newMockClient(t)
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}

			err := cli.CreateJobStep(context.Background(), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateJobStep() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания sqlmock: %v", err)
			}
		})
	}
}
