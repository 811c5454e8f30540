package mssql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestClient_ListDatabaseFiles проверяет чтение файлов базы из sys.master_files
func TestClient_ListDatabaseFiles(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
		wantCount int
	}{
		{
			name: "пара данных и лога",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"file_id", "name", "physical_name", "type_desc", "size_kb", "state_desc"}).
					AddRow(1, "appdb", `D:\Data\appdb.mdf`, "ROWS", 1048576, "ONLINE").
					AddRow(2, "appdb_log", `E:\Log\appdb_log.ldf`, "LOG", 262144, "ONLINE")
				mock.ExpectQuery("master_files").WithArgs("appdb").WillReturnRows(rows)
			},
			wantCount: 2,
		},
		{
			name: "база не существует - ошибка вместо пустого результата",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("master_files").WithArgs("appdb").
					WillReturnRows(sqlmock.NewRows([]string{"file_id", "name", "physical_name", "type_desc", "size_kb", "state_desc"}))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mock := newMockClient(t)
			tt.setupMock(mock)

			files, err := cli.ListDatabaseFiles(context.Background(), "appdb")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListDatabaseFiles() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(files) != tt.wantCount {
				t.Errorf("получено %d файлов, want %d", len(files), tt.wantCount)
			}
		})
	}
}

// TestClient_MoveFileSequence проверяет T-SQL последовательность переноса файла:
// OFFLINE -> MODIFY FILE -> ONLINE
func TestClient_MoveFileSequence(t *testing.T) {
	cli, mock := newMockClient(t)
	ctx := context.Background()

	mock.ExpectExec(`ALTER DATABASE \[appdb\] SET OFFLINE WITH ROLLBACK IMMEDIATE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ALTER DATABASE \[appdb\] MODIFY FILE \(NAME = \[appdb\], FILENAME = N'F:\\NewData\\appdb\.mdf'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ALTER DATABASE \[appdb\] SET ONLINE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := cli.SetDatabaseOffline(ctx, "appdb"); err != nil {
		t.Fatalf("SetDatabaseOffline() error = %v", err)
	}
	if err := cli.ModifyFilePath(ctx, "appdb", "appdb", `F:\NewData\appdb.mdf`); err != nil {
		t.Fatalf("ModifyFilePath() error = %v", err)
	}
	if err := cli.SetDatabaseOnline(ctx, "appdb"); err != nil {
		t.Fatalf("SetDatabaseOnline() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания sqlmock: %v", err)
	}
}

// TestClient_ModifyFilePath_Error проверяет оборачивание ошибки сервера
func TestClient_ModifyFilePath_Error(t *testing.T) {
	cli, mock := newMockClient(t)

	mock.ExpectExec("MODIFY FILE").WillReturnError(errors.New("database is in use"))

	err := cli.ModifyFilePath(context.Background(), "appdb", "appdb", `F:\x.mdf`)
	if err == nil {
		t.Fatal("ModifyFilePath() должен вернуть ошибку")
	}
}
