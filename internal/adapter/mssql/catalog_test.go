package mssql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockClient создаёт client поверх sqlmock для тестов каталога.
func newMockClient(t *testing.T) (*client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("ошибка создания sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &client{db: db, opts: ClientOptions{Server: "test"}}, mock
}

// TestClient_ListEncryptedObjects проверяет чтение списка зашифрованных объектов
func TestClient_ListEncryptedObjects(t *testing.T) {
	cli, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"object_id", "schema", "name", "type", "parent_schema", "parent_name"}).
		AddRow(101, "dbo", "usp_Secret", "P", "", "").
		AddRow(102, "dbo", "trg_Audit", "TR", "dbo", "Orders")
	mock.ExpectQuery("IsEncrypted").WillReturnRows(rows)

	objects, err := cli.ListEncryptedObjects(context.Background(), "appdb")
	if err != nil {
		t.Fatalf("ListEncryptedObjects() error = %v", err)
	}

	if len(objects) != 2 {
		t.Fatalf("получено %d объектов, want 2", len(objects))
	}
	if objects[0].Database != "appdb" || objects[0].Schema != "dbo" || objects[0].Name != "usp_Secret" || objects[0].Type != "P" {
		t.Errorf("неожиданный первый объект: %+v", objects[0])
	}
	if objects[1].ParentName != "Orders" {
		t.Errorf("ParentName = %q, want Orders", objects[1].ParentName)
	}
}

// TestClient_GetEncryptedValue проверяет чтение imageval
func TestClient_GetEncryptedValue(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
		wantLen   int
	}{
		{
			name: "успешное чтение образа",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("imageval").
					WithArgs(101).
					WillReturnRows(sqlmock.NewRows([]string{"imageval"}).AddRow([]byte{0x10, 0x20, 0x30}))
			},
			wantLen: 3,
		},
		{
			name: "объект не найден - атрибутируемая ошибка",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("imageval").
					WithArgs(101).
					WillReturnRows(sqlmock.NewRows([]string{"imageval"}))
			},
			wantErr: true,
		},
		{
			name: "ошибка запроса",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("imageval").
					WithArgs(101).
					WillReturnError(errors.New("permission denied"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mock := newMockClient(t)
			tt.setupMock(mock)

			secret, err := cli.GetEncryptedValue(context.Background(), "appdb", 101)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetEncryptedValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(secret) != tt.wantLen {
				t.Errorf("len(secret) = %d, want %d", len(secret), tt.wantLen)
			}
		})
	}
}

// TestClient_FetchKnownSecret проверяет транзакционную подстановку known plaintext.
// Rollback обязан выполняться на всех путях выхода — и при успехе, и при ошибке.
func TestClient_FetchKnownSecret(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name: "успешная подстановка с гарантированным rollback",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("USE").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("ALTER PROCEDURE").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("imageval").
					WithArgs(101).
					WillReturnRows(sqlmock.NewRows([]string{"imageval"}).AddRow([]byte{0xAA, 0xBB}))
				mock.ExpectRollback()
			},
		},
		{
			name: "ошибка ALTER - rollback всё равно выполняется",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("USE").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("ALTER PROCEDURE").WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "ошибка чтения после успешного ALTER - rollback выполняется",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("USE").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("ALTER PROCEDURE").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("imageval").
					WithArgs(101).
					WillReturnError(errors.New("connection lost"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mock := newMockClient(t)
			tt.setupMock(mock)

			alterSQL := "ALTER PROCEDURE dbo.usp_Secret WITH ENCRYPTION AS RETURN 0;"
			_, err := cli.FetchKnownSecret(context.Background(), "appdb", 101, alterSQL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FetchKnownSecret() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания sqlmock: %v", err)
			}
		})
	}
}

// TestClient_GetIndexInfo проверяет чтение метаданных индексов
func TestClient_GetIndexInfo(t *testing.T) {
	cli, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{
		"schema", "table", "index", "type", "key_cols", "incl_cols",
		"is_unique", "is_pk", "row_count", "size_kb",
		"seeks", "scans", "lookups", "updates",
	}).AddRow("dbo", "Orders", "PK_Orders", "CLUSTERED", "OrderID", "", true, true, 100000, 8192, 500, 20, 0, 300)
	mock.ExpectQuery("dm_db_index_usage_stats").WithArgs("dbo", "Orders").WillReturnRows(rows)

	infos, err := cli.GetIndexInfo(context.Background(), "appdb", "dbo", "Orders")
	if err != nil {
		t.Fatalf("GetIndexInfo() error = %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("получено %d индексов, want 1", len(infos))
	}
	if !infos[0].IsPrimaryKey || infos[0].KeyColumns != "OrderID" || infos[0].UserSeeks != 500 {
		t.Errorf("неожиданный результат: %+v", infos[0])
	}
}

// TestClient_GetStatisticsInfo проверяет чтение объектов статистики
func TestClient_GetStatisticsInfo(t *testing.T) {
	cli, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{
		"schema", "table", "name", "columns", "last_updated",
		"rows_sampled", "modification_counter", "auto_created",
	}).
		AddRow("dbo", "Orders", "_WA_Sys_0001", "CustomerID", nil, 0, 1500, true)
	mock.ExpectQuery("dm_db_stats_properties").WithArgs("", "").WillReturnRows(rows)

	infos, err := cli.GetStatisticsInfo(context.Background(), "appdb", "", "")
	if err != nil {
		t.Fatalf("GetStatisticsInfo() error = %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("получено %d статистик, want 1", len(infos))
	}
	if infos[0].LastUpdated != nil {
		t.Error("LastUpdated должен быть nil для необновлявшейся статистики")
	}
	if !infos[0].IsAutoCreated {
		t.Error("IsAutoCreated = false, want true")
	}
}

// TestClient_Catalog_NoConnection проверяет ошибку при отсутствии соединения
func TestClient_Catalog_NoConnection(t *testing.T) {
	cli := &client{}
	ctx := context.Background()

	if _, err := cli.ListEncryptedObjects(ctx, "db"); err == nil {
		t.Error("ListEncryptedObjects без соединения должен вернуть ошибку")
	}
	if _, err := cli.GetEncryptedValue(ctx, "db", 1); err == nil {
		t.Error("GetEncryptedValue без соединения должен вернуть ошибку")
	}
	if _, err := cli.FetchKnownSecret(ctx, "db", 1, "ALTER"); err == nil {
		t.Error("FetchKnownSecret без соединения должен вернуть ошибку")
	}
}
