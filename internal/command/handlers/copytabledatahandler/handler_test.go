package copytabledatahandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/adapter/mssql/mssqltest"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/pkg/testutil"
)

type resultEnvelope struct {
	Status  string `json:"status"`
	Command string `json:"command"`
	Data    struct {
		SourceTable string  `json:"source_table"`
		DestTable   string  `json:"dest_table"`
		RowsCopied  int64   `json:"rows_copied"`
		Truncated   bool    `json:"truncated"`
		RowsPerSec  float64 `json:"rows_per_second"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Metadata struct {
		Summary *struct {
			KeyMetrics []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
				Unit  string `json:"unit"`
			} `json:"key_metrics"`
		} `json:"summary"`
	} `json:"metadata"`
}

func TestExecute_JSON_CopiesRows(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	var truncated []string
	mock := mssqltest.NewMockMSSQLClient()
	mock.TruncateTableFunc = func(_ context.Context, database, schema, table string) error {
		truncated = append(truncated, database+"."+schema+"."+table)
		return nil
	}

	h := &CopyTableDataHandler{source: mock, dest: mock}
	cfg := &config.Config{
		Database:     "Sales",
		Table:        "Orders",
		DestDatabase: "SalesArchive",
		Truncate:     true,
	}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, execErr)

	var env resultEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "stdout должен содержать только JSON")

	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "copy-table-data", env.Command)
	// Mock-источник отдаёт три строки по умолчанию
	assert.Equal(t, int64(3), env.Data.RowsCopied)
	assert.Equal(t, "Sales.dbo.Orders", env.Data.SourceTable)
	assert.Equal(t, "SalesArchive.dbo.Orders", env.Data.DestTable)
	assert.True(t, env.Data.Truncated)
	assert.Equal(t, []string{"SalesArchive.dbo.Orders"}, truncated)

	require.NotNil(t, env.Metadata.Summary, "summary копируется в metadata при JSON выводе")
	names := make([]string, 0, len(env.Metadata.Summary.KeyMetrics))
	for _, m := range env.Metadata.Summary.KeyMetrics {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "rows_copied")
	assert.Contains(t, names, "rows_per_second")
}

func TestExecute_JSON_BulkCopyFailed(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	// Перенос Sales.dbo.Orders между экземплярами: имена совпадают,
	// соединения разные.
	source := mssqltest.NewMockMSSQLClient()
	dest := mssqltest.NewMockMSSQLClient()
	dest.BulkCopyFunc = func(_ context.Context, _ mssql.BulkCopyOptions, _ mssql.RowSource) (int64, error) {
		return 0, errors.New("deadlock victim")
	}

	h := &CopyTableDataHandler{source: source, dest: dest}
	cfg := &config.Config{Database: "Sales", Table: "Orders"}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.Error(t, execErr)

	var env resultEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TABLECOPY.DESTINATION", env.Error.Code)
	assert.Contains(t, env.Error.Message, "deadlock victim")
}

func TestExecute_MissingTable(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	h := &CopyTableDataHandler{source: mssqltest.NewMockMSSQLClient(), dest: mssqltest.NewMockMSSQLClient()}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), &config.Config{Database: "Sales"})
	})
	require.Error(t, execErr)

	var env resultEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFIG.MISSING", env.Error.Code)
	assert.Contains(t, env.Error.Message, "DK_TABLE")
}

func TestExecute_TextFormat(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "text")

	h := &CopyTableDataHandler{
		source: mssqltest.NewMockMSSQLClient(),
		dest:   mssqltest.NewMockMSSQLClient(),
	}
	cfg := &config.Config{Database: "Sales", Table: "Orders"}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, execErr)

	assert.Contains(t, out, "Sales.dbo.Orders")
	assert.Contains(t, out, "Строк: 3")
}

func TestHandler_NameAndDescription(t *testing.T) {
	h := &CopyTableDataHandler{}
	assert.Equal(t, "copy-table-data", h.Name())
	assert.NotEmpty(t, h.Description())
}
