package newjobstephandler

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
		JobName   string `json:"job_name"`
		StepName  string `json:"step_name"`
		StepID    int    `json:"step_id"`
		Subsystem string `json:"subsystem"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestExecute_JSON_AddsStep(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	var created mssql.JobStepOptions
	mock := mssqltest.NewMockMSSQLClient()
	mock.CreateJobStepFunc = func(_ context.Context, opts mssql.JobStepOptions) error {
		created = opts
		return nil
	}

	h := &NewJobStepHandler{client: mock}
	cfg := &config.Config{
		JobName:       "NightlyMaintenance",
		StepName:      "Rebuild indexes",
		StepCommand:   "EXEC dbo.usp_RebuildIndexes;",
		StepSubsystem: "TSQL",
		Database:      "Sales",
	}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, execErr)

	var env resultEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "stdout должен содержать только JSON")

	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "new-job-step", env.Command)
	assert.Equal(t, "NightlyMaintenance", env.Data.JobName)
	assert.Equal(t, "Rebuild indexes", env.Data.StepName)
	assert.Equal(t, 0, env.Data.StepID, "нулевой step_id — добавление в конец")

	assert.Equal(t, "NightlyMaintenance", created.JobName)
	assert.Equal(t, "EXEC dbo.usp_RebuildIndexes;", created.Command)
	assert.Equal(t, "Sales", created.Database)
}

func TestExecute_MissingStepCommand(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	h := &NewJobStepHandler{client: mssqltest.NewMockMSSQLClient()}
	cfg := &config.Config{JobName: "NightlyMaintenance", StepName: "Rebuild indexes"}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.Error(t, execErr)

	var env resultEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFIG.MISSING", env.Error.Code)
	assert.Contains(t, env.Error.Message, "DK_STEP_COMMAND")
}

func TestExecute_AddStepFailed(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	mock := mssqltest.NewMockMSSQLClient()
	mock.CreateJobStepFunc = func(_ context.Context, _ mssql.JobStepOptions) error {
		return errors.New("job не найден")
	}

	h := &NewJobStepHandler{client: mock}
	cfg := &config.Config{
		JobName:     "NoSuchJob",
		StepName:    "step",
		StepCommand: "SELECT 1;",
	}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.Error(t, execErr)

	var env resultEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, mssql.ErrMSSQLExec, env.Error.Code)
}

func TestExecute_TextFormat(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "text")

	h := &NewJobStepHandler{client: mssqltest.NewMockMSSQLClient()}
	cfg := &config.Config{
		JobName:     "NightlyMaintenance",
		StepName:    "Backup",
		StepCommand: "BACKUP DATABASE Sales TO DISK = N'/backup/Sales.bak';",
		StepID:      2,
	}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), cfg)
	})
	require.NoError(t, execErr)

	assert.Contains(t, out, `Шаг "Backup" добавлен на позицию 2 job "NightlyMaintenance"`)
}

func TestHandler_NameAndDescription(t *testing.T) {
	h := &NewJobStepHandler{}
	assert.Equal(t, "new-job-step", h.Name())
	assert.NotEmpty(t, h.Description())
}
