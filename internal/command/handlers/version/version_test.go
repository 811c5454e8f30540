package version

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/testutil"
)

func TestVersionHandler_Name(t *testing.T) {
	h := &VersionHandler{}
	assert.Equal(t, "version", h.Name())
	assert.Equal(t, constants.ActVersion, h.Name())
}

func TestVersionHandler_Description(t *testing.T) {
	h := &VersionHandler{}
	assert.NotEmpty(t, h.Description())
}

func TestBuildVersionData_Fallbacks(t *testing.T) {
	data := buildVersionData("", "")

	assert.Equal(t, "dev", data.Version, "пустая версия заменяется на dev")
	assert.Equal(t, "unknown", data.Commit, "пустой коммит заменяется на unknown")
	assert.Equal(t, runtime.Version(), data.GoVersion)
}

func TestBuildVersionData_Explicit(t *testing.T) {
	data := buildVersionData("1.2.3", "abc1234")

	assert.Equal(t, "1.2.3", data.Version)
	assert.Equal(t, "abc1234", data.Commit)
}

func TestBuildAliases_IncludesDeprecated(t *testing.T) {
	aliases := buildAliases()

	found := false
	for _, entry := range aliases {
		if entry.Command == "fake-test" {
			found = true
			assert.Equal(t, "legacy-fake-test", entry.DeprecatedAlias)
		}
	}
	assert.True(t, found, "fake-test должна присутствовать в алиасах")
}

func TestVersionHandler_Execute_JSONOutput(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "json")

	h := &VersionHandler{}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), nil)
	})
	require.NoError(t, execErr)

	var result output.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result), "stdout должен содержать валидный JSON")

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "version", result.Command)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, constants.APIVersion, result.Metadata.APIVersion)
	assert.NotEmpty(t, result.Metadata.TraceID)

	dataMap, ok := result.Data.(map[string]any)
	require.True(t, ok, "Data должен быть map")
	assert.Contains(t, dataMap, "version")
	assert.Contains(t, dataMap, "go_version")
	assert.Contains(t, dataMap, "commit")
	assert.Contains(t, dataMap, "aliases")
}

func TestVersionHandler_Execute_TextOutput(t *testing.T) {
	t.Setenv("DK_OUTPUT_FORMAT", "text")

	h := &VersionHandler{}

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), nil)
	})
	require.NoError(t, execErr)

	assert.Contains(t, out, "dbakit version")
	assert.Contains(t, out, "Go:")
	assert.Contains(t, out, "Устаревшие алиасы:")
	assert.Contains(t, out, "legacy-fake-test")
	assert.Contains(t, out, "fake-test")
}
