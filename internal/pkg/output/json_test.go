package output

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "обновить golden files")

func TestNewJSONWriter(t *testing.T) {
	writer := NewJSONWriter()
	assert.NotNil(t, writer)
}

func TestJSONWriter_ImplementsWriter(_ *testing.T) {
	var _ Writer = (*JSONWriter)(nil)
}

func writeGolden(t *testing.T, name string, result *Result) []byte {
	t.Helper()

	writer := NewJSONWriter()
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, result))

	goldenPath := filepath.Join("testdata", "golden", name)
	if *update {
		require.NoError(t, os.WriteFile(goldenPath, buf.Bytes(), 0600))
	}

	expected, err := os.ReadFile(goldenPath) //nolint:gosec // golden files в testdata — безопасны
	require.NoError(t, err)
	assert.Equal(t, string(expected), buf.String())
	return buf.Bytes()
}

func TestJSONWriter_Write_SuccessResult(t *testing.T) {
	writeGolden(t, "result_success.json", &Result{
		Status:  StatusSuccess,
		Command: "test-command",
		Data:    map[string]string{"version": "1.0.0"},
		Metadata: &Metadata{
			DurationMs: 150,
			APIVersion: "v1",
		},
	})
}

func TestJSONWriter_Write_ErrorResult(t *testing.T) {
	writeGolden(t, "result_error.json", &Result{
		Status:  StatusError,
		Command: "test-command",
		Error: &ErrorInfo{
			Code:    "CONFIG.LOAD_FAILED",
			Message: "не удалось загрузить конфигурацию",
		},
		Metadata: &Metadata{
			DurationMs: 50,
			APIVersion: "v1",
		},
	})
}

func TestJSONWriter_Write_MinimalResult(t *testing.T) {
	writeGolden(t, "result_minimal.json", &Result{
		Status:  StatusSuccess,
		Command: "test-command",
	})
}

// loadSchema загружает JSON Schema из файла для валидации.
func loadSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	schemaPath := filepath.Join("testdata", "schema", "result.schema.json")
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaPath)
	require.NoError(t, err, "не удалось загрузить JSON Schema")
	return schema
}

func validateAgainstSchema(t *testing.T, result *Result) {
	t.Helper()
	schema := loadSchema(t)

	writer := NewJSONWriter()
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, result))

	var jsonData any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &jsonData))
	assert.NoError(t, schema.Validate(jsonData), "Result должен соответствовать JSON Schema")
}

func TestJSONWriter_Write_SchemaValidation_Success(t *testing.T) {
	validateAgainstSchema(t, &Result{
		Status:  StatusSuccess,
		Command: "copy-table-data",
		Data:    map[string]any{"rows_copied": 42},
		Metadata: &Metadata{
			DurationMs: 150,
			APIVersion: "v1",
		},
	})
}

func TestJSONWriter_Write_SchemaValidation_Error(t *testing.T) {
	validateAgainstSchema(t, &Result{
		Status:  StatusError,
		Command: "decrypt-object",
		Error: &ErrorInfo{
			Code:    "MSSQL.CONNECT_FAILED",
			Message: "не удалось подключиться к серверу",
		},
		Metadata: &Metadata{
			DurationMs: 50,
			APIVersion: "v1",
		},
	})
}

func TestJSONWriter_Write_SchemaValidation_WithSummary(t *testing.T) {
	summary := NewSummaryInfo()
	summary.AddMetric("Строк скопировано", "100500", "шт")
	summary.AddWarning("таблица содержит identity колонку")

	validateAgainstSchema(t, &Result{
		Status:  StatusSuccess,
		Command: "copy-table-data",
		Metadata: &Metadata{
			DurationMs: 1200,
			TraceID:    "abc123",
			APIVersion: "v1",
		},
		Summary: summary,
	})
}

func TestJSONWriter_Write_SummaryCopiedToMetadata(t *testing.T) {
	summary := NewSummaryInfo()
	summary.AddMetric("rows", "3", "")

	result := &Result{
		Status:   StatusSuccess,
		Command:  "copy-table-data",
		Metadata: &Metadata{DurationMs: 10, APIVersion: "v1"},
		Summary:  summary,
	}

	writer := NewJSONWriter()
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, result))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	meta, ok := parsed["metadata"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, meta["summary"], "summary должен попасть в metadata")

	// Оригинальный result не мутируется
	assert.Nil(t, result.Metadata.Summary)
}

func TestJSONWriter_Write_ValidJSON(t *testing.T) {
	result := &Result{
		Status:  StatusSuccess,
		Command: "test-command",
		Data:    map[string]string{"key": "value"},
	}

	writer := NewJSONWriter()
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, result))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, "success", parsed["status"])
	assert.Equal(t, "test-command", parsed["command"])
}

func TestJSONWriter_Write_NilResult(t *testing.T) {
	writer := NewJSONWriter()
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, nil))

	// nil result сериализуется как "null"
	assert.Equal(t, "null\n", buf.String())
}
