package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{"", slog.LevelInfo},
		{"trace", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.level))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, OutputStderr, cfg.Output)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.True(t, cfg.Compress)
}

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(Config{Level: LevelInfo, Format: FormatText}, &buf)

	logger.Info("подключение установлено", "server", "sql01")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "server=sql01")
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(Config{Level: LevelInfo, Format: FormatJSON}, &buf)

	logger.Info("подключение установлено", "server", "sql01")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "sql01", record["server"])
}

func TestNewLoggerWithWriter_UnknownFormatFallsBackToText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(Config{Level: LevelInfo, Format: "xml"}, &buf)

	logger.Info("сообщение")

	assert.Contains(t, buf.String(), "level=INFO", "неизвестный формат → text handler")
}

func TestNewLoggerWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(Config{Level: LevelError, Format: FormatText}, &buf)

	logger.Debug("отброшено")
	logger.Info("отброшено")
	logger.Warn("отброшено")
	logger.Error("записано")

	out := buf.String()
	assert.NotContains(t, out, "отброшено")
	assert.Contains(t, out, "записано")
}

func TestNewLogger_StderrOutput(t *testing.T) {
	logger := NewLogger(Config{Level: LevelInfo, Format: FormatText, Output: OutputStderr})
	require.NotNil(t, logger)
}

func TestNewLogger_EmptyOutputDefaultsToStderr(t *testing.T) {
	logger := NewLogger(Config{Level: LevelInfo, Format: FormatText})
	require.NotNil(t, logger)
}

func TestNewLogger_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dbakit.log")
	logger := NewLogger(Config{
		Level:    LevelInfo,
		Format:   FormatJSON,
		Output:   OutputFile,
		FilePath: logPath,
		MaxSize:  1,
	})

	logger.Info("файл перенесён", "database", "Sales")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err, "лог-файл должен быть создан")
	assert.Contains(t, string(data), "Sales")
}

func TestNewLogger_FileOutputCreatesDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "logs", "dbakit.log")
	logger := NewLogger(Config{
		Level:    LevelInfo,
		Format:   FormatText,
		Output:   OutputFile,
		FilePath: logPath,
	})

	logger.Info("создание вложенной директории")

	_, err := os.Stat(filepath.Dir(logPath))
	assert.NoError(t, err, "директория логов должна быть создана автоматически")
}

func TestNewLogger_FileOutputEmptyPathFallsBack(t *testing.T) {
	// Пустой FilePath при output=file не должен ронять приложение.
	logger := NewLogger(Config{Level: LevelInfo, Format: FormatText, Output: OutputFile})
	require.NotNil(t, logger)
	logger.Info("fallback на stderr")
}

func TestNewLogger_UnknownOutputFallsBack(t *testing.T) {
	logger := NewLogger(Config{Level: LevelInfo, Format: FormatText, Output: "syslog"})
	require.NotNil(t, logger)
	logger.Info("fallback на stderr")
}
