// Package version реализует команду version для вывода информации
// о версии приложения и алиасах команд.
package version

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/Kargones/dbakit/internal/command"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
)

func RegisterCmd() {
	command.Register(&VersionHandler{})
}

// VersionData содержит информацию о версии приложения.
type VersionData struct {
	// Version — полная версия приложения.
	Version string `json:"version"`

	// GoVersion — версия Go, использованная при сборке.
	GoVersion string `json:"go_version"`

	// Commit — хеш коммита на момент сборки.
	Commit string `json:"commit"`

	// Aliases содержит маппинг команд на их устаревшие алиасы.
	Aliases []AliasEntry `json:"aliases"`
}

// AliasEntry описывает маппинг команды на устаревший алиас.
type AliasEntry struct {
	// Command — основное имя команды (например, "move-db-file").
	Command string `json:"command"`
	// DeprecatedAlias — устаревший алиас (например, "move-database-file").
	// Пустая строка если алиас отсутствует.
	DeprecatedAlias string `json:"deprecated_alias"`
}

// writeText выводит информацию о версии в человекочитаемом формате.
func (d *VersionData) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "dbakit version %s\n  Go:     %s\n  Commit: %s\n",
		d.Version, d.GoVersion, d.Commit)
	if err != nil {
		return err
	}

	aliased := false
	for _, entry := range d.Aliases {
		if entry.DeprecatedAlias == "" {
			continue
		}
		if !aliased {
			if _, err = fmt.Fprintln(w, "\nУстаревшие алиасы:"); err != nil {
				return err
			}
			aliased = true
		}
		if _, err = fmt.Fprintf(w, "  %-25s → %s\n", entry.DeprecatedAlias, entry.Command); err != nil {
			return err
		}
	}
	return nil
}

// buildVersionData создаёт VersionData с fallback значениями.
// Если version пустой — используется "dev", если commit пустой — "unknown".
func buildVersionData(version, commit string) *VersionData {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	return &VersionData{
		Version:   version,
		GoVersion: runtime.Version(),
		Commit:    commit,
		Aliases:   buildAliases(),
	}
}

// buildAliases строит маппинг команд на устаревшие алиасы
// на основе данных из реестра команд.
func buildAliases() []AliasEntry {
	commands := command.ListAllWithAliases()
	entries := make([]AliasEntry, 0, len(commands))
	for _, cmd := range commands {
		entries = append(entries, AliasEntry{
			Command:         cmd.Name,
			DeprecatedAlias: cmd.DeprecatedAlias,
		})
	}
	return entries
}

// VersionHandler обрабатывает команду version.
type VersionHandler struct{}

// Name возвращает имя команды.
func (h *VersionHandler) Name() string {
	return constants.ActVersion
}

// Description возвращает описание команды для вывода в help.
func (h *VersionHandler) Description() string {
	return "Вывод информации о версии приложения"
}

// Execute выполняет команду version: собирает данные о версии и выводит результат.
func (h *VersionHandler) Execute(ctx context.Context, _ *config.Config) error {
	start := time.Now()

	versionData := buildVersionData(constants.Version, constants.PreCommitHash)

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")

	// Текстовый формат — компактный вывод без metadata/trace_id.
	if format != output.FormatJSON {
		return versionData.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActVersion,
		Data:    versionData,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}
