// Package help реализует команду help для вывода списка всех доступных команд.
package help

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Kargones/dbakit/internal/command"
	"github.com/Kargones/dbakit/internal/config"
	"github.com/Kargones/dbakit/internal/constants"
	"github.com/Kargones/dbakit/internal/pkg/output"
	"github.com/Kargones/dbakit/internal/pkg/tracing"
)

func RegisterCmd() {
	command.Register(&Handler{})
}

// Data содержит информацию обо всех доступных командах.
type Data struct {
	// Commands — зарегистрированные команды, отсортированные по имени.
	Commands []CommandInfo `json:"commands"`
}

// CommandInfo описывает одну команду.
type CommandInfo struct {
	// Name — имя команды.
	Name string `json:"name"`
	// Description — описание команды.
	Description string `json:"description"`
	// Deprecated — true если имя команды устарело.
	Deprecated bool `json:"deprecated,omitempty"`
	// NewName — новое имя команды (если deprecated).
	NewName string `json:"new_name,omitempty"`
}

// Handler обрабатывает команду help.
type Handler struct{}

// Name возвращает имя команды.
func (h *Handler) Name() string {
	return constants.ActHelp
}

// Description возвращает описание команды для вывода в help.
func (h *Handler) Description() string {
	return "Вывод списка доступных команд"
}

// Execute выполняет команду help: собирает список команд и выводит результат.
func (h *Handler) Execute(ctx context.Context, _ *config.Config) error {
	start := time.Now()

	helpData := buildData()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv("DK_OUTPUT_FORMAT")

	// Текстовый формат — специализированный вывод без metadata
	// (trace_id, duration_ms). Metadata доступна только в JSON формате.
	if format != output.FormatJSON {
		return helpData.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActHelp,
		Data:    helpData,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}

// buildData собирает информацию обо всех зарегистрированных командах.
func buildData() *Data {
	data := &Data{}

	for name, handler := range command.All() {
		info := CommandInfo{
			Name:        name,
			Description: handler.Description(),
		}

		// Deprecated статус через опциональный interface
		if dep, ok := handler.(command.Deprecatable); ok && dep.IsDeprecated() {
			info.Deprecated = true
			info.NewName = dep.NewName()
		}

		data.Commands = append(data.Commands, info)
	}
	sort.Slice(data.Commands, func(i, j int) bool {
		return data.Commands[i].Name < data.Commands[j].Name
	})

	return data
}

// writeText выводит информацию о командах в человекочитаемом формате.
func (d *Data) writeText(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("dbakit — инструмент администрирования Microsoft SQL Server\n")
	sb.WriteString("\nКоманды:\n")

	maxLen := 0
	for _, cmd := range d.Commands {
		if len(cmd.Name) > maxLen {
			maxLen = len(cmd.Name)
		}
	}

	for _, cmd := range d.Commands {
		desc := cmd.Description
		if cmd.Deprecated {
			desc = fmt.Sprintf("[deprecated → %s] %s", cmd.NewName, desc)
		}
		fmt.Fprintf(&sb, "  %-*s  %s\n", maxLen, cmd.Name, desc)
	}

	sb.WriteString("\nОкружение:\n")
	sb.WriteString("  DK_SOURCE=<имя>            Подключение-источник из app.yaml\n")
	sb.WriteString("  DK_DESTINATION=<имя>       Целевое подключение (по умолчанию DK_SOURCE)\n")
	sb.WriteString("  DK_DATABASE=<база>         База данных команды\n")
	sb.WriteString("  DK_OUTPUT_FORMAT=json      Машиночитаемый вывод\n")
	sb.WriteString("  DK_SHOW_PROGRESS=false     Отключить вывод прогресса\n")

	_, err := fmt.Fprint(w, sb.String())
	return err
}
