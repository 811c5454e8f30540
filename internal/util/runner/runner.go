// Package runner предоставляет функциональность для выполнения внешних команд
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
)

const maxConsoleOut = 2048

const maskedValue = "*****"

// Runner структура для выполнения команд и управления их параметрами
type Runner struct {
	RunString  string
	Params     []string
	WorkDir    string
	ConsoleOut []byte
}

// ClearParams очищает все параметры команды.
func (r *Runner) ClearParams() {
	r.Params = []string{}
}

// validateParams проверяет корректность исполняемого файла и параметров.
func (r *Runner) validateParams() error {
	if r.RunString == "" {
		return errors.New("executable path is empty")
	}
	for _, param := range r.Params {
		if strings.Contains(param, ";") || strings.Contains(param, "&") || strings.Contains(param, "|") {
			return fmt.Errorf("potentially unsafe parameter detected: %s", MaskSecrets(param))
		}
	}
	return nil
}

// maskedParams возвращает параметры с заменёнными секретами для логирования.
func (r *Runner) maskedParams() []string {
	masked := make([]string, len(r.Params))
	for i, p := range r.Params {
		masked[i] = MaskSecrets(p)
	}
	return masked
}

// RunCommand выполняет команду и возвращает объединённый вывод stdout/stderr.
// Параметры в логе маскируются: пароли в аргументах и connection string
// никогда не попадают в лог.
func (r *Runner) RunCommand(ctx context.Context, l *slog.Logger) ([]byte, error) {
	if err := r.validateParams(); err != nil {
		return nil, err
	}

	l.Info("Параметры запуска",
		slog.String("Исполняемый файл", r.RunString),
		slog.String("WorkDir", r.WorkDir),
		slog.String("Параметры", fmt.Sprint(r.maskedParams())),
	)

	// #nosec G204 - parameters are validated above
	cmd := exec.CommandContext(ctx, r.RunString, r.Params...)
	cmd.Dir = r.WorkDir

	var err error
	r.ConsoleOut, err = cmd.CombinedOutput()

	if err != nil {
		l.Error("Runner",
			slog.String("Ошибка при запуске", err.Error()),
			slog.String("Исполняемый файл", r.RunString),
			slog.String("Параметры", fmt.Sprint(r.maskedParams())),
			slog.String("Вывод", TrimOut(r.ConsoleOut)),
		)
	} else {
		l.Debug("Runner",
			slog.String("Вывод консоли", TrimOut(r.ConsoleOut)),
		)
	}

	r.Params = []string{}
	return r.ConsoleOut, err
}

// TrimOut обрезает вывод команды.
func TrimOut(b []byte) string {
	if len(b) < maxConsoleOut {
		return string(b)
	}
	return string(b[:1020]) + "\n********\n" + string(b[len(b)-1020:])
}

var (
	argPasswordRe  = regexp.MustCompile(`(?i)(/(?:Target|Source)?Password:)(\S+)`)
	connPasswordRe = regexp.MustCompile(`(?i)((?:password|pwd)=)([^;"]+)`)
)

// MaskSecrets маскирует пароли в параметре командной строки:
// аргументы вида /TargetPassword:xxx и пары password=xxx в connection string.
func MaskSecrets(value string) string {
	value = argPasswordRe.ReplaceAllString(value, "${1}"+maskedValue)
	value = connPasswordRe.ReplaceAllString(value, "${1}"+maskedValue)
	return value
}
