// Package testutil содержит общие утилиты для тестирования.
package testutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// CaptureStdout выполняет fn, перехватывая stdout, и возвращает вывод.
// Используется в тестах handler-ов: JSON-ответы команд пишутся в stdout.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	return captureFile(t, &os.Stdout, fn)
}

// captureFile подменяет *slot на pipe на время выполнения fn и читает
// всё записанное. Не потокобезопасно: подмена os.Stdout глобальна.
func captureFile(t *testing.T, slot **os.File, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err, "не удалось создать pipe")

	orig := *slot
	*slot = w
	defer func() { *slot = orig }()

	fn()

	_ = w.Close() //nolint:errcheck // test helper pipe close

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err, "не удалось прочитать перехваченный вывод")
	return buf.String()
}
