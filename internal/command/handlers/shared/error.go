package shared

import (
	"errors"
	"fmt"
	"os"

	"github.com/Kargones/dbakit/internal/pkg/apperrors"
)

// ErrorCode извлекает машиночитаемый код из AppError.
// Для прочих ошибок возвращает fallback.
func ErrorCode(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return fallback
}

// HandleError выводит ошибку в человекочитаемом формате в stdout
// и возвращает форматированную ошибку для кода возврата.
// Используется обработчиками при текстовом формате вывода.
func HandleError(message, code string) error {
	_, _ = fmt.Fprintf(os.Stdout, "Ошибка: %s\nКод: %s\n", message, code)
	return fmt.Errorf("%s: %s", code, message)
}
