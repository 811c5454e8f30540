// Package decrypt восстанавливает исходный текст объектов SQL Server,
// созданных WITH ENCRYPTION (хранимые процедуры, функции, представления,
// триггеры).
//
// Легаси-схема обфускации SQL Server — потоковый XOR-шифр, ключевой поток
// которого детерминированно выводится из самого объекта. Подстановка второго
// определения той же длины (known plaintext) внутри откатываемой транзакции
// и чтение его зашифрованной формы позволяет восстановить ключевой поток
// позиционно, а затем снять его с реального секрета.
package decrypt

import (
	"fmt"

	"github.com/Kargones/dbakit/internal/pkg/apperrors"
)

// Коды ошибок восстановления текста.
const (
	// ErrDecryptLength - длина known plaintext/known secret меньше секрета
	ErrDecryptLength = "DECRYPT.LENGTH_MISMATCH"
	// ErrDecryptSecret - не удалось прочитать зашифрованный образ объекта
	ErrDecryptSecret = "DECRYPT.SECRET_READ_FAILED"
	// ErrDecryptKnownSecret - не удалось получить зашифрованную форму known plaintext
	ErrDecryptKnownSecret = "DECRYPT.KNOWN_SECRET_FAILED"
	// ErrDecryptEncoding - ошибка кодирования/декодирования текста
	ErrDecryptEncoding = "DECRYPT.ENCODING_FAILED"
	// ErrDecryptTemplate - для типа объекта нет шаблона подстановки
	ErrDecryptTemplate = "DECRYPT.UNSUPPORTED_OBJECT_TYPE"
)

// RecoverPlaintext восстанавливает байты исходного текста объекта.
//
// Для каждой позиции i с шагом 2 вычисляется
// secret[i] XOR knownPlain[i] XOR knownSecret[i]: шифр оперирует 16-битными
// кодовыми единицами, независимый байт ключевого потока несёт только каждая
// вторая позиция. Шаг 2 — свойство самой схемы шифрования; изменение шага
// даёт мусор вместо текста.
//
// knownPlain и knownSecret обязаны быть не короче secret. Нарушение длины
// возвращает ошибку ErrDecryptLength, а не панику индексации: вызывающая
// сторона обеспечивает равенство длин дополнением пробелами, и расхождение
// означает дефект подготовки данных.
func RecoverPlaintext(secret, knownPlain, knownSecret []byte) ([]byte, error) {
	if len(knownPlain) < len(secret) {
		return nil, apperrors.NewAppError(ErrDecryptLength,
			fmt.Sprintf("known plaintext короче секрета: %d < %d", len(knownPlain), len(secret)), nil)
	}
	if len(knownSecret) < len(secret) {
		return nil, apperrors.NewAppError(ErrDecryptLength,
			fmt.Sprintf("known secret короче секрета: %d < %d", len(knownSecret), len(secret)), nil)
	}

	result := make([]byte, 0, len(secret)/2+1)
	for i := 0; i < len(secret); i += 2 {
		result = append(result, secret[i]^knownPlain[i]^knownSecret[i])
	}
	return result, nil
}
