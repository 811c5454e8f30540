package decrypt

import (
	"fmt"
	"strings"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/pkg/apperrors"
)

// Шаблоны known plaintext по коду типа объекта из sys.objects.
// Каждый шаблон — минимальное синтаксически корректное определение
// соответствующего вида объекта с WITH ENCRYPTION.
var knownPlainTemplates = map[string]string{
	// P — хранимая процедура
	"P": "ALTER PROCEDURE %s WITH ENCRYPTION AS RETURN 0;",
	// V — представление
	"V": "ALTER VIEW %s WITH ENCRYPTION AS SELECT 0 AS Filler;",
	// FN — скалярная функция
	"FN": "ALTER FUNCTION %s() RETURNS INT WITH ENCRYPTION AS BEGIN RETURN 0 END;",
	// IF — inline table-valued функция
	"IF": "ALTER FUNCTION %s() RETURNS TABLE WITH ENCRYPTION AS RETURN SELECT 0 AS Filler;",
	// TF — multi-statement table-valued функция
	"TF": "ALTER FUNCTION %s() RETURNS @Filler TABLE (Filler INT) WITH ENCRYPTION AS BEGIN RETURN END;",
}

// triggerTemplate — шаблон для триггеров (TR). Отдельно от карты:
// триггеру требуется имя родительской таблицы.
const triggerTemplate = "ALTER TRIGGER %s ON %s WITH ENCRYPTION FOR UPDATE AS RAISERROR('Filler', 16, 10);"

// quoteTwoPart возвращает квотированное двухчастное имя schema.name.
func quoteTwoPart(schema, name string) string {
	quote := func(s string) string {
		return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
	}
	return quote(schema) + "." + quote(name)
}

// BuildKnownPlain строит known plaintext подстановку для объекта:
// минимальное определение нужного вида, дополненное ведущими пробелами так,
// чтобы длина в байтах заданной кодировки в точности равнялась secretLen.
// Равенство длин — обязательное условие восстановления ключевого потока:
// сервер переиспользует ключевой поток только для текстов одинаковой длины.
//
// Возвращает текст подстановки (для ALTER) и её байтовое представление
// (для XOR). Если секрет короче минимального шаблона, восстановление
// невозможно — возвращается ошибка.
func BuildKnownPlain(obj mssql.EncryptedObject, secretLen int, enc Encoding) (string, []byte, error) {
	var base string
	switch obj.Type {
	case "TR":
		if obj.ParentName == "" {
			return "", nil, apperrors.NewAppError(ErrDecryptTemplate,
				fmt.Sprintf("триггер %s.%s без родительской таблицы", obj.Schema, obj.Name), nil)
		}
		base = fmt.Sprintf(triggerTemplate,
			quoteTwoPart(obj.Schema, obj.Name),
			quoteTwoPart(obj.ParentSchema, obj.ParentName))
	default:
		tmpl, ok := knownPlainTemplates[obj.Type]
		if !ok {
			return "", nil, apperrors.NewAppError(ErrDecryptTemplate,
				fmt.Sprintf("объект %s.%s имеет неподдерживаемый тип %q", obj.Schema, obj.Name, obj.Type), nil)
		}
		base = fmt.Sprintf(tmpl, quoteTwoPart(obj.Schema, obj.Name))
	}

	baseBytes, err := enc.EncodeString(base)
	if err != nil {
		return "", nil, err
	}

	padding := secretLen - len(baseBytes)
	if padding < 0 {
		return "", nil, apperrors.NewAppError(ErrDecryptTemplate,
			fmt.Sprintf("секрет объекта %s.%s короче минимального шаблона: %d < %d байт",
				obj.Schema, obj.Name, secretLen, len(baseBytes)), nil)
	}

	// Пробел занимает один байт и в ascii, и в utf8 — дополнение ведущими
	// пробелами даёт точное равенство байтовых длин без повторного подбора
	padded := strings.Repeat(" ", padding) + base
	paddedBytes, err := enc.EncodeString(padded)
	if err != nil {
		return "", nil, err
	}

	return padded, paddedBytes, nil
}
