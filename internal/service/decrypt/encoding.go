package decrypt

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/Kargones/dbakit/internal/pkg/apperrors"
)

// Encoding задаёт текстовую кодировку исходного текста объекта.
// Кодировка ОБЯЗАНА совпадать на стороне реального объекта и known plaintext:
// расхождение не даёт ошибку, а молча приводит к мусору на выходе.
type Encoding string

// Поддерживаемые кодировки.
const (
	// EncodingASCII - однобайтовая кодировка. Используется Windows-1252
	// как надмножество ASCII: для 7-битных исходников результат идентичен.
	EncodingASCII Encoding = "ascii"
	// EncodingUTF8 - кодировка UTF-8.
	EncodingUTF8 Encoding = "utf8"
)

// textEncoding возвращает x/text реализацию кодировки.
func (e Encoding) textEncoding() (encoding.Encoding, error) {
	switch e {
	case EncodingASCII, "":
		return charmap.Windows1252, nil
	case EncodingUTF8:
		return unicode.UTF8, nil
	default:
		return nil, apperrors.NewAppError(ErrDecryptEncoding,
			fmt.Sprintf("неизвестная кодировка %q, поддерживаются ascii и utf8", string(e)), nil)
	}
}

// EncodeString кодирует строку в байты в заданной кодировке.
func (e Encoding) EncodeString(s string) ([]byte, error) {
	enc, err := e.textEncoding()
	if err != nil {
		return nil, err
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, apperrors.NewAppError(ErrDecryptEncoding,
			"не удалось закодировать known plaintext", err)
	}
	return b, nil
}

// DecodeBytes декодирует байты восстановленного текста в строку.
func (e Encoding) DecodeBytes(b []byte) (string, error) {
	enc, err := e.textEncoding()
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", apperrors.NewAppError(ErrDecryptEncoding,
			"не удалось декодировать восстановленный текст", err)
	}
	return string(out), nil
}
