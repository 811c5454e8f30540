package decrypt

import (
	"strings"
	"testing"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
)

// TestBuildKnownPlain проверяет построение подстановки для всех типов объектов
func TestBuildKnownPlain(t *testing.T) {
	tests := []struct {
		name     string
		obj      mssql.EncryptedObject
		contains []string
		wantErr  bool
	}{
		{
			name:     "хранимая процедура",
			obj:      mssql.EncryptedObject{Schema: "dbo", Name: "usp_Secret", Type: "P"},
			contains: []string{"ALTER PROCEDURE [dbo].[usp_Secret]", "WITH ENCRYPTION", "RETURN 0"},
		},
		{
			name:     "представление",
			obj:      mssql.EncryptedObject{Schema: "dbo", Name: "v_Hidden", Type: "V"},
			contains: []string{"ALTER VIEW [dbo].[v_Hidden]", "WITH ENCRYPTION", "SELECT 0"},
		},
		{
			name:     "скалярная функция",
			obj:      mssql.EncryptedObject{Schema: "dbo", Name: "fn_Calc", Type: "FN"},
			contains: []string{"ALTER FUNCTION [dbo].[fn_Calc]()", "RETURNS INT", "WITH ENCRYPTION"},
		},
		{
			name:     "inline табличная функция",
			obj:      mssql.EncryptedObject{Schema: "dbo", Name: "fn_List", Type: "IF"},
			contains: []string{"ALTER FUNCTION [dbo].[fn_List]()", "RETURNS TABLE", "WITH ENCRYPTION"},
		},
		{
			name:     "multi-statement табличная функция",
			obj:      mssql.EncryptedObject{Schema: "dbo", Name: "fn_Rows", Type: "TF"},
			contains: []string{"ALTER FUNCTION [dbo].[fn_Rows]()", "RETURNS @Filler TABLE", "WITH ENCRYPTION"},
		},
		{
			name: "триггер с родительской таблицей",
			obj: mssql.EncryptedObject{
				Schema: "dbo", Name: "trg_Audit", Type: "TR",
				ParentSchema: "dbo", ParentName: "Orders",
			},
			contains: []string{"ALTER TRIGGER [dbo].[trg_Audit] ON [dbo].[Orders]", "WITH ENCRYPTION", "FOR UPDATE"},
		},
		{
			name:    "триггер без родительской таблицы - ошибка",
			obj:     mssql.EncryptedObject{Schema: "dbo", Name: "trg_Bad", Type: "TR"},
			wantErr: true,
		},
		{
			name:    "неподдерживаемый тип объекта - ошибка",
			obj:     mssql.EncryptedObject{Schema: "dbo", Name: "x", Type: "SQ"},
			wantErr: true,
		},
	}

	const secretLen = 4096

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, encoded, err := BuildKnownPlain(tt.obj, secretLen, EncodingASCII)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildKnownPlain() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			// Точное равенство байтовой длины — обязательное условие схемы
			if len(encoded) != secretLen {
				t.Errorf("len(encoded) = %d, want %d", len(encoded), secretLen)
			}

			for _, want := range tt.contains {
				if !strings.Contains(script, want) {
					t.Errorf("скрипт не содержит %q:\n%s", want, strings.TrimLeft(script, " "))
				}
			}

			// Дополнение — только ведущие пробелы
			if trimmed := strings.TrimLeft(script, " "); !strings.HasPrefix(trimmed, "ALTER ") {
				t.Errorf("после ведущих пробелов ожидается ALTER, получено: %q", trimmed[:20])
			}
		})
	}
}

// TestBuildKnownPlain_SecretTooShort проверяет ошибку когда секрет короче
// минимального шаблона.
func TestBuildKnownPlain_SecretTooShort(t *testing.T) {
	obj := mssql.EncryptedObject{Schema: "dbo", Name: "usp_X", Type: "P"}

	_, _, err := BuildKnownPlain(obj, 10, EncodingASCII)
	if err == nil {
		t.Fatal("BuildKnownPlain() должен вернуть ошибку для слишком короткого секрета")
	}
}

// TestBuildKnownPlain_ExactLength проверяет нулевое дополнение при точном совпадении
func TestBuildKnownPlain_ExactLength(t *testing.T) {
	obj := mssql.EncryptedObject{Schema: "dbo", Name: "p", Type: "P"}

	base, err := EncodingASCII.EncodeString("ALTER PROCEDURE [dbo].[p] WITH ENCRYPTION AS RETURN 0;")
	if err != nil {
		t.Fatalf("EncodeString() error = %v", err)
	}

	script, encoded, err := BuildKnownPlain(obj, len(base), EncodingASCII)
	if err != nil {
		t.Fatalf("BuildKnownPlain() error = %v", err)
	}
	if len(encoded) != len(base) {
		t.Errorf("len(encoded) = %d, want %d", len(encoded), len(base))
	}
	if strings.HasPrefix(script, " ") {
		t.Error("дополнение не требуется при точном совпадении длины")
	}
}

// TestEncoding_UnknownEncoding проверяет ошибку для неизвестной кодировки
func TestEncoding_UnknownEncoding(t *testing.T) {
	if _, err := Encoding("utf32").EncodeString("x"); err == nil {
		t.Error("EncodeString() должен вернуть ошибку для неизвестной кодировки")
	}
	if _, err := Encoding("utf32").DecodeBytes([]byte("x")); err == nil {
		t.Error("DecodeBytes() должен вернуть ошибку для неизвестной кодировки")
	}
}

// TestEncoding_RoundTrip проверяет кодирование/декодирование ascii и utf8
func TestEncoding_RoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingASCII, EncodingUTF8} {
		text := "SELECT 'plain ascii text';"
		b, err := enc.EncodeString(text)
		if err != nil {
			t.Fatalf("EncodeString(%s) error = %v", enc, err)
		}
		back, err := enc.DecodeBytes(b)
		if err != nil {
			t.Fatalf("DecodeBytes(%s) error = %v", enc, err)
		}
		if back != text {
			t.Errorf("round-trip %s: %q -> %q", enc, text, back)
		}
	}
}
