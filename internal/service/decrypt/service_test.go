package decrypt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/adapter/mssql/mssqltest"
	"github.com/Kargones/dbakit/internal/pkg/logging"
)

// fakeServer моделирует серверную сторону схемы шифрования: один ключевой
// поток на объект, XOR по позициям. Реальный текст хранится в 16-битных
// кодовых единицах (значащий байт на чётных позициях).
type fakeServer struct {
	keystreams map[int][]byte
	plaintexts map[int]string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		keystreams: make(map[int][]byte),
		plaintexts: make(map[int]string),
	}
}

// addObject регистрирует объект с заданным исходным текстом.
func (f *fakeServer) addObject(objectID int, plaintext string) {
	ks := make([]byte, len(plaintext)*2)
	for i := range ks {
		ks[i] = byte((objectID*31 + i*17) % 256)
	}
	f.keystreams[objectID] = ks
	f.plaintexts[objectID] = plaintext
}

// secret возвращает зашифрованный образ реального объекта.
func (f *fakeServer) secret(objectID int) []byte {
	plaintext := f.plaintexts[objectID]
	ks := f.keystreams[objectID]
	out := make([]byte, len(ks))
	for i := range out {
		var b byte
		if i%2 == 0 {
			b = plaintext[i/2]
		}
		out[i] = b ^ ks[i]
	}
	return out
}

// knownSecret возвращает зашифрованный образ подстановки: тот же ключевой
// поток, что и у реального объекта (свойство схемы для текстов равной длины).
func (f *fakeServer) knownSecret(objectID int, alterSQL string) []byte {
	ks := f.keystreams[objectID]
	out := make([]byte, len(alterSQL))
	for i := range out {
		out[i] = alterSQL[i] ^ ks[i]
	}
	return out
}

// TestService_DecryptObjects_EndToEnd проверяет полный цикл восстановления
// через мок каталога с смоделированным шифром.
func TestService_DecryptObjects_EndToEnd(t *testing.T) {
	const plaintext = "CREATE PROCEDURE dbo.usp_Secret WITH ENCRYPTION AS BEGIN SELECT TOP 1 Name FROM dbo.Accounts END"

	server := newFakeServer()
	server.addObject(101, plaintext)

	mock := mssqltest.NewMockMSSQLClient()
	mock.ListEncryptedObjectsFunc = func(ctx context.Context, database string) ([]mssql.EncryptedObject, error) {
		return []mssql.EncryptedObject{
			{Database: database, Schema: "dbo", Name: "usp_Secret", Type: "P", ObjectID: 101},
		}, nil
	}
	mock.GetEncryptedValueFunc = func(ctx context.Context, database string, objectID int) ([]byte, error) {
		return server.secret(objectID), nil
	}
	mock.FetchKnownSecretFunc = func(ctx context.Context, database string, objectID int, alterSQL string) ([]byte, error) {
		return server.knownSecret(objectID, alterSQL), nil
	}

	svc := NewService(mock, EncodingASCII, logging.NewNopLogger())
	results, err := svc.DecryptObjects(context.Background(), "appdb", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, results[0].Err)
	assert.Equal(t, plaintext, results[0].Script)
}

// TestService_DecryptObjects_PartialFailure проверяет изоляцию сбоев:
// ошибка одного объекта не прерывает обработку остальных.
func TestService_DecryptObjects_PartialFailure(t *testing.T) {
	const textA = "CREATE PROCEDURE dbo.usp_First WITH ENCRYPTION AS BEGIN SELECT 1 AS Result FROM sys.objects END"
	const textC = "CREATE PROCEDURE dbo.usp_Third WITH ENCRYPTION AS BEGIN SELECT 3 AS Result FROM sys.objects END"

	server := newFakeServer()
	server.addObject(1, textA)
	server.addObject(3, textC)

	mock := mssqltest.NewMockMSSQLClient()
	mock.ListEncryptedObjectsFunc = func(ctx context.Context, database string) ([]mssql.EncryptedObject, error) {
		return []mssql.EncryptedObject{
			{Database: database, Schema: "dbo", Name: "usp_First", Type: "P", ObjectID: 1},
			{Database: database, Schema: "dbo", Name: "usp_Second", Type: "P", ObjectID: 2},
			{Database: database, Schema: "dbo", Name: "usp_Third", Type: "P", ObjectID: 3},
		}, nil
	}
	mock.GetEncryptedValueFunc = func(ctx context.Context, database string, objectID int) ([]byte, error) {
		if objectID == 2 {
			return nil, errors.New("SELECT permission denied on sys.sysobjvalues")
		}
		return server.secret(objectID), nil
	}
	mock.FetchKnownSecretFunc = func(ctx context.Context, database string, objectID int, alterSQL string) ([]byte, error) {
		return server.knownSecret(objectID, alterSQL), nil
	}

	svc := NewService(mock, EncodingASCII, nil)
	results, err := svc.DecryptObjects(context.Background(), "appdb", nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, textA, results[0].Script)

	// Сбойный объект атрибутирован, но не прервал обработку
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "usp_Second")
	assert.Empty(t, results[1].Script)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, textC, results[2].Script)
}

// TestService_DecryptObjects_FilterByName проверяет фильтрацию по именам
func TestService_DecryptObjects_FilterByName(t *testing.T) {
	mock := mssqltest.NewMockMSSQLClient()
	mock.ListEncryptedObjectsFunc = func(ctx context.Context, database string) ([]mssql.EncryptedObject, error) {
		return []mssql.EncryptedObject{
			{Database: database, Schema: "dbo", Name: "usp_One", Type: "P", ObjectID: 1},
			{Database: database, Schema: "audit", Name: "usp_Two", Type: "P", ObjectID: 2},
			{Database: database, Schema: "dbo", Name: "usp_Three", Type: "P", ObjectID: 3},
		}, nil
	}

	var requested []int
	mock.GetEncryptedValueFunc = func(ctx context.Context, database string, objectID int) ([]byte, error) {
		requested = append(requested, objectID)
		return nil, errors.New("not relevant for this test")
	}

	svc := NewService(mock, EncodingASCII, nil)

	// Фильтр: короткое имя и schema-qualified в разном регистре
	results, err := svc.DecryptObjects(context.Background(), "appdb", []string{"USP_ONE", "audit.usp_two"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []int{1, 2}, requested)
}

// TestService_DecryptObjects_ListError проверяет ошибку получения списка объектов
func TestService_DecryptObjects_ListError(t *testing.T) {
	mock := mssqltest.NewMockMSSQLClient()
	mock.ListEncryptedObjectsFunc = func(ctx context.Context, database string) ([]mssql.EncryptedObject, error) {
		return nil, errors.New("database unavailable")
	}

	svc := NewService(mock, EncodingASCII, nil)
	_, err := svc.DecryptObjects(context.Background(), "appdb", nil)
	require.Error(t, err)
}

// TestService_DecryptObjects_EmptySecret проверяет обработку пустого образа
func TestService_DecryptObjects_EmptySecret(t *testing.T) {
	mock := mssqltest.NewMockMSSQLClient()
	mock.ListEncryptedObjectsFunc = func(ctx context.Context, database string) ([]mssql.EncryptedObject, error) {
		return []mssql.EncryptedObject{
			{Database: database, Schema: "dbo", Name: "usp_Empty", Type: "P", ObjectID: 9},
		}, nil
	}
	// GetEncryptedValueFunc по умолчанию возвращает пустой blob

	svc := NewService(mock, EncodingASCII, nil)
	results, err := svc.DecryptObjects(context.Background(), "appdb", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
