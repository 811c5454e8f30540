package decrypt

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/pkg/apperrors"
	"github.com/Kargones/dbakit/internal/pkg/logging"
)

// Result — результат восстановления текста одного объекта.
// Неуспешные объекты несут Err и пустой Script: пакетная обработка
// не прерывается на первом сбое.
type Result struct {
	// Object — объект, для которого выполнялось восстановление
	Object mssql.EncryptedObject
	// Script — восстановленный исходный текст (пустой при ошибке)
	Script string
	// Err — причина сбоя для этого объекта (nil при успехе)
	Err error
}

// Service выполняет пакетное восстановление текста зашифрованных объектов.
type Service struct {
	catalog  mssql.ObjectCatalog
	encoding Encoding
	log      logging.Logger
}

// NewService создаёт Service поверх каталога MSSQL.
// Подключение каталога должно быть установлено через DAC: sys.sysobjvalues
// недоступна обычным сессиям.
func NewService(catalog mssql.ObjectCatalog, encoding Encoding, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		catalog:  catalog,
		encoding: encoding,
		log:      log,
	}
}

// DecryptObjects восстанавливает текст зашифрованных объектов базы данных.
// objectNames фильтрует объекты по имени ("name" или "schema.name");
// пустой список — все зашифрованные объекты базы.
//
// Сбой одного объекта (нет привилегий, объект исчез, ошибка транзакции)
// не прерывает обработку остальных: объект получает Result с Err,
// обработка продолжается со следующего.
func (s *Service) DecryptObjects(ctx context.Context, database string, objectNames []string) ([]Result, error) {
	objects, err := s.catalog.ListEncryptedObjects(ctx, database)
	if err != nil {
		return nil, apperrors.NewAppError(ErrDecryptSecret,
			fmt.Sprintf("не удалось получить список зашифрованных объектов базы %s", database), err)
	}

	if len(objectNames) > 0 {
		objects = filterByName(objects, objectNames)
	}

	results := make([]Result, 0, len(objects))
	for _, obj := range objects {
		script, err := s.decryptOne(ctx, obj)
		if err != nil {
			s.log.Warn("Не удалось восстановить текст объекта",
				"database", obj.Database,
				"object", obj.Schema+"."+obj.Name,
				"type", obj.Type,
				"error", err.Error(),
			)
			results = append(results, Result{Object: obj, Err: err})
			continue
		}

		s.log.Info("Текст объекта восстановлен",
			"database", obj.Database,
			"object", obj.Schema+"."+obj.Name,
			"length", len(script),
		)
		results = append(results, Result{Object: obj, Script: script})
	}

	return results, nil
}

// decryptOne восстанавливает текст одного объекта.
func (s *Service) decryptOne(ctx context.Context, obj mssql.EncryptedObject) (string, error) {
	secret, err := s.catalog.GetEncryptedValue(ctx, obj.Database, obj.ObjectID)
	if err != nil {
		return "", apperrors.NewAppError(ErrDecryptSecret,
			fmt.Sprintf("чтение зашифрованного образа %s.%s", obj.Schema, obj.Name), err)
	}
	if len(secret) == 0 {
		return "", apperrors.NewAppError(ErrDecryptSecret,
			fmt.Sprintf("пустой зашифрованный образ %s.%s", obj.Schema, obj.Name), nil)
	}

	knownPlainSQL, knownPlain, err := BuildKnownPlain(obj, len(secret), s.encoding)
	if err != nil {
		return "", err
	}

	knownSecret, err := s.catalog.FetchKnownSecret(ctx, obj.Database, obj.ObjectID, knownPlainSQL)
	if err != nil {
		return "", apperrors.NewAppError(ErrDecryptKnownSecret,
			fmt.Sprintf("подстановка known plaintext для %s.%s", obj.Schema, obj.Name), err)
	}

	recovered, err := RecoverPlaintext(secret, knownPlain, knownSecret)
	if err != nil {
		return "", err
	}

	return s.encoding.DecodeBytes(recovered)
}

// filterByName оставляет объекты, имя которых ("name" или "schema.name")
// входит в запрошенный список. Сравнение без учёта регистра:
// имена объектов SQL Server по умолчанию case-insensitive.
func filterByName(objects []mssql.EncryptedObject, names []string) []mssql.EncryptedObject {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	var filtered []mssql.EncryptedObject
	for _, obj := range objects {
		short := strings.ToLower(obj.Name)
		full := strings.ToLower(obj.Schema + "." + obj.Name)
		if wanted[short] || wanted[full] {
			filtered = append(filtered, obj)
		}
	}
	return filtered
}
