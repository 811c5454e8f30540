package metrics

import "errors"

// Ошибки валидации конфигурации метрик.
var (
	// ErrPushgatewayURLRequired — метрики включены, но URL Pushgateway не задан.
	ErrPushgatewayURLRequired = errors.New("при включённых метриках требуется URL Pushgateway")

	// ErrPushgatewayURLInvalid — URL Pushgateway не является валидным http(s) URL.
	ErrPushgatewayURLInvalid = errors.New("невалидный формат URL Pushgateway")

	// ErrJobNameRequired — не задано имя job для группировки метрик.
	ErrJobNameRequired = errors.New("требуется имя job")

	// ErrInvalidTimeout — таймаут должен быть положительным.
	ErrInvalidTimeout = errors.New("таймаут должен быть положительным")
)
