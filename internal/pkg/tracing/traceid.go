// Package tracing предоставляет генерацию trace ID и его передачу через
// context для корреляции логов одного запуска команды.
//
// Формат trace ID — 32 hex-символа (16 байт), совместим с W3C Trace
// Context и используется как OTel trace ID корневого span-а.
package tracing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var fallbackCounter atomic.Uint64

// GenerateTraceID возвращает уникальный trace ID: 32 hex-символа.
//
// Источник случайности — crypto/rand. Если чтение из него не удалось,
// возвращается fallback на основе timestamp и atomic-счётчика; формат
// и длина результата при этом не меняются.
func GenerateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

// fallbackTraceID собирает ID из наносекундного timestamp и счётчика.
// %016x для обоих uint64 даёт ровно 32 символа.
func fallbackTraceID() string {
	timestamp := uint64(time.Now().UnixNano())
	return fmt.Sprintf("%016x%016x", timestamp, fallbackCounter.Add(1))
}
