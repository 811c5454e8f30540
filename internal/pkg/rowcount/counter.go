// Package rowcount предоставляет коррекцию накопительного счётчика строк
// bulk copy операций. Драйвер сообщает кумулятивное количество скопированных
// строк 32-битным счётчиком, который переполняется после Int32.MaxValue.
// Counter восстанавливает корректный монотонный 64-битный итог.
package rowcount

import "math"

// Counter хранит состояние коррекции счётчика строк.
// Заменяет глобальные переменные callback-замыканий: состояние принадлежит
// исключительно одному стеку вызовов bulk copy, синхронизация не требуется.
type Counter struct {
	// prevReported - последнее сырое значение, полученное от драйвера.
	// Используется для обнаружения переполнения, а не скорректированный итог.
	prevReported int64
	// total - скорректированный 64-битный накопительный итог.
	total int64
}

// NewCounter создаёт Counter с нулевым начальным состоянием.
func NewCounter() *Counter {
	return &Counter{}
}

// Advance принимает очередное кумулятивное значение счётчика строк от
// драйвера и возвращает инкремент, добавленный к итогу.
//
// Правила расчёта инкремента:
//   - reported >= prevReported: обычный прирост внутри одной 32-битной эпохи,
//     инкремент равен reported - prevReported;
//   - reported < prevReported: произошло переполнение — счётчик прошёл
//     Int32.MaxValue, обнулился и продолжил счёт. Инкремент равен
//     (Int32.MaxValue - prevReported) + reported.
//
// Первый вызов (prevReported == 0) попадает в первую ветку и даёт
// инкремент reported, без трактовки как переполнение.
func (c *Counter) Advance(reported int64) int64 {
	var delta int64
	if reported >= c.prevReported {
		delta = reported - c.prevReported
	} else {
		delta = (math.MaxInt32 - c.prevReported) + reported
	}

	c.prevReported = reported
	c.total += delta
	return delta
}

// Total возвращает скорректированный накопительный итог строк.
func (c *Counter) Total() int64 {
	return c.total
}

// PrevReported возвращает последнее сырое значение счётчика драйвера.
func (c *Counter) PrevReported() int64 {
	return c.prevReported
}

// Reset сбрасывает состояние счётчика. Используется при переходе
// к следующей таблице в рамках одной операции копирования.
func (c *Counter) Reset() {
	c.prevReported = 0
	c.total = 0
}
