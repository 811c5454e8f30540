package rowcount

import (
	"math"
	"math/rand"
	"testing"
)

// TestCounter_Advance проверяет расчёт инкремента для типовых сценариев.
func TestCounter_Advance(t *testing.T) {
	tests := []struct {
		name         string
		prevReported int64
		reported     int64
		wantDelta    int64
	}{
		{
			name:         "первый вызов - инкремент равен сырому значению",
			prevReported: 0,
			reported:     42,
			wantDelta:    42,
		},
		{
			name:         "обычный прирост без переполнения",
			prevReported: 1000,
			reported:     1500,
			wantDelta:    500,
		},
		{
			name:         "повтор того же значения - нулевой инкремент",
			prevReported: 1000,
			reported:     1000,
			wantDelta:    0,
		},
		{
			name:         "переполнение 32-битного счётчика",
			prevReported: math.MaxInt32 - 10,
			reported:     50,
			wantDelta:    60,
		},
		{
			name:         "переполнение ровно на границе",
			prevReported: math.MaxInt32,
			reported:     1,
			wantDelta:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCounter()
			c.prevReported = tt.prevReported

			delta := c.Advance(tt.reported)
			if delta != tt.wantDelta {
				t.Errorf("Advance(%d) = %d, want %d", tt.reported, delta, tt.wantDelta)
			}
			if c.PrevReported() != tt.reported {
				t.Errorf("PrevReported() = %d, want %d", c.PrevReported(), tt.reported)
			}
		})
	}
}

// TestCounter_Accumulation проверяет накопление итога через серию вызовов
// с переполнением посередине.
func TestCounter_Accumulation(t *testing.T) {
	c := NewCounter()

	c.Advance(1000)
	c.Advance(math.MaxInt32 - 5)
	// Переполнение: счётчик обнулился и дошёл до 100
	c.Advance(100)
	c.Advance(200)

	want := int64(math.MaxInt32-5) + 5 + 100 + 100
	if c.Total() != want {
		t.Errorf("Total() = %d, want %d", c.Total(), want)
	}
}

// TestCounter_Monotonicity проверяет что итог не убывает и инкременты
// не отрицательны для случайных последовательностей с переполнениями.
func TestCounter_Monotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 10; run++ {
		c := NewCounter()
		reported := int64(0)
		lastTotal := int64(0)

		for i := 0; i < 1000; i++ {
			reported += rng.Int63n(1 << 20)
			// Эмулируем 32-битное переполнение источника
			wrapped := reported % math.MaxInt32

			delta := c.Advance(wrapped)
			if delta < 0 {
				t.Fatalf("Advance(%d) вернул отрицательный инкремент %d", wrapped, delta)
			}
			if c.Total() < lastTotal {
				t.Fatalf("Total() убыл: %d -> %d", lastTotal, c.Total())
			}
			lastTotal = c.Total()
		}
	}
}

// TestCounter_Reset проверяет сброс состояния между таблицами.
func TestCounter_Reset(t *testing.T) {
	c := NewCounter()
	c.Advance(500)
	c.Reset()

	if c.Total() != 0 || c.PrevReported() != 0 {
		t.Errorf("после Reset: Total()=%d, PrevReported()=%d, want 0, 0", c.Total(), c.PrevReported())
	}

	// Первый вызов после сброса не трактуется как переполнение
	if delta := c.Advance(42); delta != 42 {
		t.Errorf("Advance(42) после Reset = %d, want 42", delta)
	}
}
