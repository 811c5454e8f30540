package mssql

import "fmt"

// StaticTableReader создаёт TableReader над заранее подготовленными строками.
// Используется в mock-реализациях и тестах вместо реального курсора.
func StaticTableReader(columns []string, rows [][]any) *TableReader {
	return &TableReader{
		rows:    &staticScanner{rows: rows},
		columns: columns,
	}
}

// staticScanner реализует rowScanner поверх слайса строк.
type staticScanner struct {
	rows [][]any
	idx  int
	cur  []any
}

func (s *staticScanner) Next() bool {
	if s.idx >= len(s.rows) {
		return false
	}
	s.cur = s.rows[s.idx]
	s.idx++
	return true
}

func (s *staticScanner) Scan(dest ...any) error {
	if len(dest) != len(s.cur) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(s.cur), len(dest))
	}
	for i := range dest {
		ptr, ok := dest[i].(*any)
		if !ok {
			return fmt.Errorf("scan: destination %d is not *any", i)
		}
		*ptr = s.cur[i]
	}
	return nil
}

func (s *staticScanner) Err() error { return nil }
