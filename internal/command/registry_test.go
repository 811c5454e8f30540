package command

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kargones/dbakit/internal/config"
)

// mockHandler — тестовый обработчик команды.
type mockHandler struct {
	name string
}

func (m *mockHandler) Name() string        { return m.name }
func (m *mockHandler) Description() string { return "mock: " + m.name }
func (m *mockHandler) Execute(_ context.Context, _ *config.Config) error {
	return nil
}

func TestRegister_Success(t *testing.T) {
	clearRegistry()

	h := &mockHandler{name: "decrypt-object"}
	Register(h)

	got, ok := Get("decrypt-object")
	assert.True(t, ok, "команда должна быть найдена в реестре")
	assert.Equal(t, h, got, "должен вернуться тот же handler")
}

func TestRegister_Duplicate_Panics(t *testing.T) {
	clearRegistry()

	Register(&mockHandler{name: "copy-table-data"})

	assert.PanicsWithValue(t, "command: duplicate handler registration for copy-table-data", func() {
		Register(&mockHandler{name: "copy-table-data"})
	}, "повторная регистрация должна вызвать panic")
}

func TestRegister_NilHandler_Panics(t *testing.T) {
	clearRegistry()

	assert.PanicsWithValue(t, "command: nil handler", func() {
		Register(nil)
	}, "nil handler должен вызвать panic")
}

func TestRegister_EmptyName_Panics(t *testing.T) {
	clearRegistry()

	assert.PanicsWithValue(t, "command: empty handler name", func() {
		Register(&mockHandler{name: ""})
	}, "пустое имя должно вызвать panic")
}

func TestRegister_NameFormat(t *testing.T) {
	tests := []struct {
		name    string
		cmdName string
		valid   bool
	}{
		{"простое имя", "help", true},
		{"kebab-case", "move-db-file", true},
		{"с цифрами", "restore2db", true},
		{"верхний регистр", "Index-Info", false},
		{"подчёркивание", "new_login", false},
		{"начинается с цифры", "1copy", false},
		{"начинается с дефиса", "-copy", false},
		{"завершающий дефис", "copy-", false},
		{"двойной дефис", "copy--table", false},
		{"пробел", "copy table", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRegistry()
			h := &mockHandler{name: tt.cmdName}
			if tt.valid {
				assert.NotPanics(t, func() { Register(h) })
				_, ok := Get(tt.cmdName)
				assert.True(t, ok)
			} else {
				assert.Panics(t, func() { Register(h) },
					"имя %q должно быть отклонено", tt.cmdName)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	clearRegistry()

	got, ok := Get("no-such-command")
	assert.False(t, ok, "несуществующая команда должна вернуть false")
	assert.Nil(t, got, "несуществующая команда должна вернуть nil")
}

func TestAll_ReturnsCopy(t *testing.T) {
	clearRegistry()

	Register(&mockHandler{name: "index-info"})

	all := All()
	assert.Len(t, all, 1)

	// Мутация копии не должна затрагивать реестр
	delete(all, "index-info")
	_, ok := Get("index-info")
	assert.True(t, ok, "реестр не должен измениться после мутации копии")
}

func TestNames_Sorted(t *testing.T) {
	clearRegistry()

	Register(&mockHandler{name: "new-login"})
	Register(&mockHandler{name: "copy-table-data"})
	Register(&mockHandler{name: "help"})

	assert.Equal(t, []string{"copy-table-data", "help", "new-login"}, Names())
}

func TestRegisterWithAlias(t *testing.T) {
	clearRegistry()

	h := &mockHandler{name: "move-db-file"}
	RegisterWithAlias(h, "move-database-file")

	// Основное имя — сам handler
	got, ok := Get("move-db-file")
	assert.True(t, ok)
	assert.Equal(t, h, got)

	// Алиас — bridge, делегирующий actual handler
	aliased, ok := Get("move-database-file")
	assert.True(t, ok)
	bridge, isBridge := aliased.(*DeprecatedBridge)
	assert.True(t, isBridge, "алиас должен быть зарегистрирован через DeprecatedBridge")
	assert.Equal(t, "move-db-file", bridge.NewName())
}

func TestRegisterWithAlias_EmptyAlias(t *testing.T) {
	clearRegistry()

	RegisterWithAlias(&mockHandler{name: "publish-dacpac"}, "")

	_, ok := Get("publish-dacpac")
	assert.True(t, ok)
	assert.Len(t, All(), 1, "пустой алиас не должен создавать bridge")
}

func TestRegisterWithAlias_SameName_Panics(t *testing.T) {
	clearRegistry()

	assert.Panics(t, func() {
		RegisterWithAlias(&mockHandler{name: "new-alert"}, "new-alert")
	}, "алиас, совпадающий с основным именем, должен вызвать panic")
}

func TestRegisterWithAlias_DuplicateAlias_Panics(t *testing.T) {
	clearRegistry()

	RegisterWithAlias(&mockHandler{name: "move-db-file"}, "move-database-file")

	assert.Panics(t, func() {
		RegisterWithAlias(&mockHandler{name: "move-db-file2"}, "move-database-file")
	}, "повторная регистрация алиаса должна вызвать panic")
}

func TestListAllWithAliases(t *testing.T) {
	clearRegistry()

	RegisterWithAlias(&mockHandler{name: "move-db-file"}, "move-database-file")
	Register(&mockHandler{name: "decrypt-object"})

	infos := ListAllWithAliases()
	assert.Equal(t, []Info{
		{Name: "decrypt-object"},
		{Name: "move-db-file", DeprecatedAlias: "move-database-file"},
	}, infos, "bridges не включаются отдельными записями, алиас — в поле основной команды")
}

func TestConcurrentAccess(t *testing.T) {
	clearRegistry()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n * 2)

	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			Register(&mockHandler{name: fmt.Sprintf("cmd-%d", idx)})
		}(i)
	}
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			Get(fmt.Sprintf("cmd-%d", idx))
		}(i)
	}

	wg.Wait()

	for i := 0; i < n; i++ {
		_, ok := Get(fmt.Sprintf("cmd-%d", i))
		assert.True(t, ok, "команда cmd-%d должна быть зарегистрирована", i)
	}
}
