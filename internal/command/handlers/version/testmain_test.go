package version

import (
	"context"
	"os"
	"testing"

	"github.com/Kargones/dbakit/internal/command"
	"github.com/Kargones/dbakit/internal/config"
)

type fakeHandler struct{ name string }

func (h *fakeHandler) Name() string                                      { return h.name }
func (h *fakeHandler) Description() string                               { return "fake" }
func (h *fakeHandler) Execute(_ context.Context, _ *config.Config) error { return nil }

func TestMain(m *testing.M) {
	RegisterCmd()
	command.RegisterWithAlias(&fakeHandler{name: "fake-test"}, "legacy-fake-test")
	os.Exit(m.Run())
}
