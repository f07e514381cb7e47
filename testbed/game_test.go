package testbed

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newEngine(t *testing.T) (*TestGame, *engine.Engine) {
	t.Helper()
	tg, err := NewTestGame(&engine.ApplicationConfig{
		LogLevel:  core.ErrorLevel,
		AssetsDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(tg.Game)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Shutdown() })
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	return tg, e
}

func TestSpawnAndCamera(t *testing.T) {
	tg, e := newEngine(t)
	console := e.SystemManager().Console

	for _, line := range []string{"spawn orc", "spawn goblin 1 2.5 -3", "camera 0 10 -20"} {
		if err := console.Execute(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}

	want := []Entity{
		{Kind: "orc"},
		{Kind: "goblin", Position: math.NewVec3(1, 2.5, -3)},
	}
	got := tg.Entities()
	if len(got) != len(want) {
		t.Fatalf("entities %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entity %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if tg.Camera() != math.NewVec3(0, 10, -20) {
		t.Errorf("camera %+v", tg.Camera())
	}
}

func TestCommandUsage(t *testing.T) {
	_, e := newEngine(t)
	console := e.SystemManager().Console

	for _, line := range []string{"spawn", "spawn orc 1 2", "spawn orc x y z", "camera 1 2", "camera up 0 0"} {
		if err := console.Execute(line); !errors.Is(err, ccmd.ErrFunctionFail) {
			t.Errorf("%q: expected ErrFunctionFail, got %v", line, err)
		}
	}
}

func TestNewTestGameRequiresConfig(t *testing.T) {
	if _, err := NewTestGame(nil); err == nil {
		t.Error("nil config accepted")
	}
}
