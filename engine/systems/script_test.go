package systems

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/core"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newScripts(t *testing.T, out io.Writer) *ScriptSystem {
	t.Helper()
	return NewScriptSystem(ScriptSystemConfig{MaxDepth: 4, Output: out})
}

func TestScriptSystemEchoAndSet(t *testing.T) {
	var out bytes.Buffer
	s := newScripts(t, &out)

	src := "echo hello 42 1.5 \"quoted words\"\nset gravity -9.81\nset player_name a_very_long_name\n"
	if _, err := s.Load("boot", ccmd.Compile([]byte(src))); err != nil {
		t.Fatal(err)
	}
	if err := s.Execute("boot"); err != nil {
		t.Fatal(err)
	}

	if got := out.String(); got != "hello 42 1.5 quoted words\n" {
		t.Errorf("echo wrote %q", got)
	}
	if v, ok := s.Cvar("gravity"); !ok || v != "-9.81" {
		t.Errorf("gravity = %q", v)
	}
	if v, _ := s.Cvar("player_name"); v != "a_very_long_name" {
		t.Errorf("player_name = %q", v)
	}
}

func TestScriptSystemRegister(t *testing.T) {
	s := newScripts(t, io.Discard)

	var spawned []string
	spawn := func(vm *ccmd.Vm, ctx any) uint32 {
		var what string
		if !ccmd.Argv(vm, 0, &what) {
			return 1
		}
		spawned = append(spawned, what)
		return 0
	}
	if err := s.Register("spawn", spawn, nil); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"spawn", "echo", "exec"} {
		if err := s.Register(name, spawn, nil); !errors.Is(err, core.ErrCommandExists) {
			t.Errorf("duplicate %q: expected ErrCommandExists, got %v", name, err)
		}
	}
	if err := s.Register("nil", nil, nil); err == nil {
		t.Error("nil function registered")
	}

	if err := s.ExecuteSource("inline", "spawn orc\nspawn goblin\n"); err != nil {
		t.Fatal(err)
	}
	if strings.Join(spawned, ",") != "orc,goblin" {
		t.Errorf("spawned %v", spawned)
	}

	if !s.Unregister("spawn") || s.Unregister("spawn") {
		t.Error("unregister")
	}
	err := s.ExecuteSource("inline", "spawn troll\n")
	if !errors.Is(err, ccmd.ErrUnresolvedCommand) {
		t.Fatalf("expected ErrUnresolvedCommand, got %v", err)
	}
	var serr *ScriptError
	if !errors.As(err, &serr) || serr.Command != "spawn" {
		t.Errorf("unexpected error detail %v", err)
	}
}

func TestScriptSystemFailureDetails(t *testing.T) {
	s := newScripts(t, io.Discard)

	err := s.ExecuteSource("broken", "set only_one\n")
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ScriptError, got %v", err)
	}
	if serr.Code != ccmd.ErrFunctionFail || serr.Command != "set" || serr.ExitCode != ExitUsage {
		t.Errorf("unexpected detail %+v", serr)
	}
	if !strings.Contains(serr.Error(), "usage: set") {
		t.Errorf("message missing from %q", serr.Error())
	}
	if !errors.Is(err, ccmd.ErrFunctionFail) {
		t.Error("ScriptError does not unwrap to its code")
	}
}

func TestScriptSystemWildcard(t *testing.T) {
	s := newScripts(t, io.Discard)

	var unknown []string
	err := s.Register("", func(vm *ccmd.Vm, ctx any) uint32 {
		unknown = append(unknown, vm.CommandName())
		return 0
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ExecuteSource("w", "echo known\nfoo\nbar 1\n"); err != nil {
		t.Fatal(err)
	}
	if strings.Join(unknown, ",") != "foo,bar" {
		t.Errorf("wildcard saw %v", unknown)
	}
}

func TestScriptSystemExec(t *testing.T) {
	var out bytes.Buffer
	s := newScripts(t, &out)

	if _, err := s.Load("inner", ccmd.Compile([]byte("echo inner\n"))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("outer", ccmd.Compile([]byte("echo outer\nexec inner\necho done\n"))); err != nil {
		t.Fatal(err)
	}
	if err := s.Execute("outer"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "outer\ninner\ndone\n" {
		t.Errorf("output %q", out.String())
	}

	if err := s.Execute("nope"); !errors.Is(err, core.ErrScriptNotFound) {
		t.Errorf("expected ErrScriptNotFound, got %v", err)
	}
}

func TestScriptSystemExecDepth(t *testing.T) {
	s := newScripts(t, io.Discard)

	if _, err := s.Load("loop", ccmd.Compile([]byte("exec loop\n"))); err != nil {
		t.Fatal(err)
	}
	err := s.Execute("loop")
	if !errors.Is(err, ccmd.ErrFunctionFail) {
		t.Fatalf("expected ErrFunctionFail, got %v", err)
	}
	if !strings.Contains(err.Error(), core.ErrScriptDepth.Error()) {
		t.Errorf("depth error not reported: %v", err)
	}
}

func TestScriptSystemLoadRejectsBadBytecode(t *testing.T) {
	s := newScripts(t, io.Discard)

	blob := ccmd.Compile([]byte("echo hi\n"))
	blob[0] ^= 0xff
	if _, err := s.Load("bad", blob); !errors.Is(err, ccmd.ErrBytecodeVersionMismatch) {
		t.Errorf("expected version mismatch, got %v", err)
	}

	script, err := s.Load("good", ccmd.Compile([]byte("echo hi\n")))
	if err != nil || script.ID == "" {
		t.Fatalf("load: %v", err)
	}
	again, _ := s.Load("good", ccmd.Compile([]byte("echo again\n")))
	if again.ID == script.ID {
		t.Error("reload kept the old id")
	}
	if got := s.Scripts(); len(got) != 1 || got[0] != "good" {
		t.Errorf("scripts %v", got)
	}
	if !s.Unload("good") || s.Unload("good") {
		t.Error("unload")
	}
}
