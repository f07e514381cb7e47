package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/anima/engine/ccmd"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCookDirectory(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	write(t, filepath.Join(src, "autoexec.ccmd"), "echo hi\n")
	write(t, filepath.Join(src, "materials", "stone.amt"), "name stone\nshader s\n")
	write(t, filepath.Join(src, "README.txt"), "not a script")

	if err := run([]string{"-o", out, "-workers", "2", src}, io.Discard, io.Discard); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(filepath.Join(out, "autoexec.ccmdc"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(blob, ccmd.Compile([]byte("echo hi\n"))) {
		t.Error("cooked blob differs from Compile output")
	}
	if _, err := os.Stat(filepath.Join(out, "materials", "stone.ccmdc")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(filepath.Join(out, "README.ccmdc")); !os.IsNotExist(err) {
		t.Error("non-source file was cooked")
	}
}

func TestCookSingleFileNextToSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.ccmd")
	write(t, path, "set a 1\n")

	if err := run([]string{path}, io.Discard, io.Discard); err != nil {
		t.Fatal(err)
	}
	if _, err := ccmd.Decode(mustRead(t, filepath.Join(dir, "boot.ccmdc"))); err != nil {
		t.Error(err)
	}

	named := filepath.Join(dir, "named.bin")
	if err := run([]string{"-o", named, path}, io.Discard, io.Discard); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(named); err != nil {
		t.Error(err)
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.ccmdc")
	if err := os.WriteFile(path, ccmd.Compile([]byte("spawn orc 1 2.5\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run([]string{"-dump", path}, &out, io.Discard); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `0000 spawn "orc" i32:1 f32:2.5`) {
		t.Errorf("unexpected listing:\n%s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(nil, io.Discard, io.Discard); err == nil {
		t.Error("no inputs accepted")
	}
	if err := run([]string{filepath.Join(t.TempDir(), "missing.ccmd")}, io.Discard, io.Discard); err == nil {
		t.Error("missing input accepted")
	}
	if err := run([]string{t.TempDir()}, io.Discard, io.Discard); err == nil {
		t.Error("empty directory accepted")
	}

	bad := filepath.Join(t.TempDir(), "bad.ccmdc")
	write(t, bad, "garbage")
	if err := run([]string{"-dump", bad}, io.Discard, io.Discard); err == nil {
		t.Error("garbage disassembled")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestCookRefusesToOverwriteInputs(t *testing.T) {
	dir := t.TempDir()
	blobPath := filepath.Join(dir, "boot.ccmdc")
	blob := ccmd.Compile([]byte("echo hi\n"))
	if err := os.WriteFile(blobPath, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	srcPath := filepath.Join(dir, "boot.ccmd")
	write(t, srcPath, "echo hi\n")

	for _, args := range [][]string{
		{blobPath},
		{"-o", filepath.Join(dir, "copy.ccmdc"), blobPath},
		{"-o", srcPath, srcPath},
	} {
		if err := run(args, io.Discard, io.Discard); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}

	if !bytes.Equal(mustRead(t, blobPath), blob) {
		t.Error("cooked blob was rewritten")
	}
	if string(mustRead(t, srcPath)) != "echo hi\n" {
		t.Error("source was overwritten")
	}
	if _, err := os.Stat(filepath.Join(dir, "copy.ccmdc")); !os.IsNotExist(err) {
		t.Error("blob input was cooked")
	}
}
