package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := FileExists(file)
	if err != nil || !ok {
		t.Errorf("FileExists(file) = %v, %v; want true, nil", ok, err)
	}

	ok, err = FileExists(filepath.Join(dir, "missing.png"))
	if err != nil || ok {
		t.Errorf("FileExists(missing) = %v, %v; want false, nil", ok, err)
	}

	sub := filepath.Join(dir, "b.png")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := FileExists(sub); !IsPathTypeConflict(err) {
		t.Errorf("FileExists(dir) error = %v, want PathTypeConflictError", err)
	}
}

func TestPartialPath(t *testing.T) {
	got := PartialPath(filepath.Join("renders", "abc_010.png"))
	want := filepath.Join("renders", ".abc_010.png.partial")
	if got != want {
		t.Errorf("PartialPath = %q, want %q", got, want)
	}
}

func TestCommit(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "abc_000.png")
	partial := PartialPath(final)
	if err := os.WriteFile(partial, []byte("frame"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Commit(partial, final); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Error("partial file should be gone after commit")
	}
	data, err := os.ReadFile(final)
	if err != nil || string(data) != "frame" {
		t.Errorf("final content = %q, %v", data, err)
	}
}

func TestDiscard(t *testing.T) {
	dir := t.TempDir()
	partial := filepath.Join(dir, ".x.partial")
	os.WriteFile(partial, nil, 0o644)

	if err := Discard(partial); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := Discard(partial); err != nil {
		t.Errorf("Discard of missing file should succeed, got %v", err)
	}
}

func TestRename_InjectedFailure(t *testing.T) {
	old := renameFunc
	t.Cleanup(func() { renameFunc = old })

	boom := errors.New("boom")
	renameFunc = func(string, string) error { return boom }

	if err := Rename("a", "b"); !errors.Is(err, boom) {
		t.Errorf("Rename error = %v, want boom", err)
	}
	if IsCrossDevice(boom) {
		t.Error("plain error should not be cross-device")
	}
}
