package identity

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var models = []string{".glb", ".stl"}

func md5hex(data string) string {
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

func write(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("0123456789", 1000) // spans several chunks
	path := write(t, dir, "big.stl", big)

	got, err := HashFile(path, MD5)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if got != md5hex(big) {
		t.Errorf("md5 = %s, want %s", got, md5hex(big))
	}

	got, err = HashFile(path, SHA256)
	if err != nil {
		t.Fatalf("HashFile sha256: %v", err)
	}
	want := sha256.Sum256([]byte(big))
	if got != hex.EncodeToString(want[:]) {
		t.Errorf("sha256 mismatch")
	}

	if _, err := HashFile(path, "crc32"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestResolve_RenamesToHash(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "model.stl", "hello")
	r := NewResolver(MD5, models)

	id, err := r.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := filepath.Join(dir, "5d41402abc4b2a76b9719d911017c592.stl")
	if id.Path != want {
		t.Errorf("Path = %s, want %s", id.Path, want)
	}
	if id.Hash != "5d41402abc4b2a76b9719d911017c592" || !id.Renamed || id.Mutations != 1 {
		t.Errorf("unexpected identity %+v", id)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original name should be gone")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(MD5, models)
	first, err := r.Resolve(write(t, dir, "part.GLB", "glb bytes"))
	if err != nil {
		t.Fatal(err)
	}

	info, _ := os.Stat(first.Path)
	second, err := r.Resolve(first.Path)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	if second.Path != first.Path {
		t.Errorf("second path %s != first %s", second.Path, first.Path)
	}
	if second.Mutations != 0 || second.Renamed || second.Duplicate {
		t.Errorf("second call mutated the filesystem: %+v", second)
	}
	after, _ := os.Stat(second.Path)
	if !after.ModTime().Equal(info.ModTime()) {
		t.Error("canonical file was touched")
	}
	if second.Ext != ".GLB" || second.Format != ".glb" {
		t.Errorf("Ext/Format = %q/%q", second.Ext, second.Format)
	}
}

func TestResolve_DuplicatesConverge(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(MD5, models)
	a := write(t, dir, "a.stl", "same")
	b := write(t, dir, "b.stl", "same")

	ida, err := r.Resolve(a)
	if err != nil {
		t.Fatal(err)
	}
	idb, err := r.Resolve(b)
	if err != nil {
		t.Fatal(err)
	}

	if ida.Path != idb.Path {
		t.Errorf("duplicates resolved to %s and %s", ida.Path, idb.Path)
	}
	if !idb.Duplicate {
		t.Error("second file should be reported as duplicate")
	}
	if names := listDir(t, dir); len(names) != 1 {
		t.Errorf("expected a single canonical file, got %v", names)
	}
}

func TestResolve_ConflictParksFile(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(MD5, models)
	sum := md5hex("real content")
	// A stale file already sits at the hash name with other bytes.
	canonical := write(t, dir, sum+".stl", "stale")
	src := write(t, dir, "incoming.stl", "real content")

	id, err := r.Resolve(src)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if id.Path != canonical+ConflictSuffix || !id.Conflict {
		t.Errorf("identity = %+v, want parked at %s", id, canonical+ConflictSuffix)
	}
	data, _ := os.ReadFile(canonical)
	if string(data) != "stale" {
		t.Error("canonical file was overwritten")
	}

	again, err := r.Resolve(id.Path)
	if err != nil {
		t.Fatalf("resolving parked file: %v", err)
	}
	if again.Path != id.Path || again.Mutations != 0 || !again.Conflict {
		t.Errorf("parked file is not terminal: %+v", again)
	}
}

func TestResolve_ConflictDuplicateOfParked(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(MD5, models)
	sum := md5hex("x")
	write(t, dir, sum+".stl", "y")
	write(t, dir, sum+".stl.new", "x")
	src := write(t, dir, "again.stl", "x")

	id, err := r.Resolve(src)
	if err != nil {
		t.Fatal(err)
	}
	if !id.Duplicate || filepath.Base(id.Path) != sum+".stl.new" {
		t.Errorf("identity = %+v", id)
	}
	if names := listDir(t, dir); len(names) != 2 {
		t.Errorf("expected 2 files, got %v", names)
	}
}

func TestResolve_NewSuffixInput(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(MD5, models)
	src := write(t, dir, "leftover.STL.new", "data")

	id, err := r.Resolve(src)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(id.Path) != md5hex("data")+".STL" || id.Conflict {
		t.Errorf("identity = %+v", id)
	}
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(MD5, models)
	obj := write(t, dir, "mesh.obj", "v 0 0 0")

	if _, err := r.Resolve(obj); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := os.Stat(obj); err != nil {
		t.Error("unsupported file must not be renamed")
	}

	if _, err := r.Resolve(filepath.Join(dir, "missing.stl")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}

	sub := filepath.Join(dir, "folder.stl")
	os.Mkdir(sub, 0o755)
	if _, err := r.Resolve(sub); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound for a directory, got %v", err)
	}
}

func TestResolve_BoundedAttempts(t *testing.T) {
	old := hashFunc
	t.Cleanup(func() { hashFunc = old })

	// Content that hashes differently on every read never settles.
	calls := 0
	hashFunc = func(string, Algorithm) (string, error) {
		calls++
		return fmt.Sprintf("%032x", calls), nil
	}

	dir := t.TempDir()
	r := NewResolver(MD5, models)
	_, err := r.Resolve(write(t, dir, "flaky.stl", "x"))

	if !errors.Is(err, ErrNameResolution) {
		t.Fatalf("expected ErrNameResolution, got %v", err)
	}
	if calls != DefaultMaxAttempts {
		t.Errorf("hashed %d times, want %d", calls, DefaultMaxAttempts)
	}
}

func TestResolver_Supported(t *testing.T) {
	r := NewResolver(MD5, models)
	tests := map[string]bool{
		"a.stl":     true,
		"a.GLB":     true,
		"a.stl.new": true,
		"a.obj":     false,
		"a.new":     false,
		"stl":       false,
	}
	for name, want := range tests {
		if got := r.Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}
