//go:build unix

package fsx

import (
	"errors"
	"os"
	"syscall"
	"testing"
)

func TestRename_CrossDevice(t *testing.T) {
	old := renameFunc
	t.Cleanup(func() { renameFunc = old })

	renameFunc = func(src, dst string) error {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: syscall.EXDEV}
	}

	err := Rename("/mnt/a/model.stl", "/mnt/b/model.stl")
	if !IsCrossDevice(err) {
		t.Fatalf("expected CrossDeviceError, got %v", err)
	}
	if !errors.Is(err, syscall.EXDEV) {
		t.Error("CrossDeviceError should unwrap to EXDEV")
	}
}
