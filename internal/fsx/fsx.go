// Package fsx wraps the filesystem operations the spinner relies on for
// crash-safe output: typed rename failures, existence checks that refuse
// directories, and temp-name-then-rename frame commits.
package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Replaceable so tests can simulate EXDEV and other rename failures.
var (
	renameFunc = os.Rename
	removeFunc = os.Remove
)

// PartialSuffix marks an uncommitted frame.
const PartialSuffix = ".partial"

// PathTypeConflictError reports a path that exists with the wrong type,
// for example a directory where a frame file is expected.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path type conflict: %q (want %s, got %s)", e.Path, e.Want, e.Got)
}

// IsPathTypeConflict reports whether err is a PathTypeConflictError.
func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError reports a rename that failed because source and target
// live on different filesystems. No copy+delete fallback is attempted.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device rename %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and marks EXDEV failures as CrossDeviceError.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// Remove deletes a file.
func Remove(path string) error {
	return removeFunc(path)
}

// FileExists reports whether path names a regular file. A directory or other
// non-regular entry at path is a PathTypeConflictError.
func FileExists(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !fi.Mode().IsRegular() {
		return false, &PathTypeConflictError{Path: path, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	return true, nil
}

// PartialPath returns the hidden sibling a file is written to before commit.
func PartialPath(final string) string {
	dir, base := filepath.Split(final)
	return filepath.Join(dir, "."+base+PartialSuffix)
}

// Commit atomically moves a finished partial file to its final name and
// syncs the directory on a best-effort basis.
func Commit(partial, final string) error {
	if err := Rename(partial, final); err != nil {
		return err
	}
	_ = syncDirBestEffort(filepath.Dir(final))
	return nil
}

// Discard removes a partial file, ignoring a missing file.
func Discard(partial string) error {
	if err := Remove(partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	// Directory Sync is unsupported on Windows.
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
