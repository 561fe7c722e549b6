// Package identity gives model files a content-addressed name: the file is
// renamed to <hash><ext>, byte-identical duplicates are deleted, and a file
// that collides with a different canonical file is parked as <hash><ext>.new.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/fsx"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
)

// Resolution errors.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrNameResolution    = errors.New("name resolution failed")
)

// Replaceable so tests can simulate content changing under the resolver.
var hashFunc = HashFile

// ConflictSuffix is appended to a file whose hash name is already taken by
// different content.
const ConflictSuffix = ".new"

// DefaultMaxAttempts bounds the hash/rename/verify cycle.
const DefaultMaxAttempts = 3

// Identity is a model file after resolution.
type Identity struct {
	Path     string // Canonical location
	Ext      string // Extension as it appears in the name, e.g. ".STL"
	Format   string // Lower-case extension, e.g. ".stl"
	Hash     string
	Conflict bool // Name carries ConflictSuffix

	Renamed    bool // Source was moved to its hash name
	Duplicate  bool // Source was deleted in favour of an identical canonical file
	Mutations  int  // Filesystem changes made by this call
	FromSource string
}

// Resolver reconciles file names with content hashes.
type Resolver struct {
	Algorithm   Algorithm
	Extensions  []string // Accepted extensions, compared case-insensitively
	MaxAttempts int
}

// NewResolver creates a resolver for the given extensions.
func NewResolver(algo Algorithm, extensions []string) *Resolver {
	return &Resolver{
		Algorithm:   algo,
		Extensions:  extensions,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Supported reports whether a file name carries an accepted extension,
// looking through a trailing ConflictSuffix.
func (r *Resolver) Supported(name string) bool {
	ext, _ := splitExt(name)
	return r.supportedExt(ext)
}

func (r *Resolver) supportedExt(ext string) bool {
	for _, e := range r.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// splitExt returns the model extension of name and whether the name carries
// ConflictSuffix.
func splitExt(name string) (ext string, conflict bool) {
	base := filepath.Base(name)
	if strings.HasSuffix(strings.ToLower(base), ConflictSuffix) {
		base = base[:len(base)-len(ConflictSuffix)]
		conflict = true
	}
	return filepath.Ext(base), conflict
}

// Resolve hashes the file at path and moves it to its canonical name. The
// canonical file of another content is never overwritten. Every outcome is
// re-verified by hashing the resulting file again; if that does not settle
// within MaxAttempts rounds the call fails with ErrNameResolution.
func (r *Resolver) Resolve(path string) (Identity, error) {
	id := Identity{FromSource: path}

	ok, err := fsx.FileExists(path)
	if err != nil {
		return id, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
	}
	if !ok {
		return id, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	ext, _ := splitExt(path)
	if !r.supportedExt(ext) {
		return id, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	id.Ext = ext
	id.Format = strings.ToLower(ext)

	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	current := path
	for attempt := 1; attempt <= attempts; attempt++ {
		sum, err := hashFunc(current, r.Algorithm)
		if err != nil {
			return id, fmt.Errorf("%w: hashing %s: %w", ErrNameResolution, current, err)
		}

		expected := sum + ext
		base := filepath.Base(current)
		if base == expected || base == expected+ConflictSuffix {
			id.Path = current
			id.Hash = sum
			id.Conflict = base != expected
			return id, nil
		}

		next, err := r.step(current, filepath.Join(filepath.Dir(current), expected), sum, &id)
		if err != nil {
			return id, fmt.Errorf("%w: %s: %w", ErrNameResolution, current, err)
		}
		current = next
	}

	return id, fmt.Errorf("%w: %s: name did not match content after %d attempts", ErrNameResolution, path, attempts)
}

// step performs one filesystem move toward the canonical name and returns
// the path to verify next.
func (r *Resolver) step(current, target, sum string, id *Identity) (string, error) {
	exists, err := targetHolds(target, sum, r.Algorithm)
	if err != nil {
		return "", err
	}

	switch exists {
	case targetMissing:
		if err := fsx.Rename(current, target); err != nil {
			return "", err
		}
		id.Renamed = true
		id.Mutations++
		logger.Info("renamed to content hash", zap.String("from", current), zap.String("to", target))
		return target, nil

	case targetSame:
		if err := fsx.Remove(current); err != nil {
			return "", err
		}
		id.Duplicate = true
		id.Mutations++
		logger.Info("removed duplicate", zap.String("path", current), zap.String("canonical", target))
		return target, nil
	}

	// The canonical name holds other content; park this file beside it.
	parked := target + ConflictSuffix
	state, err := targetHolds(parked, sum, r.Algorithm)
	if err != nil {
		return "", err
	}
	switch state {
	case targetMissing:
		if err := fsx.Rename(current, parked); err != nil {
			return "", err
		}
		id.Renamed = true
	case targetSame:
		if err := fsx.Remove(current); err != nil {
			return "", err
		}
		id.Duplicate = true
	default:
		return "", fmt.Errorf("both %s and %s hold other content", target, parked)
	}
	id.Mutations++
	logger.Warn("hash name taken by different content",
		zap.String("path", current),
		zap.String("canonical", target),
		zap.String("parked", parked),
	)
	return parked, nil
}

type targetState int

const (
	targetMissing targetState = iota
	targetSame
	targetDifferent
)

// targetHolds classifies what occupies target relative to the content hash sum.
// A directory in the way counts as different content.
func targetHolds(target, sum string, algo Algorithm) (targetState, error) {
	ok, err := fsx.FileExists(target)
	if fsx.IsPathTypeConflict(err) {
		return targetDifferent, nil
	}
	if err != nil {
		return 0, err
	}
	if !ok {
		return targetMissing, nil
	}

	other, err := hashFunc(target, algo)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return targetMissing, nil
		}
		return 0, err
	}
	if other == sum {
		return targetSame, nil
	}
	return targetDifferent, nil
}
