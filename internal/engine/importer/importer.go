// Package importer loads model files into a scene graph, one loader per
// file extension.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
)

// ErrNoImporter is returned for an extension without a registered loader.
var ErrNoImporter = errors.New("no importer for extension")

// Importer adds the contents of one model file to a scene graph.
type Importer interface {
	Import(g *scene.Graph, path string) error
}

// Registry maps lower-case extensions (with the dot) to importers.
type Registry map[string]Importer

// Default returns the registry of built-in importers.
func Default() Registry {
	return Registry{
		".glb": GLB{},
		".stl": STL{},
	}
}

// Extensions returns the registered extensions in sorted order.
func (r Registry) Extensions() []string {
	exts := make([]string, 0, len(r))
	for ext := range r {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Import loads path with the importer registered for its extension.
func (r Registry) Import(g *scene.Graph, path string) error {
	return r.ImportAs(g, path, filepath.Ext(path))
}

// ImportAs loads path with the importer registered for ext, regardless of
// the file's own name.
func (r Registry) ImportAs(g *scene.Graph, path, ext string) error {
	ext = strings.ToLower(ext)
	imp, ok := r[ext]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoImporter, ext)
	}
	return imp.Import(g, path)
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
