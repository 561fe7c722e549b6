// Package engine is the scene engine the spinner drives: one mutable scene
// graph, file importers keyed by extension, and a pluggable render backend.
package engine

import (
	"errors"
	"fmt"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/importer"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
)

// ErrNoBackend is returned by Render when the engine has no render backend.
var ErrNoBackend = errors.New("engine has no render backend")

// RenderSettings describes the output of every Render call.
type RenderSettings struct {
	Engine      string  // Backend name, informational
	Device      string  // "gpu" or "cpu"
	Samples     int     // Multisample count
	Width       int     // Pixels
	Height      int     // Pixels
	Format      string  // Only "PNG" is supported
	ColorMode   string  // "RGBA" or "RGB"
	Transparent bool    // Transparent film: background alpha is zero
	Exposure    float32 // Stops
}

// Validate checks the settings for values no backend can honor.
func (s RenderSettings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", s.Samples)
	}
	if s.Format != "PNG" {
		return fmt.Errorf("unsupported output format %q", s.Format)
	}
	if s.ColorMode != "RGBA" && s.ColorMode != "RGB" {
		return fmt.Errorf("unsupported color mode %q", s.ColorMode)
	}
	if s.Transparent && s.ColorMode != "RGBA" {
		return fmt.Errorf("transparent film requires RGBA output")
	}
	return nil
}

// Backend turns the evaluated scene into an image file.
type Backend interface {
	Configure(settings RenderSettings) error
	// Render draws the active camera's view of g, using the world matrices
	// from the last Graph.Update, and writes it to path.
	Render(g *scene.Graph, path string) error
	// Forget drops any per-mesh resources; called when the scene is reset.
	Forget()
}

// Engine owns the scene graph and dispatches import and render calls.
type Engine struct {
	*scene.Graph

	importers importer.Registry
	backend   Backend
	settings  RenderSettings
}

// New creates an engine with the built-in importers.
func New(backend Backend) *Engine {
	return &Engine{
		Graph:     scene.New(),
		importers: importer.Default(),
		backend:   backend,
	}
}

// Extensions returns the importable file extensions.
func (e *Engine) Extensions() []string {
	return e.importers.Extensions()
}

// Reset empties the scene and releases backend resources tied to it.
func (e *Engine) Reset() {
	e.Graph.Reset()
	if e.backend != nil {
		e.backend.Forget()
	}
}

// Import adds the model at path to the scene.
func (e *Engine) Import(path string) error {
	return e.importers.Import(e.Graph, path)
}

// ImportAs adds the model at path using the loader for format (an extension
// such as ".stl"), for files whose name does not end in it.
func (e *Engine) ImportAs(path, format string) error {
	return e.importers.ImportAs(e.Graph, path, format)
}

// Configure validates settings and passes them to the backend.
func (e *Engine) Configure(settings RenderSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if e.backend != nil {
		if err := e.backend.Configure(settings); err != nil {
			return err
		}
	}
	e.settings = settings
	return nil
}

// Settings returns the last accepted render settings.
func (e *Engine) Settings() RenderSettings {
	return e.settings
}

// Render renders one frame to path.
func (e *Engine) Render(path string) error {
	if e.backend == nil {
		return ErrNoBackend
	}
	if e.ActiveCamera() == nil {
		return fmt.Errorf("scene has no active camera")
	}
	return e.backend.Render(e.Graph, path)
}
