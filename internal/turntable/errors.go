package turntable

import (
	"errors"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/identity"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/normalize"
)

// Per-file failure kinds. Errors returned by Pipeline.Process match exactly
// one of these under errors.Is.
var (
	ErrFileNotFound      = identity.ErrFileNotFound
	ErrUnsupportedFormat = identity.ErrUnsupportedFormat
	ErrNameResolution    = identity.ErrNameResolution
	ErrImportFailure     = errors.New("model import failed")
	ErrNoMeshObjects     = normalize.ErrNoMeshObjects
	ErrEmptyGeometry     = normalize.ErrEmptyGeometry
	ErrRenderFailure     = errors.New("frame render failed")
)
