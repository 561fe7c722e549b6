package turntable

import (
	"context"
	"fmt"
	gomath "math"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/fsx"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// DefaultSteps renders one frame every 10 degrees.
const DefaultSteps = 36

// FrameState is the terminal state of one job.
type FrameState int

const (
	FrameSkipped FrameState = iota
	FrameRendered
	FrameFailed
)

func (s FrameState) String() string {
	switch s {
	case FrameSkipped:
		return "skipped"
	case FrameRendered:
		return "rendered"
	case FrameFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Job is one frame of a turntable.
type Job struct {
	Index int
	Angle int // Degrees
	Path  string
}

// Angle returns the rounded angle in degrees of frame i out of steps.
func Angle(i, steps int) int {
	return int(gomath.Round(float64(i) * 360 / float64(steps)))
}

// FramePath returns <dir>/<hash>_<angle:03d>.png.
func FramePath(dir, hash string, angle int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%03d.png", hash, angle))
}

// Jobs lists the frames of a model in render order.
func Jobs(dir, hash string, steps int) []Job {
	jobs := make([]Job, steps)
	for i := range jobs {
		a := Angle(i, steps)
		jobs[i] = Job{Index: i, Angle: a, Path: FramePath(dir, hash, a)}
	}
	return jobs
}

// Complete reports whether every frame already exists.
func Complete(jobs []Job) bool {
	for _, j := range jobs {
		ok, err := fsx.FileExists(j.Path)
		if err != nil || !ok {
			return false
		}
	}
	return len(jobs) > 0
}

// Stats counts the frames of one loop run.
type Stats struct {
	Frames   int
	Rendered int
	Skipped  int
}

// Loop renders the turntable frames of a normalized, framed model.
type Loop struct {
	Steps int
	// OnFrame, if set, is called after each job reaches a terminal state.
	OnFrame func(job Job, state FrameState, err error)
}

// Run renders every missing frame, rotating pivot about Z by -angle for each.
// Existing frames are left untouched. A render error discards the partial
// file and stops the run; frames committed before it stay on disk.
// The context is checked between frames only.
func (l *Loop) Run(ctx context.Context, s FrameScene, pivot *scene.Node, hash, outDir string) (Stats, error) {
	steps := l.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}

	var stats Stats
	for _, job := range Jobs(outDir, hash, steps) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Frames++

		exists, err := fsx.FileExists(job.Path)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrRenderFailure, job.Path, err)
			l.emit(job, FrameFailed, err)
			return stats, err
		}
		if exists {
			stats.Skipped++
			l.emit(job, FrameSkipped, nil)
			continue
		}

		if err := renderFrame(s, pivot, job); err != nil {
			err = fmt.Errorf("%w: angle %d: %w", ErrRenderFailure, job.Angle, err)
			l.emit(job, FrameFailed, err)
			return stats, err
		}
		stats.Rendered++
		l.emit(job, FrameRendered, nil)
	}
	return stats, nil
}

func renderFrame(s FrameScene, pivot *scene.Node, job Job) error {
	rad := -float32(job.Angle) * gomath.Pi / 180
	s.SetRotation(pivot, math.QuatFromAxisAngle(math.AxisZ, rad))
	s.Update()

	partial := fsx.PartialPath(job.Path)
	if err := s.Render(partial); err != nil {
		if derr := fsx.Discard(partial); derr != nil {
			logger.Warn("failed to remove partial frame", zap.String("path", partial), zap.Error(derr))
		}
		return err
	}
	if err := fsx.Commit(partial, job.Path); err != nil {
		_ = fsx.Discard(partial)
		return err
	}
	return nil
}

func (l *Loop) emit(job Job, state FrameState, err error) {
	if l.OnFrame != nil {
		l.OnFrame(job, state, err)
	}
}
