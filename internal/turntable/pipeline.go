// Package turntable runs one model file through identity resolution, import,
// normalization, framing and the per-angle render loop.
package turntable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/framing"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/identity"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/normalize"
)

// DefaultOutputDir is the frame directory created beside each model.
const DefaultOutputDir = "renders"

// Options configures a Pipeline.
type Options struct {
	Steps     int
	OutputDir string // Relative to the model's directory, or absolute
	Render    engine.RenderSettings
	Framing   framing.Settings
	Scaling   normalize.Policy
	// SkipComplete skips import and scene setup when every frame of the
	// resolved model already exists.
	SkipComplete bool
}

// Validate checks every setting once, before any file is touched.
func (o Options) Validate() error {
	if o.Steps <= 0 {
		return fmt.Errorf("step count must be positive, got %d", o.Steps)
	}
	if o.Steps > 360 {
		return fmt.Errorf("step count %d exceeds one frame per degree", o.Steps)
	}
	if err := o.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := o.Framing.Validate(o.Render.Width, o.Render.Height); err != nil {
		return fmt.Errorf("framing: %w", err)
	}
	if err := o.Scaling.Validate(); err != nil {
		return fmt.Errorf("scaling: %w", err)
	}
	return nil
}

// Pipeline processes model files one at a time against a single engine.
type Pipeline struct {
	engine   SceneEngine
	resolver *identity.Resolver
	opts     Options
	observer Observer
	runID    string
}

// NewPipeline creates a pipeline with a fresh run ID.
func NewPipeline(eng SceneEngine, resolver *identity.Resolver, opts Options, observers ...Observer) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	return &Pipeline{
		engine:   eng,
		resolver: resolver,
		opts:     opts,
		observer: Observers(observers),
		runID:    uuid.NewString(),
	}
}

// RunID identifies every report of this pipeline.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Process renders the turntable of one model file. The returned report is
// filled in as far as processing got, also on error.
func (p *Pipeline) Process(ctx context.Context, path string) (Report, error) {
	start := time.Now()
	rep := Report{RunID: p.runID, Source: path}
	p.observer.OnFileStart(p.runID, path)

	err := p.process(ctx, path, &rep)
	rep.Duration = time.Since(start)
	rep.Err = err
	switch {
	case err != nil:
		rep.Status = StatusFailed
	case rep.Rendered == 0:
		rep.Status = StatusCached
	default:
		rep.Status = StatusRendered
	}
	p.observer.OnFileDone(rep)
	return rep, err
}

func (p *Pipeline) process(ctx context.Context, path string, rep *Report) error {
	id, err := p.resolver.Resolve(path)
	if err != nil {
		return err
	}
	rep.Path = id.Path
	rep.Hash = id.Hash

	outDir := p.opts.OutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(filepath.Dir(id.Path), outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrRenderFailure, outDir, err)
	}

	if p.opts.SkipComplete {
		if jobs := Jobs(outDir, id.Hash, p.opts.Steps); Complete(jobs) {
			rep.Frames = len(jobs)
			rep.Skipped = len(jobs)
			logger.Debug("all frames cached", zap.String("hash", id.Hash))
			return nil
		}
	}

	p.engine.Reset()
	if err := p.engine.ImportAs(id.Path, id.Format); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrImportFailure, id.Path, err)
	}

	norm, err := normalize.Normalize(p.engine, p.opts.Scaling)
	if err != nil {
		return err
	}

	mat := FlatWhite()
	for _, m := range p.engine.Meshes() {
		if err := p.engine.AssignMaterial(m, mat); err != nil {
			return err
		}
	}

	r := p.opts.Render
	if _, err := framing.Frame(p.engine, norm.ScaledMaxDimension(), r.Width, r.Height, p.opts.Framing); err != nil {
		return err
	}
	if err := p.engine.Configure(r); err != nil {
		return fmt.Errorf("%w: configuring: %w", ErrRenderFailure, err)
	}

	loop := Loop{
		Steps: p.opts.Steps,
		OnFrame: func(job Job, state FrameState, err error) {
			p.observer.OnFrame(FrameEvent{RunID: p.runID, Hash: id.Hash, Job: job, State: state, Err: err})
		},
	}
	stats, err := loop.Run(ctx, p.engine, norm.Pivot, id.Hash, outDir)
	rep.Frames = stats.Frames
	rep.Rendered = stats.Rendered
	rep.Skipped = stats.Skipped
	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrRenderFailure) {
		return fmt.Errorf("%w: interrupted: %w", ErrRenderFailure, err)
	}
	return err
}
