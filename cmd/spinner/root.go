package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/batch"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/catalog"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/config"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/renderer"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/window"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/notify"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/turntable"
)

// errFailures marks a run that finished with failed files; details are
// already logged.
var errFailures = errors.New("some models failed")

func newRootCmd() *cobra.Command {
	var o config.Overrides

	root := &cobra.Command{
		Use:   "spinner [flags] <file-or-directory>",
		Short: "Render 360° turntable frames of 3D models",
		Long: `Render a turntable of every .glb and .stl model: each file is renamed to its
content hash and its frames are written to a renders/ directory beside it.
Frames that already exist are skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
				return err
			}

			fileCfg := logger.FileConfig{}
			if cfg.Logging.LogFile != "" {
				fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
				fileCfg.JSON = cfg.Logging.JSON
			}
			opts := logger.Options{Level: cfg.Logging.Level, Console: os.Stdout, Color: true, File: fileCfg}
			if err := logger.Init(opts); err != nil {
				fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = run(ctx, cfg, args[0])
			if err != nil && !errors.Is(err, errFailures) {
				logger.Error("spinner failed", zap.Error(err))
			}
			return err
		},
	}

	f := root.Flags()
	f.StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file")
	f.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	f.IntVarP(&o.Steps, "steps", "n", 0, "Frames per turntable")
	f.IntVar(&o.Width, "width", 0, "Frame width in pixels")
	f.IntVar(&o.Height, "height", 0, "Frame height in pixels")
	f.IntVar(&o.Samples, "samples", 0, "Multisample count")
	f.StringVar(&o.Framing, "framing", "", "Camera distance policy: fov or multiple")
	f.StringVar(&o.Scaling, "scaling", "", "Model scale policy: exact or clamped")
	f.StringVarP(&o.OutputDir, "output", "o", "", "Frame directory, relative to each model")
	f.StringVar(&o.LogFile, "log-file", "", "Also write logs to this file")
	f.BoolVar(&o.NoSkip, "no-skip", false, "Set up the scene even when every frame exists")

	root.AddCommand(newConfigCmd(), newVersionCmd())
	return root
}

func run(ctx context.Context, cfg *config.Config, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", turntable.ErrFileNotFound, path)
	}

	r := cfg.Render
	win, err := window.New(window.Config{Title: "spinner", Width: r.Width, Height: r.Height, Hidden: true})
	if err != nil {
		return err
	}
	defer win.Close()

	backend, err := renderer.New()
	if err != nil {
		return err
	}
	defer backend.Close()

	eng := engine.New(backend)
	observers, closeObservers := openObservers(ctx, cfg)
	defer closeObservers()

	pipeline := turntable.NewPipeline(eng, cfg.Resolver(eng.Extensions()), cfg.PipelineOptions(), observers...)
	log := logger.With(zap.String("run", pipeline.RunID()))
	log.Info("spinner started",
		zap.String("path", path),
		zap.Int("steps", r.Steps),
		zap.String("resolution", fmt.Sprintf("%dx%d", r.Width, r.Height)),
		zap.String("framing", cfg.Framing.Policy),
		zap.String("scaling", cfg.Scaling.Policy),
	)

	if !info.IsDir() {
		rep, err := pipeline.Process(ctx, path)
		if err != nil {
			return errFailures
		}
		log.Info("done", zap.Int("rendered", rep.Rendered), zap.Int("skipped", rep.Skipped))
		return nil
	}

	w := batch.Walker{Processor: pipeline, Extensions: eng.Extensions()}
	res, err := w.Run(ctx, path)
	if res.Failed > 0 {
		return errFailures
	}
	return err
}

// openObservers connects the optional integrations. One that cannot connect
// is logged and left out; rendering goes ahead without it.
func openObservers(ctx context.Context, cfg *config.Config) ([]turntable.Observer, func()) {
	observers := []turntable.Observer{turntable.LogObserver{}}
	var closers []func()

	if cfg.Notify.MQTT.Enabled {
		pub, err := notify.Connect(cfg.Notify.MQTT.Config)
		if err != nil {
			logger.Warn("mqtt notifications disabled", zap.Error(err))
		} else {
			observers = append(observers, pub)
			closers = append(closers, pub.Close)
		}
	}

	if cfg.Catalog.Enabled {
		cat, err := catalog.Open(ctx, cfg.Catalog.Config)
		if err != nil {
			logger.Warn("render catalog disabled", zap.Error(err))
		} else {
			observers = append(observers, cat)
			closers = append(closers, func() { _ = cat.Close() })
		}
	}

	return observers, func() {
		for _, c := range closers {
			c()
		}
	}
}
