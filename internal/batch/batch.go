// Package batch renders every model file of one directory, isolating each
// file so that one failure never stops the rest.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/turntable"
)

// Processor renders one model file. *turntable.Pipeline implements it.
type Processor interface {
	Process(ctx context.Context, path string) (turntable.Report, error)
}

// Result tallies one batch.
type Result struct {
	Found          int
	Processed      int
	Failed         int
	FramesRendered int
	FramesSkipped  int
	Reports        []turntable.Report
}

func (r *Result) add(rep turntable.Report, err error) {
	r.Reports = append(r.Reports, rep)
	r.FramesRendered += rep.Rendered
	r.FramesSkipped += rep.Skipped
	if err != nil {
		r.Failed++
		return
	}
	r.Processed++
}

// Walker processes the model files directly inside a directory.
type Walker struct {
	Processor  Processor
	Extensions []string // Compared case-insensitively
}

// List returns the regular files directly in dir whose extension is one of
// exts, sorted by name. Symlinks count when they resolve to a regular file.
// Subdirectories are not entered.
func List(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !hasExt(e.Name(), exts) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !isRegular(path, e) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func isRegular(path string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Run processes every supported file in dir in name order. Per-file errors
// are counted and combined into the returned error; they do not stop the
// batch. Only a listing failure or cancellation ends it early.
func (w *Walker) Run(ctx context.Context, dir string) (Result, error) {
	var res Result

	files, err := List(dir, w.Extensions)
	if err != nil {
		return res, fmt.Errorf("listing %s: %w", dir, err)
	}
	res.Found = len(files)
	logger.Info("batch started", zap.String("dir", dir), zap.Int("found", res.Found))

	var errs error
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		rep, err := w.process(ctx, path)
		res.add(rep, err)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
		}

		logger.Info("batch progress",
			zap.Int("file", i+1),
			zap.Int("found", res.Found),
			zap.Int("processed", res.Processed),
			zap.Int("failed", res.Failed),
			zap.Int("rendered", res.FramesRendered),
			zap.Int("skipped", res.FramesSkipped),
		)
	}

	logger.Info("batch finished",
		zap.String("dir", dir),
		zap.Int("found", res.Found),
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
		zap.Int("rendered", res.FramesRendered),
		zap.Int("skipped", res.FramesSkipped),
	)
	return res, errs
}

// process runs one file inside a recover boundary.
func (w *Walker) process(ctx context.Context, path string) (rep turntable.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing model",
				zap.String("path", path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			rep = turntable.Report{Source: path, Status: turntable.StatusFailed}
			err = fmt.Errorf("panic: %v", r)
			rep.Err = err
		}
	}()
	return w.Processor.Process(ctx, path)
}
