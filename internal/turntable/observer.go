package turntable

import (
	"time"

	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
)

// Model outcome reported in Report.Status.
const (
	StatusRendered = "rendered" // At least one frame was rendered
	StatusCached   = "cached"   // Every frame already existed
	StatusFailed   = "failed"
)

// FrameEvent describes one finished frame job.
type FrameEvent struct {
	RunID string
	Hash  string
	Job   Job
	State FrameState
	Err   error
}

// Report is the outcome of processing one model file.
type Report struct {
	RunID    string
	Source   string // Path as given
	Path     string // Path after identity resolution, empty if it failed
	Hash     string
	Frames   int
	Rendered int
	Skipped  int
	Status   string
	Err      error
	Duration time.Duration
}

// Observer receives pipeline progress. Implementations must not block for
// long: they are called synchronously between engine calls.
type Observer interface {
	OnFileStart(runID, path string)
	OnFrame(ev FrameEvent)
	OnFileDone(rep Report)
}

// Observers fans every event out to each element in order.
type Observers []Observer

func (o Observers) OnFileStart(runID, path string) {
	for _, obs := range o {
		obs.OnFileStart(runID, path)
	}
}

func (o Observers) OnFrame(ev FrameEvent) {
	for _, obs := range o {
		obs.OnFrame(ev)
	}
}

func (o Observers) OnFileDone(rep Report) {
	for _, obs := range o {
		obs.OnFileDone(rep)
	}
}

// LogObserver writes progress lines through the logger package.
type LogObserver struct{}

func (LogObserver) OnFileStart(runID, path string) {
	logger.Info("processing model", zap.String("path", path), zap.String("run", runID))
}

func (LogObserver) OnFrame(ev FrameEvent) {
	fields := []zap.Field{
		zap.String("hash", ev.Hash),
		zap.Int("angle", ev.Job.Angle),
		zap.Stringer("state", ev.State),
	}
	if ev.Err != nil {
		logger.Error("frame failed", append(fields, zap.Error(ev.Err))...)
		return
	}
	logger.Debug("frame done", fields...)
}

func (LogObserver) OnFileDone(rep Report) {
	fields := []zap.Field{
		zap.String("path", rep.Source),
		zap.String("hash", rep.Hash),
		zap.Int("rendered", rep.Rendered),
		zap.Int("skipped", rep.Skipped),
		zap.Duration("took", rep.Duration),
	}
	if rep.Err != nil {
		logger.Error("model failed", append(fields, zap.Error(rep.Err))...)
		return
	}
	logger.Info("model done", append(fields, zap.String("status", rep.Status))...)
}
