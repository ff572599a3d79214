package infrastructure

import (
	"go.uber.org/zap"

	"filterbench/internal/domain"
)

// LogObserver reports benchmark progress through a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Notify(event domain.Event) {
	switch event.Kind {
	case domain.EventTaskStarted:
		o.logger.Debug("Task started",
			zap.String("strategy", string(event.Strategy)),
			zap.Int("workers", event.Concurrency),
			zap.String("image", event.ImageID))

	case domain.EventTaskFinished:
		if event.Outcome == nil {
			return
		}
		fields := []zap.Field{
			zap.String("strategy", string(event.Strategy)),
			zap.Int("workers", event.Concurrency),
			zap.String("image", event.Outcome.ImageID),
			zap.Int("pid", event.Outcome.Worker.PID),
		}
		if event.Outcome.Worker.ThreadID != 0 {
			fields = append(fields, zap.Int("tid", event.Outcome.Worker.ThreadID))
		}
		if event.Outcome.Succeeded() {
			o.logger.Info("Task completed", append(fields, zap.Duration("duration", event.Outcome.Duration))...)
		} else {
			o.logger.Warn("Task failed", append(fields, zap.String("error", event.Outcome.Error))...)
		}

	case domain.EventRunFinished:
		run := event.Run
		if run == nil {
			return
		}
		fields := []zap.Field{
			zap.String("strategy", string(run.Strategy)),
			zap.Int("workers", run.Concurrency),
			zap.Duration("total", run.TotalTime),
			zap.Duration("avg_per_image", run.AverageDuration),
			zap.Int("succeeded", run.Succeeded),
			zap.Int("failed", run.Failed),
			zap.Int("distinct_workers", run.DistinctWorkers),
			zap.Int("distinct_processes", run.DistinctProcesses),
			zap.String("status", string(run.Status)),
		}
		if run.Status == domain.RunFailed {
			o.logger.Error("Run finished without a successful item", fields...)
		} else {
			o.logger.Info("Run finished", fields...)
		}
	}
}
