package worker

import (
	"context"
	"errors"
	"time"

	"taskHierarchy/internal/logger"
	"taskHierarchy/internal/service"

	"go.uber.org/zap"
)

type HierarchyValidator interface {
	ValidateHierarchy(ctx context.Context) error
}

// HierarchyWorker periodically checks that no task is both compound and subtask.
// It only reports; nothing is repaired.
type HierarchyWorker struct {
	validator HierarchyValidator
	interval  time.Duration
}

func NewHierarchyWorker(validator HierarchyValidator, interval *time.Duration) *HierarchyWorker {
	intervalToSet := 5 * time.Minute
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}

	return &HierarchyWorker{
		validator: validator,
		interval:  intervalToSet,
	}
}

func (w *HierarchyWorker) Interval() time.Duration {
	return w.interval
}

// Start checks once immediately, then on every tick until ctx is done.
func (w *HierarchyWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	_ = w.Check(ctx)
	for {
		select {
		case <-ticker.C:
			_ = w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: hierarchy audit stopping")
			return
		}
	}
}

func (w *HierarchyWorker) Check(ctx context.Context) error {
	start := time.Now()
	logger.Info("Worker: hierarchy audit started", zap.Time("started_at", start))

	err := w.validator.ValidateHierarchy(ctx)

	var busErr *service.BusinessError
	switch {
	case err == nil:
		logger.Info("Worker: hierarchy consistent", zap.Duration("ms", time.Since(start)))
	case errors.As(err, &busErr) && busErr.Code == service.CodeHierarchyViolation:
		logger.Warn("Worker: hierarchy violation",
			zap.Any("ids", busErr.Details["ids"]),
			zap.Duration("ms", time.Since(start)))
	default:
		logger.Warn("Worker: hierarchy audit failed", zap.Error(err), zap.Duration("ms", time.Since(start)))
	}
	return err
}
