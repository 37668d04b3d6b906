package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"delivery/internal/encoding"
	"delivery/internal/history"
	"delivery/internal/logging"
	"delivery/internal/notifications"
	"delivery/internal/services"
	"delivery/internal/storage"
)

func (o *Orchestrator) begin(ctx context.Context, a *attempt, estimate storage.Estimate) {
	if o.store == nil || a.recorded {
		return
	}
	err := o.store.Begin(context.WithoutCancel(ctx), history.Record{
		ID:            a.job.ID,
		InputPath:     a.job.Request.Input,
		OverlayPath:   a.overlay,
		OutputDir:     a.job.Request.OutputDir,
		Resolution:    a.job.Request.Resolution.Key(),
		StartFrame:    a.result.StartFrame,
		RequiredBytes: estimate.RequiredBytes,
	})
	if err != nil {
		a.logger.Warn("failed to record job start", logging.Error(err))
		return
	}
	a.recorded = true
}

// announce publishes the job start once pre-flight has passed.
func (o *Orchestrator) announce(ctx context.Context, a *attempt, estimate storage.Estimate) {
	if o.notifier == nil {
		return
	}
	payload := notifications.Payload{
		"file":        filepath.Base(a.job.Request.Input),
		"output":      a.job.Request.OutputDir,
		"resolution":  a.job.Request.Resolution.String(),
		"start_frame": strconv.Itoa(a.result.StartFrame),
		"required_gb": strconv.FormatFloat(estimate.RequiredGB(), 'f', 2, 64),
	}
	if err := o.notifier.Publish(context.WithoutCancel(ctx), notifications.EventJobStarted, payload); err != nil {
		a.logger.Debug("job notification failed", logging.Error(err))
	}
}

// record writes the outcome to history. Jobs that failed before launch are
// inserted here so every attempt leaves a row.
func (o *Orchestrator) record(ctx context.Context, a *attempt) {
	if o.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	o.begin(ctx, a, a.result.Estimate)
	if !a.recorded {
		return
	}
	outcome := history.Outcome{
		State:       historyState(a.result.State),
		LastFrame:   a.result.Frame,
		FailureKind: services.FailureKind(a.result.Err),
	}
	if a.result.Err != nil {
		outcome.Message = a.result.Err.Error()
	}
	if raw, err := a.snapshot.Marshal(); err == nil {
		outcome.SnapshotJSON = raw
	}
	if err := o.store.Finish(ctx, a.job.ID, outcome); err != nil {
		a.logger.Warn("failed to record job outcome", logging.Error(err))
	}
}

func (o *Orchestrator) notify(ctx context.Context, a *attempt) {
	if o.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	payload := notifications.Payload{
		"file":   filepath.Base(a.job.Request.Input),
		"output": a.job.Request.OutputDir,
		"frame":  strconv.Itoa(a.result.Frame),
	}
	var event notifications.Event
	switch a.result.State {
	case encoding.StateCompleted:
		event = notifications.EventJobCompleted
		payload["frames"] = strconv.Itoa(a.result.Frame)
	case encoding.StateCancelled:
		event = notifications.EventJobCancelled
	default:
		event = notifications.EventJobFailed
		payload["error"] = a.result.Err
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Debug("notification skipped during shutdown")
			return
		}
		a.logger.Debug("job notification failed", logging.Error(err))
	}
}
