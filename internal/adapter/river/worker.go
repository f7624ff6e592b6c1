package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes domain event jobs from the River queue.
// Delivery to downstream consumers is out of scope; events are logged
// so the audit trail of occupancy changes is visible.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	logger *slog.Logger
}

func NewEventWorker(logger *slog.Logger) *EventWorker {
	return &EventWorker{logger: logger}
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	attrs := []any{
		"event", job.Args.Event,
		"entity_id", job.Args.EntityID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	}
	if job.Args.PremisesID != "" {
		attrs = append(attrs, "premises_id", job.Args.PremisesID)
	}
	if job.Args.BedspaceID != "" {
		attrs = append(attrs, "bedspace_id", job.Args.BedspaceID)
	}
	if job.Args.Status != "" {
		attrs = append(attrs, "status", job.Args.Status)
	}
	if job.Args.EffectiveOn != "" {
		attrs = append(attrs, "effective_on", job.Args.EffectiveOn)
	}
	w.logger.InfoContext(ctx, "processing event", attrs...)
	return nil
}
