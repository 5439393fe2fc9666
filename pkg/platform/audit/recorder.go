package audit

import (
	"context"
	"log/slog"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/requestcontext"
)

// Metrics is the optional instrumentation hook for the recorder pipeline.
type Metrics interface {
	AuditEntryRecorded()
	AuditEntryDropped()
}

// Recorder buffers audit entries for asynchronous persistence. Recording is
// observability, not correctness: Record never blocks the request it is
// attached to, and a full buffer drops the entry with a warning rather than
// slowing the caller down.
type Recorder struct {
	queue   chan *Entry
	logger  *slog.Logger
	metrics Metrics
}

// NewRecorder builds a recorder with the given buffer size.
// metrics may be nil.
func NewRecorder(size int, logger *slog.Logger, metrics Metrics) *Recorder {
	if size <= 0 {
		size = 256
	}
	return &Recorder{
		queue:   make(chan *Entry, size),
		logger:  logger.With("component", "audit"),
		metrics: metrics,
	}
}

// Record enqueues an entry, filling in ID and CreatedAt when unset.
func (r *Recorder) Record(ctx context.Context, entry *Entry) {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}

	select {
	case r.queue <- entry:
		if r.metrics != nil {
			r.metrics.AuditEntryRecorded()
		}
	default:
		r.logger.WarnContext(ctx, "audit buffer full, dropping entry",
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"action", entry.Action,
		)
		if r.metrics != nil {
			r.metrics.AuditEntryDropped()
		}
	}
}

// Entries exposes the queue for the worker.
func (r *Recorder) Entries() <-chan *Entry {
	return r.queue
}
