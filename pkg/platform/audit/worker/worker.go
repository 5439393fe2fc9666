// Package worker drains the audit recorder queue into the store and,
// when configured, fans entries out to the event stream.
package worker

import (
	"context"
	"log/slog"

	"gatehouse/pkg/platform/audit"
)

// Publisher fans an entry out to a downstream pipeline (e.g. Kafka).
type Publisher interface {
	Publish(ctx context.Context, entry *audit.Entry) error
}

// Worker consumes audit entries from the recorder and persists them.
// Persistence failures are logged and the entry is dropped; the mutation the
// entry describes has already succeeded and must not be affected.
type Worker struct {
	store     audit.Store
	inbox     <-chan *audit.Entry
	publisher Publisher // optional
	logger    *slog.Logger
}

func New(store audit.Store, inbox <-chan *audit.Entry, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		inbox:     inbox,
		publisher: publisher,
		logger:    logger.With("component", "audit_worker"),
	}
}

// Run processes entries until ctx is cancelled, then drains whatever is
// already buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case entry := <-w.inbox:
			w.process(ctx, entry)
		}
	}
}

func (w *Worker) drain() {
	// Detached context: the request-scoped one is already cancelled.
	ctx := context.Background()
	for {
		select {
		case entry := <-w.inbox:
			w.process(ctx, entry)
		default:
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, entry *audit.Entry) {
	if err := w.store.Append(ctx, entry); err != nil {
		w.logger.Error("failed to persist audit entry",
			"error", err,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
		)
		return
	}
	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, entry); err != nil {
			w.logger.Error("failed to publish audit entry",
				"error", err,
				"entry_id", entry.ID.String(),
			)
		}
	}
}
