package audit

import (
	"context"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/pagination"
)

// Store persists audit entries. Append is the only write path; read paths
// exclude soft-deleted entries and return newest first.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	FindByID(ctx context.Context, entryID id.EntryID) (*Entry, error)
	List(ctx context.Context, page pagination.Page) ([]*Entry, int, error)
}
