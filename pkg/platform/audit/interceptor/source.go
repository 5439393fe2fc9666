package interceptor

import (
	"context"
	"encoding/json"
	"errors"

	"gatehouse/pkg/platform/sentinel"
)

// SnapshotFunc loads the current state of one entity type.
type SnapshotFunc func(ctx context.Context, entityID string) (json.RawMessage, error)

// Sources is a SnapshotSource backed by per-entity-type loaders. The
// application registers a loader for each entity type it can snapshot;
// unregistered types yield no before-image rather than an error.
type Sources struct {
	byType map[string]SnapshotFunc
}

func NewSources() *Sources {
	return &Sources{byType: make(map[string]SnapshotFunc)}
}

// Register installs the loader for an entity type, replacing any previous one.
func (s *Sources) Register(entityType string, fn SnapshotFunc) {
	s.byType[entityType] = fn
}

func (s *Sources) Snapshot(ctx context.Context, entityType, entityID string) (json.RawMessage, error) {
	fn, ok := s.byType[entityType]
	if !ok {
		return nil, nil
	}
	raw, err := fn(ctx, entityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}
