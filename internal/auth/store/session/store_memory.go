package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map. It favors clarity over performance
// and backs unit tests and single-process development runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindActiveByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.Revoked() {
		return nil, sentinel.ErrNotFound
	}
	found := *session
	return &found, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *session
	return &found, nil
}

func (s *InMemoryStore) Touch(_ context.Context, sessionID id.SessionID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	session.LastUsedAt = now
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, sessionID id.SessionID, now time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	session.ApplyRevocation(now)
	found := *session
	return &found, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, includeRevoked bool) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.UserID != userID {
			continue
		}
		if session.Revoked() && !includeRevoked {
			continue
		}
		found := *session
		out = append(out, &found)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) FindLatestActiveByUser(_ context.Context, userID id.UserID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Session
	for _, session := range s.sessions {
		if session.UserID != userID || session.Revoked() {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			latest = session
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	found := *latest
	return &found, nil
}

func (s *InMemoryStore) List(_ context.Context, page pagination.Page, includeRevoked bool) ([]*models.Session, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*models.Session
	for _, session := range s.sessions {
		if session.Revoked() && !includeRevoked {
			continue
		}
		found := *session
		all = append(all, &found)
	}
	sortNewestFirst(all)
	start, end := page.Slice(len(all))
	return all[start:end], len(all), nil
}

func sortNewestFirst(sessions []*models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID.String() > sessions[j].ID.String()
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}
