package account

import (
	"context"
	"strings"
	"sync"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and development runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.UserID]*models.Account
	byEmail  map[string]id.UserID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.UserID]*models.Account),
		byEmail:  make(map[string]id.UserID),
	}
}

// Seed registers an account, keyed case-insensitively by email.
func (s *InMemoryStore) Seed(acct *models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *acct
	s.accounts[acct.ID] = &stored
	s.byEmail[strings.ToLower(acct.Email)] = acct.ID
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *acct
	return &found, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.accounts[userID]
	return &found, nil
}
