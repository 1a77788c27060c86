package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verimail/internal/domain"
)

// Store is an in-memory credential store keyed by (owner_id, value). It is
// the reference implementation of the store contract: Consume performs the
// existence, consumed and expiry checks and the consumed-flag write under
// one lock, so it is linearizable per credential just like the DynamoDB
// conditional update. Used for local development (STORE_DRIVER=memory) and
// in tests.
type Store struct {
	mu    sync.Mutex
	owned map[string]map[string]*domain.Credential // owner_id -> value -> credential
}

func New() *Store {
	return &Store{owned: make(map[string]map[string]*domain.Credential)}
}

func (s *Store) Put(_ context.Context, c *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byValue, ok := s.owned[c.OwnerID]
	if !ok {
		byValue = make(map[string]*domain.Credential)
		s.owned[c.OwnerID] = byValue
	}
	clone := *c
	byValue[c.Value] = &clone
	return nil
}

func (s *Store) GetNewestByOwner(_ context.Context, ownerID string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *domain.Credential
	for _, c := range s.owned[ownerID] {
		if newest == nil || c.CreatedAt > newest.CreatedAt {
			newest = c
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("no credentials for owner: %w", domain.ErrNotFound)
	}
	clone := *newest
	return &clone, nil
}

func (s *Store) Consume(_ context.Context, ownerID, value string, now time.Time) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.owned[ownerID][value]
	if !ok {
		return nil, fmt.Errorf("credential not found: %w", domain.ErrNotFound)
	}
	if c.Consumed {
		return nil, fmt.Errorf("credential already consumed: %w", domain.ErrAlreadyConsumed)
	}
	if c.ExpiresAt <= now.Unix() {
		return nil, fmt.Errorf("credential expired: %w", domain.ErrExpired)
	}
	c.Consumed = true
	clone := *c
	return &clone, nil
}

func (s *Store) DeleteByOwner(_ context.Context, ownerID, exceptValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for value := range s.owned[ownerID] {
		if value != exceptValue {
			delete(s.owned[ownerID], value)
		}
	}
	return nil
}
