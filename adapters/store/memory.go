package store

import (
	"context"
	"sync"

	"github.com/garmlabs/garm/core"
	"github.com/garmlabs/garm/ports"
)

// MemoryStore is an in-memory PrincipalStore mirroring the PostgreSQL
// semantics, including the compare-and-swap rotation.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]*core.PrincipalRecord
	byUsername map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		byID:       make(map[int64]*core.PrincipalRecord),
		byUsername: make(map[string]int64),
	}
}

var _ ports.PrincipalStore = (*MemoryStore)(nil)

// Create enforces username uniqueness like the database constraint does.
func (s *MemoryStore) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[username]; exists {
		return 0, core.ErrUsernameTaken
	}

	id := s.nextID
	s.nextID++

	s.byID[id] = &core.PrincipalRecord{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
	}
	s.byUsername[username] = id

	return id, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*core.PrincipalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return s.copyRecord(id), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*core.PrincipalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return nil, nil
	}
	return s.copyRecord(id), nil
}

func (s *MemoryStore) SetRefreshToken(ctx context.Context, id int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.byID[id]; ok {
		record.RefreshToken = token
	}
	return nil
}

func (s *MemoryStore) RotateRefreshToken(ctx context.Context, id int64, old, new string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok || record.RefreshToken != old || old == "" {
		return false, nil
	}

	record.RefreshToken = new
	return true, nil
}

func (s *MemoryStore) ClearRefreshToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return false, nil
	}

	cleared := false
	for _, record := range s.byID {
		if record.RefreshToken == token {
			record.RefreshToken = ""
			cleared = true
		}
	}

	return cleared, nil
}

// copyRecord returns a snapshot so callers never alias internal state.
// Callers must hold mu.
func (s *MemoryStore) copyRecord(id int64) *core.PrincipalRecord {
	record := *s.byID[id]
	return &record
}
