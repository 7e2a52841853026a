package store

import (
	"context"
	"sort"
	"sync"

	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
)

// MemoryStore keeps games and users in memory. Every write is a compare-and-swap
// on the document version, matching the contract of MongoStore.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]domaingames.Game
	users map[string]domainusers.User
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]domaingames.Game),
		users: make(map[string]domainusers.User),
	}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateGame inserts a new game at version 1.
func (s *MemoryStore) CreateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error) {
	if err := ctx.Err(); err != nil {
		return domaingames.Game{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[g.ID]; exists {
		return domaingames.Game{}, ErrAlreadyExists
	}
	g = g.Clone()
	g.Version = 1
	s.games[g.ID] = g
	return g.Clone(), nil
}

// GetGame retrieves a game by ID.
func (s *MemoryStore) GetGame(ctx context.Context, id string) (domaingames.Game, error) {
	if err := ctx.Err(); err != nil {
		return domaingames.Game{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return domaingames.Game{}, ErrNotFound
	}
	return g.Clone(), nil
}

// ListGames returns copies of the games matching filter ordered by start time.
func (s *MemoryStore) ListGames(ctx context.Context, filter GameFilter) ([]domaingames.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domaingames.Game, 0, len(s.games))
	for _, g := range s.games {
		if !matchesFilter(g, filter) {
			continue
		}
		result = append(result, g.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartsAt.Before(result[j].StartsAt)
	})
	return result, nil
}

// UpdateGame replaces the game only if the stored version equals g.Version.
// It returns the stored copy with its new version.
func (s *MemoryStore) UpdateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error) {
	if err := ctx.Err(); err != nil {
		return domaingames.Game{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.games[g.ID]
	if !ok {
		return domaingames.Game{}, ErrNotFound
	}
	if current.Version != g.Version {
		return domaingames.Game{}, ErrVersionConflict
	}
	g = g.Clone()
	g.Version++
	s.games[g.ID] = g
	return g.Clone(), nil
}

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (domainusers.User, error) {
	if err := ctx.Err(); err != nil {
		return domainusers.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domainusers.User{}, ErrNotFound
	}
	return u.Clone(), nil
}

// ListUsers returns copies of every user ordered by ID.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]domainusers.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domainusers.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SaveUser writes u if the stored version equals u.Version. Version 0 means
// "insert": it conflicts when the user already exists.
func (s *MemoryStore) SaveUser(ctx context.Context, u domainusers.User) (domainusers.User, error) {
	if err := ctx.Err(); err != nil {
		return domainusers.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.users[u.ID]
	switch {
	case !exists && u.Version != 0:
		return domainusers.User{}, ErrNotFound
	case exists && current.Version != u.Version:
		return domainusers.User{}, ErrVersionConflict
	}
	u = u.Clone()
	u.Version++
	s.users[u.ID] = u
	return u.Clone(), nil
}

func matchesFilter(g domaingames.Game, filter GameFilter) bool {
	if filter.HostID != "" && g.HostID != filter.HostID {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, st := range filter.Statuses {
		if string(g.Status) == st {
			return true
		}
	}
	return false
}
