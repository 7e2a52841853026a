package testutil

import (
	"context"
	"errors"
	"sync"

	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/store"
)

// FaultyStore wraps a MemoryStore and injects failures into writes.
type FaultyStore struct {
	*store.MemoryStore

	mu sync.Mutex
	// GameConflicts makes the next N UpdateGame calls lose a version race.
	GameConflicts int
	// FailUserSaves makes SaveUser fail for the listed user ids.
	FailUserSaves map[string]error
	// FailUserSaveAfter lets the first N saves of a failing user through.
	FailUserSaveAfter map[string]int
	userSaves         map[string]int
	gameWrites        int
}

func NewFaultyStore() *FaultyStore {
	return &FaultyStore{
		MemoryStore:       store.NewMemoryStore(),
		FailUserSaves:     map[string]error{},
		FailUserSaveAfter: map[string]int{},
		userSaves:         map[string]int{},
	}
}

// ErrInjected is the default injected failure.
var ErrInjected = errors.New("injected store failure")

func (s *FaultyStore) UpdateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error) {
	s.mu.Lock()
	s.gameWrites++
	if s.GameConflicts > 0 {
		s.GameConflicts--
		s.mu.Unlock()
		return domaingames.Game{}, store.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.MemoryStore.UpdateGame(ctx, g)
}

func (s *FaultyStore) SaveUser(ctx context.Context, u domainusers.User) (domainusers.User, error) {
	s.mu.Lock()
	s.userSaves[u.ID]++
	err, failing := s.FailUserSaves[u.ID]
	allowed := s.FailUserSaveAfter[u.ID]
	count := s.userSaves[u.ID]
	s.mu.Unlock()

	if failing && count > allowed {
		if err == nil {
			err = ErrInjected
		}
		return domainusers.User{}, err
	}
	return s.MemoryStore.SaveUser(ctx, u)
}

// GameWrites returns how many UpdateGame calls were attempted.
func (s *FaultyStore) GameWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameWrites
}

// SeedUser saves u through the underlying store, bypassing injected faults.
func (s *FaultyStore) SeedUser(u domainusers.User) domainusers.User {
	saved, err := s.MemoryStore.SaveUser(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return saved
}
