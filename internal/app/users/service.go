package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pickup-games/internal/apperrors"
	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/logging"
	"pickup-games/internal/store"
)

const (
	defaultMaxAttempts = 5
	maxNameLength      = 80
)

// Store defines the user persistence contract.
type Store interface {
	GetUser(ctx context.Context, id string) (domainusers.User, error)
	SaveUser(ctx context.Context, u domainusers.User) (domainusers.User, error)
}

// Service reads users and maintains their editable profile.
type Service struct {
	store       Store
	logger      *slog.Logger
	now         func() time.Time
	maxAttempts int
}

// NewService constructs a Service. A nil now uses time.Now.
func NewService(store Store, logger *slog.Logger, now func() time.Time, maxAttempts int) *Service {
	if now == nil {
		now = time.Now
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Service{store: store, logger: logger, now: now, maxAttempts: maxAttempts}
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (domainusers.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return domainusers.User{}, translate(err)
	}
	return u, nil
}

// UpsertProfile creates the user on first write and overwrites the display
// fields afterwards. Ratings and history are never touched here.
func (s *Service) UpsertProfile(ctx context.Context, id string, p domainusers.ProfileUpdate) (domainusers.User, error) {
	p, err := normalizeProfile(p)
	if err != nil {
		return domainusers.User{}, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.store.GetUser(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			current = domainusers.User{ID: id}
		case err != nil:
			return domainusers.User{}, translate(err)
		}

		current.ApplyProfile(p, s.now())
		saved, err := s.store.SaveUser(ctx, current)
		if err == nil {
			logging.Info(logging.FromContext(ctx, s.logger), "profile saved", logging.FieldUserID, id)
			return saved, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return domainusers.User{}, translate(err)
		}
	}
	return domainusers.User{}, apperrors.New(apperrors.KindConflict, apperrors.CodeConcurrentModification, "user was modified concurrently")
}

// RecordParticipation makes sure userID's history has an entry for gameID.
// Users without a stored document are created with only the entry.
func (s *Service) RecordParticipation(ctx context.Context, userID, gameID string) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.store.GetUser(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			current = domainusers.User{ID: userID}
		case err != nil:
			return translate(err)
		}

		if !current.RecordParticipation(gameID) {
			return nil
		}
		current.UpdatedAt = s.now().UTC()
		_, err = s.store.SaveUser(ctx, current)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return translate(err)
		}
	}
	return apperrors.New(apperrors.KindConflict, apperrors.CodeConcurrentModification, "user was modified concurrently")
}

// Profile returns the display snapshot copied into games when userID joins.
// Users without a stored profile get an empty snapshot.
func (s *Service) Profile(ctx context.Context, userID string) (domaingames.Profile, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domaingames.Profile{}, nil
	}
	if err != nil {
		return domaingames.Profile{}, translate(err)
	}
	return domaingames.Profile{
		Name:       u.Name,
		Image:      u.Image,
		SkillLevel: u.SkillLevel,
		Age:        u.Age,
		WhatsApp:   u.WhatsApp,
	}, nil
}

func normalizeProfile(p domainusers.ProfileUpdate) (domainusers.ProfileUpdate, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Image = strings.TrimSpace(p.Image)
	p.SkillLevel = strings.TrimSpace(p.SkillLevel)
	p.WhatsApp = strings.TrimSpace(p.WhatsApp)
	if p.Name == "" {
		return p, apperrors.Validation("name", "name is required")
	}
	if len(p.Name) > maxNameLength {
		return p, apperrors.Validation("name", "name is too long")
	}
	if p.Age < 0 {
		return p, apperrors.Validation("age", "age must not be negative")
	}
	return p, nil
}

func translate(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainusers.ErrUserNotFound
	}
	return apperrors.Internal("user store", err)
}
