package games

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pickup-games/internal/apperrors"
	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/logging"
	"pickup-games/internal/metrics"
	"pickup-games/internal/notify"
	"pickup-games/internal/store"
)

const defaultMaxAttempts = 5

// ErrConcurrentModification is returned when every conditional write attempt lost a race.
var ErrConcurrentModification = apperrors.New(apperrors.KindConflict, apperrors.CodeConcurrentModification, "game was modified concurrently, try again")

// Store defines the contract for persisting and retrieving games.
// UpdateGame must fail with store.ErrVersionConflict when g.Version is stale.
type Store interface {
	CreateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error)
	GetGame(ctx context.Context, id string) (domaingames.Game, error)
	ListGames(ctx context.Context, filter store.GameFilter) ([]domaingames.Game, error)
	UpdateGame(ctx context.Context, g domaingames.Game) (domaingames.Game, error)
}

// UserReader resolves the viewer's rating marks.
type UserReader interface {
	GetUser(ctx context.Context, id string) (domainusers.User, error)
}

// ProfileSource returns the display snapshot copied into rosters.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (domaingames.Profile, error)
}

// ActivityRecorder adds a completed game to a member's history.
type ActivityRecorder interface {
	RecordParticipation(ctx context.Context, userID, gameID string) error
}

// Options carries the optional collaborators of Service.
type Options struct {
	Users       UserReader
	Profiles    ProfileSource
	Activity    ActivityRecorder
	Notifier    notify.Dispatcher
	Recorder    *metrics.Recorder
	Logger      *slog.Logger
	Now         func() time.Time
	Location    *time.Location
	MaxAttempts int
	NewID       func() string
}

// Service coordinates game operations: load, apply a domain mutation, and
// write back conditionally on the version that was read.
type Service struct {
	store       Store
	users       UserReader
	profiles    ProfileSource
	activity    ActivityRecorder
	notifier    notify.Dispatcher
	recorder    *metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
	loc         *time.Location
	maxAttempts int
	newID       func() string
}

// NewService constructs a Service with the provided Store.
func NewService(st Store, opts Options) *Service {
	s := &Service{
		store:       st,
		users:       opts.Users,
		profiles:    opts.Profiles,
		activity:    opts.Activity,
		notifier:    opts.Notifier,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         opts.Now,
		loc:         opts.Location,
		maxAttempts: opts.MaxAttempts,
		newID:       opts.NewID,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// mutation applies one domain change to g. It may run more than once when a
// concurrent writer wins, so it must derive everything from g.
type mutation func(g *domaingames.Game, now time.Time) error

// mutate re-reads the game on every attempt so guards such as the host check
// and seat availability always see the latest committed state.
func (s *Service) mutate(ctx context.Context, gameID string, fn mutation) (domaingames.Game, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.store.GetGame(ctx, gameID)
		if err != nil {
			return domaingames.Game{}, translateStoreError(err)
		}

		next := current.Clone()
		if err := fn(&next, s.now()); err != nil {
			return domaingames.Game{}, err
		}
		if err := next.CheckInvariants(); err != nil {
			return domaingames.Game{}, apperrors.Internal("roster invariant violated", err)
		}

		saved, err := s.store.UpdateGame(ctx, next)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return domaingames.Game{}, translateStoreError(err)
		}
		logging.Debug(logging.FromContext(ctx, s.logger), "version conflict, retrying",
			logging.FieldGameID, gameID,
			logging.FieldAttempt, attempt,
		)
	}
	return domaingames.Game{}, ErrConcurrentModification
}

// observe records metrics and logs the outcome of op.
func (s *Service) observe(ctx context.Context, op, gameID, userID string, start time.Time, err error) {
	s.recorder.RecordOperation(op, time.Since(start), err)

	logger := logging.FromContext(ctx, s.logger)
	if logger == nil {
		return
	}
	args := []any{logging.FieldOp, op, logging.FieldGameID, gameID, logging.FieldUserID, userID}
	switch kind := apperrors.KindOf(err); {
	case err == nil:
		logger.Info("game operation", args...)
	case kind == apperrors.KindInternal:
		logging.Error(logger, "game operation failed", err, args...)
	default:
		args = append(args, logging.FieldCode, string(apperrors.CodeOf(err)))
		logger.Warn("game operation rejected", args...)
	}
}

// recordHistory gives every member of a completed game a history entry.
// Failures are logged for reconciliation and never undo the completion.
func (s *Service) recordHistory(ctx context.Context, g domaingames.Game) {
	if s.activity == nil {
		return
	}
	for _, userID := range g.MemberIDs() {
		if err := s.activity.RecordParticipation(ctx, userID, g.ID); err != nil {
			logging.Error(logging.FromContext(ctx, s.logger), "activity history not recorded", err,
				logging.FieldGameID, g.ID,
				logging.FieldUserID, userID,
				logging.FieldReconcile, true,
			)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, event notify.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.notifier.Dispatch(ctx, event); err != nil {
		logging.Warn(logging.FromContext(ctx, s.logger), "notification not queued",
			logging.FieldEvent, string(event.Type),
			logging.FieldGameID, event.GameID,
			"err", err,
		)
	}
}

func (s *Service) profile(ctx context.Context, userID string) (domaingames.Profile, error) {
	if s.profiles == nil {
		return domaingames.Profile{}, nil
	}
	return s.profiles.Profile(ctx, userID)
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domaingames.ErrGameNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Internal("request aborted", err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Internal("game store", err)
}
