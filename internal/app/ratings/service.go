package ratings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pickup-games/internal/apperrors"
	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/logging"
	"pickup-games/internal/metrics"
	"pickup-games/internal/store"
)

const (
	defaultMaxAttempts = 5
	successMessage     = "Rating submitted successfully"
)

var errConcurrentUserWrite = apperrors.New(apperrors.KindConflict, apperrors.CodeConcurrentModification, "user was modified concurrently, try again")

// errUnchanged lets a user mutation skip the write.
var errUnchanged = errors.New("ratings: nothing to change")

// GameReader loads the game a rating refers to.
type GameReader interface {
	GetGame(ctx context.Context, id string) (domaingames.Game, error)
}

// UserStore reads and conditionally writes user documents.
type UserStore interface {
	GetUser(ctx context.Context, id string) (domainusers.User, error)
	SaveUser(ctx context.Context, u domainusers.User) (domainusers.User, error)
}

// Input is one rating submitted by the caller.
type Input struct {
	RateeID string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Result is returned to the rater once both sides are written.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service records peer ratings across the rater and ratee documents.
// The two writes are not atomic: the rater side is written first and
// compensated if the ratee side fails.
type Service struct {
	games       GameReader
	users       UserStore
	recorder    *metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
	maxAttempts int
}

// NewService constructs a Service. A nil now uses time.Now.
func NewService(games GameReader, users UserStore, recorder *metrics.Recorder, logger *slog.Logger, now func() time.Time, maxAttempts int) *Service {
	if now == nil {
		now = time.Now
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Service{
		games:       games,
		users:       users,
		recorder:    recorder,
		logger:      logger,
		now:         now,
		maxAttempts: maxAttempts,
	}
}

// Rate lets raterID rate in.RateeID for a completed game they both belonged to.
func (s *Service) Rate(ctx context.Context, gameID, raterID string, in Input) (res Result, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, gameID, raterID, in.RateeID, start, err) }()

	if err := domainusers.ValidateRating(raterID, in.RateeID, in.Rating); err != nil {
		return Result{}, err
	}

	g, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, domaingames.ErrGameNotFound
		}
		return Result{}, apperrors.Internal("game store", err)
	}
	if g.Status != domaingames.StatusCompleted {
		return Result{}, domaingames.ErrGameNotCompleted
	}
	for _, id := range []string{raterID, in.RateeID} {
		if !g.IsMember(id) {
			return Result{}, domaingames.ErrNotParticipant.WithMetadata(map[string]string{"userId": id})
		}
	}

	rater, err := loadUser(ctx, s.users, raterID)
	if err != nil {
		return Result{}, err
	}
	ratee, err := loadUser(ctx, s.users, in.RateeID)
	if err != nil {
		return Result{}, err
	}
	if rater.HasRated(gameID, in.RateeID) || ratee.HasRatingFrom(gameID, raterID) {
		return Result{}, domainusers.ErrDuplicateRating
	}

	err = updateUser(ctx, s.users, raterID, s.maxAttempts, func(u *domainusers.User) error {
		return u.MarkRated(gameID, in.RateeID)
	})
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	err = updateUser(ctx, s.users, in.RateeID, s.maxAttempts, func(u *domainusers.User) error {
		return u.ReceiveRating(gameID, raterID, in.Rating, in.Comment, now)
	})
	if errors.Is(err, domainusers.ErrDuplicateRating) {
		// The ratee side already holds this rating, so the new rater mark
		// brings the pair back in line.
		return Result{}, err
	}
	if err != nil {
		s.compensate(ctx, gameID, raterID, in.RateeID, err)
		return Result{}, err
	}

	return Result{Success: true, Message: successMessage}, nil
}

// compensate removes the rater mark after the ratee write failed so the rater may retry.
func (s *Service) compensate(ctx context.Context, gameID, raterID, rateeID string, cause error) {
	err := updateUser(ctx, s.users, raterID, s.maxAttempts, func(u *domainusers.User) error {
		if !u.UnmarkRated(gameID, rateeID) {
			return errUnchanged
		}
		return nil
	})
	logger := logging.FromContext(ctx, s.logger)
	if err != nil {
		logging.Error(logger, "rating recorded on rater only, compensation failed", err,
			logging.FieldGameID, gameID,
			logging.FieldUserID, raterID,
			logging.FieldRateeID, rateeID,
			logging.FieldReconcile, true,
			"cause", cause,
		)
		return
	}
	logging.Warn(logger, "rating rolled back after ratee write failed",
		logging.FieldGameID, gameID,
		logging.FieldUserID, raterID,
		logging.FieldRateeID, rateeID,
		"cause", cause,
	)
}

func (s *Service) observe(ctx context.Context, gameID, raterID, rateeID string, start time.Time, err error) {
	s.recorder.RecordOperation("rate_player", time.Since(start), err)

	logger := logging.FromContext(ctx, s.logger)
	args := []any{
		logging.FieldOp, "rate_player",
		logging.FieldGameID, gameID,
		logging.FieldUserID, raterID,
		logging.FieldRateeID, rateeID,
	}
	switch {
	case err == nil:
		logging.Info(logger, "rating submitted", args...)
	case apperrors.KindOf(err) == apperrors.KindInternal:
		logging.Error(logger, "rating failed", err, args...)
	default:
		logging.Warn(logger, "rating rejected", append(args, logging.FieldCode, string(apperrors.CodeOf(err)))...)
	}
}

// loadUser returns the stored user, or a fresh document when none exists yet.
func loadUser(ctx context.Context, users UserStore, id string) (domainusers.User, error) {
	u, err := users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domainusers.User{ID: id}, nil
	}
	if err != nil {
		return domainusers.User{}, apperrors.Internal("user store", err)
	}
	return u, nil
}

// updateUser applies fn to the latest copy of user id and writes it back
// conditionally, re-reading after every lost race.
func updateUser(ctx context.Context, users UserStore, id string, maxAttempts int, fn func(u *domainusers.User) error) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		u, err := loadUser(ctx, users, id)
		if err != nil {
			return err
		}
		next := u.Clone()
		if err := fn(&next); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}

		_, err = users.SaveUser(ctx, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return apperrors.Internal("user store", err)
		}
	}
	return errConcurrentUserWrite
}
