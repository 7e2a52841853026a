package users

import (
	"time"

	"pickup-games/internal/apperrors"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrDuplicateRating = apperrors.New(apperrors.KindConflict, apperrors.CodeDuplicateRating, "player already rated for this game")
	ErrSelfRating      = apperrors.New(apperrors.KindValidation, apperrors.CodeSelfRating, "players cannot rate themselves")
	ErrInvalidRating   = apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidRating, "rating must be between 1 and 5")
	ErrUserNotFound    = apperrors.New(apperrors.KindNotFound, apperrors.CodeUserNotFound, "user not found")
)

// ValidateRating checks the score range and the rater/ratee pair.
func ValidateRating(raterID, rateeID string, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if raterID == rateeID {
		return ErrSelfRating
	}
	return nil
}

// HasRated reports whether u already rated rateeID for gameID.
func (u User) HasRated(gameID, rateeID string) bool {
	a, ok := u.Activity(gameID)
	if !ok {
		return false
	}
	for _, id := range a.PlayersRated {
		if id == rateeID {
			return true
		}
	}
	return false
}

// HasRatingFrom reports whether u already received a rating from raterID for gameID.
func (u User) HasRatingFrom(gameID, raterID string) bool {
	a, ok := u.Activity(gameID)
	if !ok {
		return false
	}
	for _, r := range a.RatingsReceived {
		if r.FromUserID == raterID {
			return true
		}
	}
	return false
}

// MarkRated records on the rater side that rateeID was rated for gameID.
func (u *User) MarkRated(gameID, rateeID string) error {
	if u.HasRated(gameID, rateeID) {
		return ErrDuplicateRating
	}
	idx := u.ensureActivity(gameID)
	u.ActivityHistory[idx].PlayersRated = append(u.ActivityHistory[idx].PlayersRated, rateeID)
	return nil
}

// UnmarkRated removes a rater-side mark. It reports whether a mark was removed.
func (u *User) UnmarkRated(gameID, rateeID string) bool {
	idx := u.activityIndex(gameID)
	if idx < 0 {
		return false
	}
	marks := u.ActivityHistory[idx].PlayersRated
	for i, id := range marks {
		if id == rateeID {
			u.ActivityHistory[idx].PlayersRated = append(marks[:i], marks[i+1:]...)
			return true
		}
	}
	return false
}

// ReceiveRating appends a rating on the ratee side and refreshes the summary.
func (u *User) ReceiveRating(gameID, raterID string, rating int, comment string, now time.Time) error {
	if u.HasRatingFrom(gameID, raterID) {
		return ErrDuplicateRating
	}
	idx := u.ensureActivity(gameID)
	u.ActivityHistory[idx].RatingsReceived = append(u.ActivityHistory[idx].RatingsReceived, RatingReceived{
		FromUserID: raterID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now.UTC(),
	})
	u.RecomputeStats()
	return nil
}

// RecomputeStats sets AverageRating and TotalRatings across every game.
func (u *User) RecomputeStats() {
	total, sum := 0, 0
	for _, a := range u.ActivityHistory {
		for _, r := range a.RatingsReceived {
			total++
			sum += r.Rating
		}
	}
	u.TotalRatings = total
	if total == 0 {
		u.AverageRating = 0
		return
	}
	u.AverageRating = float64(sum) / float64(total)
}
