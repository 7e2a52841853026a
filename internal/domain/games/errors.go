package games

import "pickup-games/internal/apperrors"

var (
	ErrForbidden           = apperrors.New(apperrors.KindForbidden, apperrors.CodeForbidden, "only the host may perform this action")
	ErrGameNotFound        = apperrors.New(apperrors.KindNotFound, apperrors.CodeGameNotFound, "game not found")
	ErrRequestNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.CodeRequestNotFound, "join request not found")
	ErrNotParticipant      = apperrors.New(apperrors.KindNotFound, apperrors.CodeNotParticipant, "user is not a participant of this game")
	ErrAlreadyMember       = apperrors.New(apperrors.KindConflict, apperrors.CodeAlreadyMember, "user already joined or requested to join this game")
	ErrGameFull            = apperrors.New(apperrors.KindInvalidState, apperrors.CodeGameFull, "game is full")
	ErrSeatAlreadyFilled   = apperrors.New(apperrors.KindConflict, apperrors.CodeSeatAlreadyFilled, "seat already filled")
	ErrGameNotJoinable     = apperrors.New(apperrors.KindInvalidState, apperrors.CodeGameNotJoinable, "game is not open for join requests")
	ErrGameCompleted       = apperrors.New(apperrors.KindInvalidState, apperrors.CodeGameCompleted, "game is already completed")
	ErrGameNotCompleted    = apperrors.New(apperrors.KindInvalidState, apperrors.CodeGameNotCompleted, "game is not completed yet")
	ErrGameCancelled       = apperrors.New(apperrors.KindInvalidState, apperrors.CodeGameCancelled, "game is cancelled")
	ErrAttendanceNotOpen   = apperrors.New(apperrors.KindInvalidState, apperrors.CodeAttendanceNotOpen, "attendance opens once the game has started")
	ErrLastHostWithPlayers = apperrors.New(apperrors.KindInvalidState, apperrors.CodeLastHostWithPlayers, "host must transfer hosting before leaving a game with players")
)

// terminalError returns the error describing why a terminal game rejects mutation.
func terminalError(s Status) error {
	switch s {
	case StatusCompleted:
		return ErrGameCompleted
	case StatusCancelled:
		return ErrGameCancelled
	default:
		return nil
	}
}
