package apperrors

const (
	CodeInternal               Code = "INTERNAL"
	CodeValidation             Code = "VALIDATION"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeGameNotFound           Code = "GAME_NOT_FOUND"
	CodeRequestNotFound        Code = "REQUEST_NOT_FOUND"
	CodeNotParticipant         Code = "NOT_PARTICIPANT"
	CodeUserNotFound           Code = "USER_NOT_FOUND"
	CodeAlreadyMember          Code = "ALREADY_MEMBER"
	CodeGameFull               Code = "GAME_FULL"
	CodeSeatAlreadyFilled      Code = "SEAT_ALREADY_FILLED"
	CodeGameNotJoinable        Code = "GAME_NOT_JOINABLE"
	CodeGameCompleted          Code = "GAME_COMPLETED"
	CodeGameNotCompleted       Code = "GAME_NOT_COMPLETED"
	CodeGameCancelled          Code = "GAME_CANCELLED"
	CodeAttendanceNotOpen      Code = "ATTENDANCE_NOT_OPEN"
	CodeLastHostWithPlayers    Code = "LAST_HOST_WITH_PLAYERS"
	CodeDuplicateRating        Code = "DUPLICATE_RATING"
	CodeSelfRating             Code = "SELF_RATING"
	CodeInvalidRating          Code = "INVALID_RATING"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
)

// HTTPStatus maps an error kind to the HTTP status the transport layer returns.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return 401
	case KindForbidden:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindInvalidState:
		return 422
	case KindValidation:
		return 400
	default:
		return 500
	}
}
