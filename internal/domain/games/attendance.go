package games

import (
	"time"

	"pickup-games/internal/apperrors"
)

// AttendanceMarks selects who to mark as attended.
type AttendanceMarks struct {
	PlayerIDs []string `json:"playerIds"`
	MarkAll   bool     `json:"markAll"`
}

// MarkAttendance records attendance for the selected members and completes the
// game once the host and every registered player have attended. Marks only move
// from unattended to attended. It reports whether this call completed the game.
func (g *Game) MarkAttendance(actingUserID string, marks AttendanceMarks, now time.Time) (bool, error) {
	if !g.IsHost(actingUserID) {
		return false, ErrForbidden
	}
	if err := terminalError(g.Status); err != nil {
		return false, err
	}
	if !g.HasStarted(now) {
		return false, ErrAttendanceNotOpen
	}

	targets := marks.PlayerIDs
	if marks.MarkAll {
		targets = g.MemberIDs()
	}
	if len(targets) == 0 {
		return false, apperrors.Validation("playerIds", "playerIds or markAll is required")
	}
	for _, id := range targets {
		if !g.IsMember(id) {
			return false, ErrNotParticipant.WithMetadata(map[string]string{"userId": id})
		}
	}

	stamp := now.UTC()
	for _, id := range targets {
		g.markAttended(id, stamp)
	}

	if !g.everyoneAttended() {
		return false, nil
	}
	if err := g.complete(now); err != nil {
		return false, apperrors.Internal("complete game", err)
	}
	return true, nil
}

func (g *Game) markAttended(userID string, at time.Time) {
	if idx := g.attendanceIndex(userID); idx >= 0 {
		if !g.Attendance[idx].Attended {
			g.Attendance[idx].Attended = true
			g.Attendance[idx].MarkedAt = at
		}
		return
	}
	g.Attendance = append(g.Attendance, AttendanceRecord{UserID: userID, Attended: true, MarkedAt: at})
}

// everyoneAttended is evaluated against the current roster, not a cached count.
func (g Game) everyoneAttended() bool {
	for _, id := range g.MemberIDs() {
		if !g.Attended(id) {
			return false
		}
	}
	return true
}
