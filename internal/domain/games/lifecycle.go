package games

import (
	"fmt"
	"time"
)

// transitions lists the legal stored-status moves. Ongoing is derived from the
// clock and is never the source of a stored transition.
var transitions = map[Status][]Status{
	StatusUpcoming: {StatusCompleted, StatusCancelled},
	StatusOngoing:  {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a game may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EffectiveStatus derives the status a reader should see at now: an upcoming
// game whose start time has passed reads as ongoing.
func (g Game) EffectiveStatus(now time.Time) Status {
	if g.Status == StatusUpcoming && !g.StartsAt.IsZero() && !now.Before(g.StartsAt) {
		return StatusOngoing
	}
	return g.Status
}

// HasStarted reports whether the scheduled start is at or before now.
func (g Game) HasStarted(now time.Time) bool {
	return !g.StartsAt.IsZero() && !now.Before(g.StartsAt)
}

// Cancel moves the game to cancelled. Only the host may cancel.
func (g *Game) Cancel(actingUserID string, now time.Time) error {
	if !g.IsHost(actingUserID) {
		return ErrForbidden
	}
	if err := terminalError(g.Status); err != nil {
		return err
	}
	at := now.UTC()
	g.Status = StatusCancelled
	g.CancelledAt = &at
	return nil
}

// complete stamps completion exactly once.
func (g *Game) complete(now time.Time) error {
	if !CanTransition(g.Status, StatusCompleted) {
		return fmt.Errorf("illegal transition %s -> %s", g.Status, StatusCompleted)
	}
	at := now.UTC()
	g.Status = StatusCompleted
	g.CompletedAt = &at
	return nil
}
