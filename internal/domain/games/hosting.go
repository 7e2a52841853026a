package games

import "time"

// TransferHost hands the host role to an existing participant. The previous host
// becomes a participant with oldHostProfile, so the occupied seat count is unchanged.
func (g *Game) TransferHost(actingUserID, newHostID string, oldHostProfile Profile, now time.Time) error {
	if !g.IsHost(actingUserID) {
		return ErrForbidden
	}
	if err := terminalError(g.Status); err != nil {
		return err
	}
	idx := g.participantIndex(newHostID)
	if idx < 0 {
		return ErrNotParticipant
	}

	g.RegisteredPlayers = append(g.RegisteredPlayers[:idx], g.RegisteredPlayers[idx+1:]...)
	g.RegisteredPlayers = append(g.RegisteredPlayers, Participant{
		UserID:   g.HostID,
		Profile:  oldHostProfile,
		JoinedAt: now.UTC(),
	})
	g.HostID = newHostID
	g.recomputeSeats()
	return nil
}
