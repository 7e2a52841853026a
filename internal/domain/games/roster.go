package games

import "time"

// RemovalOutcome describes what a successful RemoveParticipant did.
type RemovalOutcome struct {
	UserID string
	// Cancelled is set when the host left a game with no other players.
	Cancelled bool
}

// RequestJoin appends a pending request for userID. Seats are not consumed until accept.
func (g *Game) RequestJoin(requestID, userID string, profile Profile, now time.Time) (Request, error) {
	if g.IsMember(userID) || g.requestIndexByUser(userID) >= 0 {
		return Request{}, ErrAlreadyMember
	}
	if g.SeatsLeft <= 0 {
		return Request{}, ErrGameFull
	}
	if g.EffectiveStatus(now) != StatusUpcoming {
		return Request{}, ErrGameNotJoinable
	}

	req := Request{
		ID:          requestID,
		UserID:      userID,
		Profile:     profile,
		RequestedAt: now.UTC(),
	}
	g.JoinRequests = append(g.JoinRequests, req)
	return req, nil
}

// WithdrawRequest removes the pending request owned by userID.
func (g *Game) WithdrawRequest(userID string) (Request, error) {
	idx := g.requestIndexByUser(userID)
	if idx < 0 {
		return Request{}, ErrRequestNotFound
	}
	req := g.JoinRequests[idx]
	g.JoinRequests = append(g.JoinRequests[:idx], g.JoinRequests[idx+1:]...)
	return req, nil
}

// AcceptRequest turns a pending request into a Participant and consumes one seat.
// Seat availability is re-checked here because several requests may compete for the last seat.
func (g *Game) AcceptRequest(requestID, actingUserID string, now time.Time) (Participant, error) {
	if !g.IsHost(actingUserID) {
		return Participant{}, ErrForbidden
	}
	if err := terminalError(g.Status); err != nil {
		return Participant{}, err
	}
	idx := g.requestIndexByID(requestID)
	if idx < 0 {
		return Participant{}, ErrRequestNotFound
	}
	if g.SeatsLeft <= 0 {
		return Participant{}, ErrSeatAlreadyFilled
	}

	req := g.JoinRequests[idx]
	g.JoinRequests = append(g.JoinRequests[:idx], g.JoinRequests[idx+1:]...)
	p := Participant{
		UserID:   req.UserID,
		Profile:  req.Profile,
		JoinedAt: now.UTC(),
	}
	g.RegisteredPlayers = append(g.RegisteredPlayers, p)
	g.recomputeSeats()
	return p, nil
}

// RejectRequest discards a pending request without touching seats.
func (g *Game) RejectRequest(requestID, actingUserID string) (Request, error) {
	if !g.IsHost(actingUserID) {
		return Request{}, ErrForbidden
	}
	idx := g.requestIndexByID(requestID)
	if idx < 0 {
		return Request{}, ErrRequestNotFound
	}
	req := g.JoinRequests[idx]
	g.JoinRequests = append(g.JoinRequests[:idx], g.JoinRequests[idx+1:]...)
	return req, nil
}

// RemoveParticipant drops userID from the roster. The host may remove anyone;
// any other member may only remove themself.
func (g *Game) RemoveParticipant(userID, actingUserID string, now time.Time) (RemovalOutcome, error) {
	if !g.IsHost(actingUserID) && userID != actingUserID {
		return RemovalOutcome{}, ErrForbidden
	}
	if err := terminalError(g.Status); err != nil {
		return RemovalOutcome{}, err
	}

	if g.IsHost(userID) {
		if len(g.RegisteredPlayers) > 0 {
			return RemovalOutcome{}, ErrLastHostWithPlayers
		}
		if err := g.Cancel(actingUserID, now); err != nil {
			return RemovalOutcome{}, err
		}
		return RemovalOutcome{UserID: userID, Cancelled: true}, nil
	}

	idx := g.participantIndex(userID)
	if idx < 0 {
		return RemovalOutcome{}, ErrNotParticipant
	}
	g.RegisteredPlayers = append(g.RegisteredPlayers[:idx], g.RegisteredPlayers[idx+1:]...)
	if a := g.attendanceIndex(userID); a >= 0 {
		g.Attendance = append(g.Attendance[:a], g.Attendance[a+1:]...)
	}
	g.recomputeSeats()
	return RemovalOutcome{UserID: userID}, nil
}

// recomputeSeats derives SeatsLeft from the roster; the host holds one reserved seat.
func (g *Game) recomputeSeats() {
	g.SeatsLeft = g.MaxPlayers - len(g.RegisteredPlayers) - 1
}
