package games

import (
	"context"
	"errors"
	"time"

	domaingames "pickup-games/internal/domain/games"
	"pickup-games/internal/notify"
	"pickup-games/internal/store"
)

// Create validates in and stores a new upcoming game hosted by hostID.
func (s *Service) Create(ctx context.Context, hostID string, in domaingames.CreateInput) (g domaingames.Game, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "create_game", g.ID, hostID, start, err) }()

	g, err = domaingames.New(s.newID(), hostID, in, s.now(), s.loc)
	if err != nil {
		return domaingames.Game{}, err
	}
	g, err = s.store.CreateGame(ctx, g)
	if err != nil {
		return domaingames.Game{}, translateStoreError(err)
	}
	return g, nil
}

// RequestJoin files a pending request for userID with their current profile snapshot.
func (s *Service) RequestJoin(ctx context.Context, gameID, userID string) (req domaingames.Request, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "request_join", gameID, userID, start, err) }()

	profile, err := s.profile(ctx, userID)
	if err != nil {
		return domaingames.Request{}, err
	}
	requestID := s.newID()
	_, err = s.mutate(ctx, gameID, func(g *domaingames.Game, now time.Time) error {
		var joinErr error
		req, joinErr = g.RequestJoin(requestID, userID, profile, now)
		return joinErr
	})
	if err != nil {
		return domaingames.Request{}, err
	}
	return req, nil
}

// WithdrawRequest lets userID cancel their own pending request.
func (s *Service) WithdrawRequest(ctx context.Context, gameID, userID string) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "withdraw_request", gameID, userID, start, err) }()

	_, err = s.mutate(ctx, gameID, func(g *domaingames.Game, _ time.Time) error {
		_, withdrawErr := g.WithdrawRequest(userID)
		return withdrawErr
	})
	return err
}

// AcceptRequest admits a pending requester. Two hosts' accepts racing for the
// last seat are serialized by the conditional write: the loser re-reads and
// fails with ErrSeatAlreadyFilled.
func (s *Service) AcceptRequest(ctx context.Context, gameID, requestID, actingUserID string) (g domaingames.Game, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "accept_request", gameID, actingUserID, start, err) }()

	var accepted domaingames.Participant
	g, err = s.mutate(ctx, gameID, func(g *domaingames.Game, now time.Time) error {
		var acceptErr error
		accepted, acceptErr = g.AcceptRequest(requestID, actingUserID, now)
		return acceptErr
	})
	if errors.Is(err, domaingames.ErrSeatAlreadyFilled) {
		s.recorder.RecordSeatConflict()
	}
	if err != nil {
		return domaingames.Game{}, err
	}

	s.dispatch(ctx, notify.Event{
		Type:       notify.EventRequestAccepted,
		GameID:     g.ID,
		ActorID:    actingUserID,
		Recipients: []string{accepted.UserID},
	})
	return g, nil
}

// RejectRequest discards a pending request.
func (s *Service) RejectRequest(ctx context.Context, gameID, requestID, actingUserID string) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "reject_request", gameID, actingUserID, start, err) }()

	_, err = s.mutate(ctx, gameID, func(g *domaingames.Game, _ time.Time) error {
		_, rejectErr := g.RejectRequest(requestID, actingUserID)
		return rejectErr
	})
	return err
}

// RemoveParticipant drops userID. The host may remove anyone; others may only remove themselves.
func (s *Service) RemoveParticipant(ctx context.Context, gameID, userID, actingUserID string) (g domaingames.Game, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "remove_participant", gameID, actingUserID, start, err) }()

	var outcome domaingames.RemovalOutcome
	g, err = s.mutate(ctx, gameID, func(g *domaingames.Game, now time.Time) error {
		var removeErr error
		outcome, removeErr = g.RemoveParticipant(userID, actingUserID, now)
		return removeErr
	})
	if err != nil {
		return domaingames.Game{}, err
	}

	if outcome.Cancelled {
		s.dispatch(ctx, cancelledEvent(g, actingUserID))
		return g, nil
	}
	s.dispatch(ctx, notify.Event{
		Type:       notify.EventPlayerRemoved,
		GameID:     g.ID,
		ActorID:    actingUserID,
		Recipients: []string{userID, g.HostID},
		Data:       map[string]string{"userId": userID},
	})
	return g, nil
}

// Leave removes userID from the game on their own behalf.
func (s *Service) Leave(ctx context.Context, gameID, userID string) (domaingames.Game, error) {
	return s.RemoveParticipant(ctx, gameID, userID, userID)
}

// TransferHost hands the host role to a current participant.
func (s *Service) TransferHost(ctx context.Context, gameID, actingUserID, newHostID string) (g domaingames.Game, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "transfer_host", gameID, actingUserID, start, err) }()

	profile, err := s.profile(ctx, actingUserID)
	if err != nil {
		return domaingames.Game{}, err
	}
	g, err = s.mutate(ctx, gameID, func(g *domaingames.Game, now time.Time) error {
		return g.TransferHost(actingUserID, newHostID, profile, now)
	})
	if err != nil {
		return domaingames.Game{}, err
	}

	s.dispatch(ctx, notify.Event{
		Type:       notify.EventHostTransferred,
		GameID:     g.ID,
		ActorID:    actingUserID,
		Recipients: g.MemberIDs(),
		Data:       map[string]string{"previousHostId": actingUserID, "hostId": newHostID},
	})
	return g, nil
}

// MarkAttendance records attendance and completes the game once every member attended.
func (s *Service) MarkAttendance(ctx context.Context, gameID, actingUserID string, marks domaingames.AttendanceMarks) (g domaingames.Game, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "mark_attendance", gameID, actingUserID, start, err) }()

	var completed bool
	g, err = s.mutate(ctx, gameID, func(g *domaingames.Game, now time.Time) error {
		var markErr error
		completed, markErr = g.MarkAttendance(actingUserID, marks, now)
		return markErr
	})
	if err != nil {
		return domaingames.Game{}, err
	}

	if completed {
		s.recordHistory(ctx, g)
		s.dispatch(ctx, notify.Event{
			Type:       notify.EventGameCompleted,
			GameID:     g.ID,
			ActorID:    actingUserID,
			Recipients: g.MemberIDs(),
		})
	}
	return g, nil
}

// Cancel ends a game that has not completed yet.
func (s *Service) Cancel(ctx context.Context, gameID, actingUserID string) (g domaingames.Game, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "cancel_game", gameID, actingUserID, start, err) }()

	g, err = s.mutate(ctx, gameID, func(g *domaingames.Game, now time.Time) error {
		return g.Cancel(actingUserID, now)
	})
	if err != nil {
		return domaingames.Game{}, err
	}
	s.dispatch(ctx, cancelledEvent(g, actingUserID))
	return g, nil
}

func cancelledEvent(g domaingames.Game, actingUserID string) notify.Event {
	recipients := g.MemberIDs()
	for _, r := range g.JoinRequests {
		recipients = append(recipients, r.UserID)
	}
	return notify.Event{
		Type:       notify.EventGameCancelled,
		GameID:     g.ID,
		ActorID:    actingUserID,
		Recipients: recipients,
	}
}

// Get returns the game as seen by viewerID.
func (s *Service) Get(ctx context.Context, gameID, viewerID string) (View, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return View{}, translateStoreError(err)
	}
	return s.View(ctx, g, viewerID), nil
}

// ListFilter narrows List. Status matches the effective status.
type ListFilter struct {
	Status string
	HostID string
}

// List returns the games matching filter ordered by start time.
func (s *Service) List(ctx context.Context, filter ListFilter, viewerID string) ([]View, error) {
	want := domaingames.Status(filter.Status)
	query := store.GameFilter{HostID: filter.HostID}
	switch want {
	case "":
	case domaingames.StatusUpcoming, domaingames.StatusOngoing:
		// ongoing is derived from upcoming at read time.
		query.Statuses = []string{string(domaingames.StatusUpcoming)}
	case domaingames.StatusCompleted, domaingames.StatusCancelled:
		query.Statuses = []string{string(want)}
	default:
		return nil, errInvalidStatusFilter
	}

	games, err := s.store.ListGames(ctx, query)
	if err != nil {
		return nil, translateStoreError(err)
	}
	now := s.now()
	views := make([]View, 0, len(games))
	for _, g := range games {
		if want != "" && g.EffectiveStatus(now) != want {
			continue
		}
		views = append(views, s.View(ctx, g, viewerID))
	}
	return views, nil
}
