package games

import (
	"errors"
	"testing"
	"time"

	"pickup-games/internal/apperrors"
)

var (
	testNow   = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	testStart = time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC)
)

func sampleInput() CreateInput {
	return CreateInput{
		Title:      "Sunday run",
		Sport:      "basketball",
		Location:   "Court 3",
		Date:       "2024-05-03",
		StartTime:  "18:00",
		EndTime:    "20:00",
		MaxPlayers: 4,
	}
}

func newTestGame(t *testing.T, maxPlayers int) Game {
	t.Helper()
	in := sampleInput()
	in.MaxPlayers = maxPlayers
	g, err := New("game-1", "host", in, testNow, time.UTC)
	if err != nil {
		t.Fatalf("expected game to be created, got %v", err)
	}
	return g
}

func addPlayer(t *testing.T, g *Game, userID string) {
	t.Helper()
	req, err := g.RequestJoin("req-"+userID, userID, Profile{Name: userID}, testNow)
	if err != nil {
		t.Fatalf("request join %s: %v", userID, err)
	}
	if _, err := g.AcceptRequest(req.ID, g.HostID, testNow); err != nil {
		t.Fatalf("accept %s: %v", userID, err)
	}
}

func assertInvariants(t *testing.T, g Game) {
	t.Helper()
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestNewGameReservesHostSeat(t *testing.T) {
	g := newTestGame(t, 4)
	if g.Status != StatusUpcoming {
		t.Fatalf("expected upcoming, got %s", g.Status)
	}
	if g.SeatsLeft != 3 {
		t.Fatalf("expected 3 seats left, got %d", g.SeatsLeft)
	}
	if !g.StartsAt.Equal(testStart) || g.EndsAt.Sub(g.StartsAt) != 2*time.Hour {
		t.Fatalf("unexpected schedule %s - %s", g.StartsAt, g.EndsAt)
	}
	assertInvariants(t, g)
}

func TestNewGameValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*CreateInput)
		field string
	}{
		{"missing title", func(in *CreateInput) { in.Title = "  " }, "title"},
		{"missing sport", func(in *CreateInput) { in.Sport = "" }, "sport"},
		{"missing location", func(in *CreateInput) { in.Location = "" }, "location"},
		{"too few players", func(in *CreateInput) { in.MaxPlayers = 1 }, "maxPlayers"},
		{"bad date", func(in *CreateInput) { in.Date = "03/05/2024" }, "date"},
		{"date today", func(in *CreateInput) { in.Date = "2024-05-01" }, "date"},
		{"bad clock", func(in *CreateInput) { in.StartTime = "6pm" }, "startTime"},
		{"end before start", func(in *CreateInput) { in.EndTime = "17:00" }, "endTime"},
		{"too short", func(in *CreateInput) { in.EndTime = "18:30" }, "endTime"},
		{"too long", func(in *CreateInput) { in.StartTime = "10:00"; in.EndTime = "16:30" }, "endTime"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := sampleInput()
			tc.edit(&in)
			_, err := New("g", "host", in, testNow, time.UTC)
			appErr, ok := apperrors.As(err)
			if !ok || appErr.Kind != apperrors.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if appErr.Metadata["field"] != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, appErr.Metadata["field"])
			}
		})
	}
}

func TestNewGameAcceptsDurationBounds(t *testing.T) {
	in := sampleInput()
	in.StartTime, in.EndTime = "10:00", "16:00"
	if _, err := New("g", "host", in, testNow, time.UTC); err != nil {
		t.Fatalf("expected 6h game to be valid, got %v", err)
	}
	in.StartTime, in.EndTime = "10:00", "11:00"
	if _, err := New("g", "host", in, testNow, time.UTC); err != nil {
		t.Fatalf("expected 1h game to be valid, got %v", err)
	}
}

func TestJoinAcceptRejectScenario(t *testing.T) {
	g := newTestGame(t, 4)

	reqA, err := g.RequestJoin("req-a", "a", Profile{Name: "A"}, testNow)
	if err != nil {
		t.Fatalf("request join: %v", err)
	}
	if g.SeatsLeft != 3 {
		t.Fatalf("expected request not to consume a seat, got %d", g.SeatsLeft)
	}
	assertInvariants(t, g)

	p, err := g.AcceptRequest(reqA.ID, "host", testNow)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if p.UserID != "a" || p.Profile.Name != "A" {
		t.Fatalf("unexpected participant %+v", p)
	}
	if g.SeatsLeft != 2 || len(g.JoinRequests) != 0 {
		t.Fatalf("expected 2 seats and no requests, got %d/%d", g.SeatsLeft, len(g.JoinRequests))
	}
	assertInvariants(t, g)

	reqB, err := g.RequestJoin("req-b", "b", Profile{Name: "B"}, testNow)
	if err != nil {
		t.Fatalf("request join b: %v", err)
	}
	if _, err := g.RejectRequest(reqB.ID, "host"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if g.SeatsLeft != 2 || len(g.JoinRequests) != 0 {
		t.Fatalf("expected reject to leave seats untouched, got %d/%d", g.SeatsLeft, len(g.JoinRequests))
	}
	assertInvariants(t, g)
}

func TestRequestJoinRejectsMembersAndDuplicates(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")
	if _, err := g.RequestJoin("r1", "b", Profile{}, testNow); err != nil {
		t.Fatalf("request join: %v", err)
	}

	for _, user := range []string{"host", "a", "b"} {
		if _, err := g.RequestJoin("r2", user, Profile{}, testNow); !errors.Is(err, ErrAlreadyMember) {
			t.Fatalf("expected already member for %s, got %v", user, err)
		}
	}
}

func TestRequestJoinFullAndNotJoinable(t *testing.T) {
	g := newTestGame(t, 2)
	addPlayer(t, &g, "a")
	if _, err := g.RequestJoin("r", "b", Profile{}, testNow); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected game full, got %v", err)
	}
	if apperrors.KindOf(ErrGameFull) != apperrors.KindInvalidState {
		t.Fatalf("expected join-time full game to be invalid state")
	}
	if _, err := g.RequestJoin("r", "b", Profile{}, testStart.Add(time.Minute)); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected a full started game to report game full first, got %v", err)
	}

	open := newTestGame(t, 4)
	if _, err := open.RequestJoin("r", "b", Profile{}, testStart.Add(time.Minute)); !errors.Is(err, ErrGameNotJoinable) {
		t.Fatalf("expected started game not joinable, got %v", err)
	}
	if err := open.Cancel("host", testNow); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := open.RequestJoin("r", "b", Profile{}, testNow); !errors.Is(err, ErrGameNotJoinable) {
		t.Fatalf("expected cancelled game not joinable, got %v", err)
	}
}

func TestAcceptRequestGuards(t *testing.T) {
	g := newTestGame(t, 2)
	if _, err := g.RequestJoin("r-a", "a", Profile{}, testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := g.RequestJoin("r-b", "b", Profile{}, testNow); err != nil {
		t.Fatal(err)
	}

	if _, err := g.AcceptRequest("r-a", "b", testNow); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := g.AcceptRequest("missing", "host", testNow); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected request not found, got %v", err)
	}
	if _, err := g.AcceptRequest("r-a", "host", testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err := g.AcceptRequest("r-b", "host", testNow)
	if !errors.Is(err, ErrSeatAlreadyFilled) {
		t.Fatalf("expected seat already filled, got %v", err)
	}
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Fatalf("expected conflict kind, got %s", apperrors.KindOf(err))
	}
	if len(g.JoinRequests) != 1 || g.SeatsLeft != 0 {
		t.Fatalf("expected stale request to remain and no seats, got %d/%d", len(g.JoinRequests), g.SeatsLeft)
	}
	assertInvariants(t, g)
}

func TestWithdrawRequest(t *testing.T) {
	g := newTestGame(t, 4)
	if _, err := g.RequestJoin("r-a", "a", Profile{}, testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := g.WithdrawRequest("a"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := g.WithdrawRequest("a"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected not found on second withdraw, got %v", err)
	}
}

func TestRemoveParticipant(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")
	addPlayer(t, &g, "b")

	if _, err := g.RemoveParticipant("b", "a", testNow); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for non-host removing another player, got %v", err)
	}
	if _, err := g.RemoveParticipant("host", "host", testNow); !errors.Is(err, ErrLastHostWithPlayers) {
		t.Fatalf("expected host blocked while players remain, got %v", err)
	}
	if _, err := g.RemoveParticipant("ghost", "host", testNow); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected not participant, got %v", err)
	}

	if _, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"b"}}, testStart); err != nil {
		t.Fatalf("mark attendance: %v", err)
	}
	out, err := g.RemoveParticipant("b", "host", testStart)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if out.Cancelled || out.UserID != "b" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if g.SeatsLeft != 2 || g.Attended("b") {
		t.Fatalf("expected seat returned and attendance dropped, got seats=%d", g.SeatsLeft)
	}
	assertInvariants(t, g)

	if _, err := g.RemoveParticipant("a", "a", testStart); err != nil {
		t.Fatalf("self leave: %v", err)
	}
	if g.SeatsLeft != 3 {
		t.Fatalf("expected 3 seats after leave, got %d", g.SeatsLeft)
	}
}

func TestHostLeavingEmptyGameCancels(t *testing.T) {
	g := newTestGame(t, 4)
	out, err := g.RemoveParticipant("host", "host", testNow)
	if err != nil {
		t.Fatalf("host leave: %v", err)
	}
	if !out.Cancelled || g.Status != StatusCancelled || g.CancelledAt == nil {
		t.Fatalf("expected game cancelled, got %+v status=%s", out, g.Status)
	}
	if err := g.Cancel("host", testNow); !errors.Is(err, ErrGameCancelled) {
		t.Fatalf("expected cancelled to be terminal, got %v", err)
	}
}

func TestTransferHostScenario(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")
	addPlayer(t, &g, "b")
	seats := g.SeatsLeft

	if err := g.TransferHost("a", "b", Profile{}, testNow); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := g.TransferHost("host", "ghost", Profile{}, testNow); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected not participant, got %v", err)
	}

	if err := g.TransferHost("host", "a", Profile{Name: "Host"}, testNow); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if g.HostID != "a" {
		t.Fatalf("expected a to be host, got %s", g.HostID)
	}
	old, ok := g.Participant("host")
	if !ok || old.Profile.Name != "Host" {
		t.Fatalf("expected old host registered with profile, got %+v", old)
	}
	if _, ok := g.Participant("a"); ok {
		t.Fatalf("expected new host removed from registered players")
	}
	if g.SeatsLeft != seats {
		t.Fatalf("expected seats unchanged at %d, got %d", seats, g.SeatsLeft)
	}
	assertInvariants(t, g)

	if _, err := g.RemoveParticipant("host", "host", testNow); err != nil {
		t.Fatalf("expected former host to leave, got %v", err)
	}
	assertInvariants(t, g)
}

func TestAttendanceCompletesOnLastMark(t *testing.T) {
	g := newTestGame(t, 3)
	addPlayer(t, &g, "a")
	addPlayer(t, &g, "b")

	for i, id := range []string{"a", "host"} {
		done, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{id}}, testStart)
		if err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
		if done || g.Status != StatusUpcoming {
			t.Fatalf("expected game still open after mark %d", i)
		}
	}

	done, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"b"}}, testStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("final mark: %v", err)
	}
	if !done || g.Status != StatusCompleted || g.CompletedAt == nil {
		t.Fatalf("expected completion on final mark, got done=%v status=%s", done, g.Status)
	}
	if !g.CompletedAt.Equal(testStart.Add(time.Hour)) {
		t.Fatalf("unexpected completedAt %s", g.CompletedAt)
	}

	if _, err := g.MarkAttendance("host", AttendanceMarks{MarkAll: true}, testStart); !errors.Is(err, ErrGameCompleted) {
		t.Fatalf("expected repeat attendance to be rejected, got %v", err)
	}
	assertInvariants(t, g)
}

func TestAttendanceHostOnlyGame(t *testing.T) {
	g := newTestGame(t, 4)
	done, err := g.MarkAttendance("host", AttendanceMarks{MarkAll: true}, testStart)
	if err != nil || !done {
		t.Fatalf("expected host-only game to complete, got done=%v err=%v", done, err)
	}
}

func TestAttendanceGuards(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")

	if _, err := g.MarkAttendance("a", AttendanceMarks{MarkAll: true}, testStart); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := g.MarkAttendance("host", AttendanceMarks{MarkAll: true}, testNow); !errors.Is(err, ErrAttendanceNotOpen) {
		t.Fatalf("expected attendance not open, got %v", err)
	}
	if _, err := g.MarkAttendance("host", AttendanceMarks{}, testStart); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"a", "ghost"}}, testStart); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected not participant, got %v", err)
	}
	if g.Attended("a") {
		t.Fatalf("expected no partial marks after a rejected call")
	}
}

func TestAttendanceIsMonotonic(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")
	addPlayer(t, &g, "b")

	first := testStart
	if _, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"a"}}, first); err != nil {
		t.Fatal(err)
	}
	if _, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"a"}}, first.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if len(g.Attendance) != 1 || !g.Attendance[0].MarkedAt.Equal(first) {
		t.Fatalf("expected single record with original timestamp, got %+v", g.Attendance)
	}
}

func TestCompletionUsesCurrentRoster(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")
	addPlayer(t, &g, "b")

	if _, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"host", "a"}}, testStart); err != nil {
		t.Fatal(err)
	}
	if _, err := g.RemoveParticipant("b", "host", testStart); err != nil {
		t.Fatal(err)
	}
	done, err := g.MarkAttendance("host", AttendanceMarks{PlayerIDs: []string{"a"}}, testStart)
	if err != nil || !done {
		t.Fatalf("expected completion against shrunken roster, got done=%v err=%v", done, err)
	}
}

func TestEffectiveStatus(t *testing.T) {
	g := newTestGame(t, 4)
	if got := g.EffectiveStatus(testNow); got != StatusUpcoming {
		t.Fatalf("expected upcoming before start, got %s", got)
	}
	if got := g.EffectiveStatus(testStart); got != StatusOngoing {
		t.Fatalf("expected ongoing at start, got %s", got)
	}
	if g.Status != StatusUpcoming {
		t.Fatalf("expected stored status untouched, got %s", g.Status)
	}
	if err := g.Cancel("host", testNow); err != nil {
		t.Fatal(err)
	}
	if got := g.EffectiveStatus(testStart); got != StatusCancelled {
		t.Fatalf("expected cancelled to stick, got %s", got)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusUpcoming, StatusCompleted, true},
		{StatusUpcoming, StatusCancelled, true},
		{StatusOngoing, StatusCompleted, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusUpcoming, false},
		{StatusCompleted, StatusUpcoming, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancelGuards(t *testing.T) {
	g := newTestGame(t, 4)
	if err := g.Cancel("a", testNow); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := g.MarkAttendance("host", AttendanceMarks{MarkAll: true}, testStart); err != nil {
		t.Fatal(err)
	}
	if err := g.Cancel("host", testStart); !errors.Is(err, ErrGameCompleted) {
		t.Fatalf("expected completed game to refuse cancel, got %v", err)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	g := newTestGame(t, 4)
	addPlayer(t, &g, "a")
	cp := g.Clone()
	cp.RegisteredPlayers[0].UserID = "mutated"
	if g.RegisteredPlayers[0].UserID != "a" {
		t.Fatalf("expected clone to be independent")
	}
}

func TestCheckInvariantsDetectsViolations(t *testing.T) {
	g := newTestGame(t, 4)
	g.SeatsLeft = 1
	if err := g.CheckInvariants(); err == nil {
		t.Fatalf("expected seat mismatch to be detected")
	}

	g = newTestGame(t, 4)
	g.RegisteredPlayers = append(g.RegisteredPlayers, Participant{UserID: "host"})
	g.recomputeSeats()
	if err := g.CheckInvariants(); err == nil {
		t.Fatalf("expected host-as-player to be detected")
	}

	g = newTestGame(t, 4)
	addPlayer(t, &g, "a")
	g.JoinRequests = append(g.JoinRequests, Request{ID: "x", UserID: "a"})
	if err := g.CheckInvariants(); err == nil {
		t.Fatalf("expected member+requester to be detected")
	}
}
