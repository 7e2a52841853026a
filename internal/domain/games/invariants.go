package games

import "fmt"

// CheckInvariants verifies the roster rules that must hold after every mutation.
func (g Game) CheckInvariants() error {
	if g.HostID == "" {
		return fmt.Errorf("game %s has no host", g.ID)
	}
	if want := g.MaxPlayers - len(g.RegisteredPlayers) - 1; g.SeatsLeft != want {
		return fmt.Errorf("game %s seatsLeft=%d, want %d", g.ID, g.SeatsLeft, want)
	}
	if g.SeatsLeft < 0 {
		return fmt.Errorf("game %s seatsLeft is negative", g.ID)
	}

	players := make(map[string]struct{}, len(g.RegisteredPlayers))
	for _, p := range g.RegisteredPlayers {
		if p.UserID == g.HostID {
			return fmt.Errorf("game %s host %s is also a registered player", g.ID, p.UserID)
		}
		if _, dup := players[p.UserID]; dup {
			return fmt.Errorf("game %s player %s registered twice", g.ID, p.UserID)
		}
		players[p.UserID] = struct{}{}
	}

	requests := make(map[string]struct{}, len(g.JoinRequests))
	for _, r := range g.JoinRequests {
		if _, member := players[r.UserID]; member || r.UserID == g.HostID {
			return fmt.Errorf("game %s user %s is both member and requester", g.ID, r.UserID)
		}
		if _, dup := requests[r.UserID]; dup {
			return fmt.Errorf("game %s user %s requested twice", g.ID, r.UserID)
		}
		requests[r.UserID] = struct{}{}
	}

	marked := make(map[string]struct{}, len(g.Attendance))
	for _, a := range g.Attendance {
		if _, dup := marked[a.UserID]; dup {
			return fmt.Errorf("game %s has two attendance records for %s", g.ID, a.UserID)
		}
		marked[a.UserID] = struct{}{}
	}
	return nil
}
