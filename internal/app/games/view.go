package games

import (
	"context"

	"pickup-games/internal/apperrors"
	domaingames "pickup-games/internal/domain/games"
	"pickup-games/internal/logging"
)

var errInvalidStatusFilter = apperrors.Validation("status", "status must be upcoming, ongoing, completed or cancelled")

// View is a game as presented to one viewer.
type View struct {
	domaingames.Game
	EffectiveStatus domaingames.Status `json:"effectiveStatus"`
	// PlayersRated lists who the viewer already rated for this game.
	PlayersRated []string `json:"playersRated"`
}

// View derives the read model of g for viewerID. Only the host sees every
// pending request; other viewers see at most their own.
func (s *Service) View(ctx context.Context, g domaingames.Game, viewerID string) View {
	g = g.Clone()
	if !g.IsHost(viewerID) {
		own := make([]domaingames.Request, 0, 1)
		for _, r := range g.JoinRequests {
			if r.UserID == viewerID {
				own = append(own, r)
			}
		}
		g.JoinRequests = own
	}

	v := View{
		Game:            g,
		EffectiveStatus: g.EffectiveStatus(s.now()),
		PlayersRated:    []string{},
	}
	if viewerID == "" || s.users == nil {
		return v
	}
	u, err := s.users.GetUser(ctx, viewerID)
	if err != nil {
		logging.Debug(logging.FromContext(ctx, s.logger), "viewer lookup skipped", logging.FieldUserID, viewerID, "err", err)
		return v
	}
	if a, ok := u.Activity(g.ID); ok {
		v.PlayersRated = append(v.PlayersRated, a.PlayersRated...)
	}
	return v
}
