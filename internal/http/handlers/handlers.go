package handlers

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"time"

	"pickup-games/internal/app/games"
	"pickup-games/internal/app/ratings"
	domaingames "pickup-games/internal/domain/games"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/logging"
)

const readyTimeout = 2 * time.Second

// GameService is the game use-case surface served over HTTP.
type GameService interface {
	Create(ctx context.Context, hostID string, in domaingames.CreateInput) (domaingames.Game, error)
	Get(ctx context.Context, gameID, viewerID string) (games.View, error)
	List(ctx context.Context, filter games.ListFilter, viewerID string) ([]games.View, error)
	View(ctx context.Context, g domaingames.Game, viewerID string) games.View
	RequestJoin(ctx context.Context, gameID, userID string) (domaingames.Request, error)
	WithdrawRequest(ctx context.Context, gameID, userID string) error
	AcceptRequest(ctx context.Context, gameID, requestID, actingUserID string) (domaingames.Game, error)
	RejectRequest(ctx context.Context, gameID, requestID, actingUserID string) error
	RemoveParticipant(ctx context.Context, gameID, userID, actingUserID string) (domaingames.Game, error)
	Leave(ctx context.Context, gameID, userID string) (domaingames.Game, error)
	TransferHost(ctx context.Context, gameID, actingUserID, newHostID string) (domaingames.Game, error)
	MarkAttendance(ctx context.Context, gameID, actingUserID string, marks domaingames.AttendanceMarks) (domaingames.Game, error)
	Cancel(ctx context.Context, gameID, actingUserID string) (domaingames.Game, error)
}

// RatingService records peer ratings.
type RatingService interface {
	Rate(ctx context.Context, gameID, raterID string, in ratings.Input) (ratings.Result, error)
}

// UserService reads users and updates the caller's profile.
type UserService interface {
	Get(ctx context.Context, id string) (domainusers.User, error)
	UpsertProfile(ctx context.Context, id string, p domainusers.ProfileUpdate) (domainusers.User, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps collects the services a Handler serves.
type Deps struct {
	Games   GameService
	Ratings RatingService
	Users   UserService
	Store   Pinger
	// ReconcileStatus is optional; when set /ready reports the sweeper's health.
	ReconcileStatus func() ratings.Status
	Logger          *slog.Logger
}

// Handler wires HTTP routes to the application services.
type Handler struct {
	games     GameService
	ratings   RatingService
	users     UserService
	store     Pinger
	reconcile func() ratings.Status
	logger    *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		games:     deps.Games,
		ratings:   deps.Ratings,
		users:     deps.Users,
		store:     deps.Store,
		reconcile: deps.ReconcileStatus,
		logger:    deps.Logger,
	}
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", "", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic: the store must answer a ping.
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			logging.Warn(loggerFromContext(r, h.logger), "readiness check failed", "err", err)
			writeError(w, r, nethttp.StatusServiceUnavailable, "store unavailable", "", h.logger)
			return
		}
	}

	resp := map[string]any{"status": "ready"}
	if h.reconcile != nil {
		st := h.reconcile()
		resp["reconciler"] = map[string]any{
			"consecutiveFailures": st.ConsecutiveFailures,
			"lastError":           st.LastError,
			"lastRepaired":        st.LastRepaired,
		}
	}
	writeJSON(w, nethttp.StatusOK, resp, h.logger)
}
