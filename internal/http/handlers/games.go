package handlers

import (
	"net/http"
	"strings"

	"pickup-games/internal/app/games"
	"pickup-games/internal/apperrors"
	"pickup-games/internal/auth"
	domaingames "pickup-games/internal/domain/games"
	"pickup-games/internal/http/requestutil"
)

type listResponse struct {
	Games []games.View `json:"games"`
}

type transferHostRequest struct {
	UserID string `json:"userId"`
}

// CreateGame schedules a game hosted by the caller.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var in domaingames.CreateInput
	if err := requestutil.DecodeJSON(w, r, &in); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	g, err := h.games.Create(r.Context(), caller.UserID, in)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.games.View(r.Context(), g, caller.UserID), h.logger)
}

// ListGames returns games filtered by ?status= and ?hostId=.
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := games.ListFilter{
		Status: strings.ToLower(strings.TrimSpace(q.Get("status"))),
		HostID: strings.TrimSpace(q.Get("hostId")),
	}
	views, err := h.games.List(r.Context(), filter, caller.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Games: views}, h.logger)
}

// GetGame returns one game as seen by the caller.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	view, err := h.games.Get(r.Context(), r.PathValue("id"), caller.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// RequestJoin files a join request for the caller.
func (h *Handler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, err := h.games.RequestJoin(r.Context(), r.PathValue("id"), caller.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req, h.logger)
}

// WithdrawRequest cancels the caller's pending request.
func (h *Handler) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.games.WithdrawRequest(r.Context(), r.PathValue("id"), caller.UserID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptRequest admits a requester. Losing the race for the last seat is a 409.
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(caller auth.Identity) (domaingames.Game, error) {
		return h.games.AcceptRequest(r.Context(), r.PathValue("id"), r.PathValue("rid"), caller.UserID)
	})
}

// RejectRequest discards a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.games.RejectRequest(r.Context(), r.PathValue("id"), r.PathValue("rid"), caller.UserID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePlayer drops a player from the roster.
func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(caller auth.Identity) (domaingames.Game, error) {
		return h.games.RemoveParticipant(r.Context(), r.PathValue("id"), r.PathValue("uid"), caller.UserID)
	})
}

// Leave removes the caller from the game.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(caller auth.Identity) (domaingames.Game, error) {
		return h.games.Leave(r.Context(), r.PathValue("id"), caller.UserID)
	})
}

// TransferHost hands hosting to the participant named in the body.
func (h *Handler) TransferHost(w http.ResponseWriter, r *http.Request) {
	var body transferHostRequest
	if err := requestutil.DecodeJSON(w, r, &body); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if strings.TrimSpace(body.UserID) == "" {
		h.WriteAppError(w, r, apperrors.Validation("userId", "userId is required"))
		return
	}
	h.mutate(w, r, func(caller auth.Identity) (domaingames.Game, error) {
		return h.games.TransferHost(r.Context(), r.PathValue("id"), caller.UserID, body.UserID)
	})
}

// MarkAttendance records attendance; the response shows whether the game completed.
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var marks domaingames.AttendanceMarks
	if err := requestutil.DecodeJSON(w, r, &marks); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.mutate(w, r, func(caller auth.Identity) (domaingames.Game, error) {
		return h.games.MarkAttendance(r.Context(), r.PathValue("id"), caller.UserID, marks)
	})
}

// CancelGame lets the host call the game off.
func (h *Handler) CancelGame(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(caller auth.Identity) (domaingames.Game, error) {
		return h.games.Cancel(r.Context(), r.PathValue("id"), caller.UserID)
	})
}

// mutate runs fn for the caller and renders the resulting game as their view.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(caller auth.Identity) (domaingames.Game, error)) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	g, err := fn(caller)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.games.View(r.Context(), g, caller.UserID), h.logger)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, err := auth.RequireAuth(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return auth.Identity{}, false
	}
	return id, true
}
