package handlers

import (
	"net/http"

	"pickup-games/internal/app/ratings"
	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/http/requestutil"
)

// RatePlayer submits the caller's rating of another member of a completed game.
func (h *Handler) RatePlayer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var in ratings.Input
	if err := requestutil.DecodeJSON(w, r, &in); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	res, err := h.ratings.Rate(r.Context(), r.PathValue("id"), caller.UserID, in)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res, h.logger)
}

// GetUser returns the caller's full record, or the public profile of anyone else.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if u.ID != caller.UserID {
		writeJSON(w, http.StatusOK, u.Public(), h.logger)
		return
	}
	writeJSON(w, http.StatusOK, u, h.logger)
}

// UpdateMe creates or updates the caller's display profile.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var p domainusers.ProfileUpdate
	if err := requestutil.DecodeJSON(w, r, &p); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	u, err := h.users.UpsertProfile(r.Context(), caller.UserID, p)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u, h.logger)
}
