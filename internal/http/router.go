package http

import (
	nethttp "net/http"

	"pickup-games/internal/auth"
	"pickup-games/internal/http/handlers"
	"pickup-games/internal/http/middleware"
)

// NewRouter registers HTTP routes on a ServeMux. Every route except health
// and readiness requires a bearer token accepted by verifier.
func NewRouter(handler *handlers.Handler, verifier *auth.Verifier) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /ready", handler.Ready)

	authed := func(pattern string, fn nethttp.HandlerFunc) {
		mux.Handle(pattern, middleware.Authenticate(verifier, handler.WriteAppError, fn))
	}
	authed("POST /games", handler.CreateGame)
	authed("GET /games", handler.ListGames)
	authed("GET /games/{id}", handler.GetGame)
	authed("POST /games/{id}/requests", handler.RequestJoin)
	authed("DELETE /games/{id}/requests", handler.WithdrawRequest)
	authed("POST /games/{id}/requests/{rid}/accept", handler.AcceptRequest)
	authed("POST /games/{id}/requests/{rid}/reject", handler.RejectRequest)
	authed("DELETE /games/{id}/players/{uid}", handler.RemovePlayer)
	authed("POST /games/{id}/leave", handler.Leave)
	authed("POST /games/{id}/host", handler.TransferHost)
	authed("POST /games/{id}/attendance", handler.MarkAttendance)
	authed("POST /games/{id}/cancel", handler.CancelGame)
	authed("POST /games/{id}/ratings", handler.RatePlayer)
	authed("GET /users/{id}", handler.GetUser)
	authed("PUT /users/me", handler.UpdateMe)
	return mux
}
