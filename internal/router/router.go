package router

import (
	"net/http"

	"github.com/trustcircles/backend/internal/account"
	"github.com/trustcircles/backend/internal/auth"
	"github.com/trustcircles/backend/internal/handlers"
)

// New returns an http.Handler serving the public API under /api/v1:
// registration/login, JWT-authenticated account self-service, and the
// read-only engine queries. Mutating engine endpoints live under /v1
// and require an API key.
func New(authHandler *auth.Handler, accountHandler *account.Handler, queryHandler *handlers.QueryHandler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	mux.HandleFunc(base+"/auth/register", authHandler.Register)
	mux.HandleFunc(base+"/auth/login", authHandler.Login)

	mux.HandleFunc("GET "+base+"/account/me", accountHandler.GetMe)
	mux.HandleFunc("GET "+base+"/api-keys", accountHandler.ListAPIKeys)
	mux.HandleFunc("POST "+base+"/api-keys", accountHandler.CreateAPIKey)
	mux.HandleFunc("DELETE "+base+"/api-keys/{id}", accountHandler.DeactivateAPIKey)

	mux.HandleFunc("GET "+base+"/circles/{id}", queryHandler.GetCircle)
	mux.HandleFunc("GET "+base+"/circles/{id}/members/{member}", queryHandler.GetMember)
	mux.HandleFunc("GET "+base+"/circles/{id}/members/{member}/escrow", queryHandler.GetEscrow)
	mux.HandleFunc("GET "+base+"/circles/{id}/members/{member}/status", queryHandler.GetMembershipStatus)
	mux.HandleFunc("GET "+base+"/users/{user}/reputation", queryHandler.GetReputation)
	mux.HandleFunc("GET "+base+"/proposals/{id}", queryHandler.GetProposal)
	mux.HandleFunc("GET "+base+"/proposals/{id}/votes/{voter}", queryHandler.GetVote)
	mux.HandleFunc("GET "+base+"/stats", queryHandler.GetStats)

	return mux
}
