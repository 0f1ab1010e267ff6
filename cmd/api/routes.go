package main

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustcircles/backend/internal/engine"
	"github.com/trustcircles/backend/internal/handlers"
	"github.com/trustcircles/backend/internal/middleware"
	"github.com/trustcircles/backend/internal/repository"
)

// RegisterV1Routes adds the /v1/ mutating endpoints to the given mux.
// Middleware chain: APIKeyAuth -> (StakeCheck on staking endpoints) -> handler.
func RegisterV1Routes(
	mux *http.ServeMux,
	pool *pgxpool.Pool,
	apiKeyRepo *repository.APIKeyRepo,
	eng *engine.Engine,
	logger *slog.Logger,
) {
	ch := &handlers.CircleHandler{Engine: eng, Logger: logger}
	gh := &handlers.GovernanceHandler{Engine: eng, Logger: logger}

	auth := middleware.APIKeyAuth(apiKeyRepo)
	stakeAuth := middleware.StakeCheck(pool)

	// Staking endpoints move tokens into escrow and honor the per-day cap.
	mux.Handle("POST /v1/circles", auth(stakeAuth(http.HandlerFunc(ch.CreateCircle))))
	mux.Handle("POST /v1/circles/{id}/join", auth(stakeAuth(http.HandlerFunc(ch.JoinCircle))))

	mux.Handle("POST /v1/circles/{id}/leave", auth(http.HandlerFunc(ch.LeaveCircle)))
	mux.Handle("POST /v1/circles/{id}/endorse", auth(http.HandlerFunc(ch.EndorseMember)))
	mux.Handle("POST /v1/circles/{id}/reward", auth(http.HandlerFunc(ch.RewardMember)))

	mux.Handle("POST /v1/circles/{id}/proposals", auth(http.HandlerFunc(gh.CreateProposal)))
	mux.Handle("POST /v1/proposals/{id}/vote", auth(http.HandlerFunc(gh.Vote)))
	mux.Handle("POST /v1/proposals/{id}/execute", auth(http.HandlerFunc(gh.Execute)))
}
