package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/controllers"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/middleware"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/bets"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/draws"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/ledger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/config"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/redis"
)

// cacheStore is the Redis surface the HTTP layer needs: readiness,
// idempotency records and rate-limit counters.
type cacheStore interface {
	redis.Pinger
	redis.IdempotencyStore
	Set(context.Context, string, any, time.Duration) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache cacheStore,
	ledgerService ledger.Service,
	gameService games.Service,
	betService bets.Service,
	drawService draws.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	betPolicy := middleware.RateLimitPolicy{
		Name:   "bets",
		Window: cfg.BetRateLimit.Window,
		Limit:  cfg.BetRateLimit.Limit,
	}
	idempotent := middleware.Idempotency(cache, middleware.DefaultIdempotencyTTL, logg)
	critical := middleware.Idempotency(cache, middleware.CriticalIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/balance", controllers.Balance(ledgerService, logg))
		r.Get("/games/current", controllers.CurrentGame(gameService, logg))
		r.With(idempotent).Post("/deposits", controllers.Deposit(ledgerService, logg))

		r.Route("/bets", func(r chi.Router) {
			r.Get("/", controllers.ListBets(betService, logg))
			r.With(
				middleware.AccountRateLimit(betPolicy, cache, logg),
				idempotent,
			).Post("/", controllers.PlaceBet(betService, logg))
			r.Delete("/{betId}", controllers.CancelBet(betService, logg))
		})
		r.Delete("/bet-series/{seriesId}", controllers.CancelSeries(betService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.AccountRoleAdmin, logg))

		r.Route("/games/{gameId}", func(r chi.Router) {
			r.Get("/", controllers.AdminGetGame(gameService, logg))
			r.With(critical).Post("/draw", controllers.AdminDraw(drawService, logg))
			r.With(idempotent).Post("/in-person", controllers.AdminRecordInPerson(gameService, logg))
			r.With(critical).Post("/settle", controllers.AdminSettle(drawService, logg))
			r.Get("/settlement", controllers.AdminGetSettlement(drawService, logg))
		})

		r.Route("/ledger/{entryId}", func(r chi.Router) {
			r.Use(idempotent)
			r.Post("/accept", controllers.AdminLedgerTransition(ledgerService.AcceptDeposit, logg))
			r.Post("/reject", controllers.AdminLedgerTransition(ledgerService.RejectDeposit, logg))
			r.Post("/cancel", controllers.AdminLedgerTransition(ledgerService.CancelEntry, logg))
		})
	})

	return r
}
