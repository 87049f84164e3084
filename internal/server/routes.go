package server

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/eIGato/hightech-cross/internal/clock"
	"github.com/eIGato/hightech-cross/internal/cross"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, store Store, clk clock.Clock, sessionTTL time.Duration) {
	broker := NewBroker()
	ev := cross.NewEvaluator(store, clk)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Hightech Cross API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Post("/api/login", handleLogin(logger, store, clk, sessionTTL))
	r.Post("/api/logout", handleLogout(logger, store))
	r.Get("/api/events", handleEvents(logger, store, clk, broker))

	// Team routes; {cross} also accepts "current".
	r.Route("/api/crosses", func(r chi.Router) {
		r.Use(teamAuthMiddleware(logger, store, clk))
		r.Get("/", handleListCrosses(logger, store))

		r.Route("/{cross}", func(r chi.Router) {
			r.Use(crossMiddleware(logger, store, clk))
			r.Get("/", handleGetCross(logger, store, ev))

			r.Route("/missions", func(r chi.Router) {
				r.Use(startedMiddleware(clk))
				r.Get("/", handleListMissions(logger, store, ev))

				r.Route("/{mission}", func(r chi.Router) {
					r.Use(missionMiddleware(logger, store))
					r.Get("/", handleGetMission(logger, ev))
					r.Get("/answers", handleListAnswers(logger, ev))
					r.Post("/answers", handleSubmitAnswer(logger, ev, broker))
					r.Get("/prompts", handleListPrompts(logger, ev))
					r.Get("/prompts/{prompt}", handleGetPrompt(logger, ev))
					r.Put("/prompts/{prompt}", handleRequestPrompt(logger, ev, broker))
				})
			})
		})
	})
}
