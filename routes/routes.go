package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/tripbites/tournament-ranking/handlers"
	"github.com/tripbites/tournament-ranking/middleware"
)

type Handlers struct {
	Tournament *handlers.TournamentHandler
	Vote       *handlers.VoteHandler
	Ranking    *handlers.RankingHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRoutes mounts the API on router. Everything except /health,
// /metrics and /swagger requires a valid JWT.
func SetupRoutes(router chi.Router, h Handlers, jwtSecret string, allowedOrigins []string) {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// No request timeout on the websocket route.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(chiMiddleware.Timeout(60 * time.Second))

		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Post("/tournaments", h.Tournament.CreateHandler)
			r.Get("/tournaments/active", h.Tournament.GetActiveHandler)

			r.Post("/rankings", h.Ranking.GenerateHandler)
			r.Get("/rankings", h.Ranking.LatestHandler)
		})

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/state", h.Vote.StateHandler)
			r.Post("/votes", h.Vote.CastHandler)
			r.Get("/results", h.Vote.ResultsHandler)
		})
	})
}
