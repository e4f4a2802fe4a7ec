package routes

import (
	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires every endpoint onto the router. Reads are public, every
// bracket mutation requires an admin or organizer token.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Auth,
	bracketHandler *handlers.BracketHandler,
	matchHandler *handlers.MatchHandler,
	streamHandler *handlers.StreamHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/bracket", bracketHandler.GetBracket)
		r.Get("/bracket/stream", streamHandler.Stream)
		r.Get("/summary", bracketHandler.GetSummary)
		r.Get("/payout", bracketHandler.GetPayout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("admin", "organizer"))

			r.Post("/bracket", bracketHandler.CreateBracket)
			r.Post("/finalize", bracketHandler.Finalize)

			r.Post("/matches/{matchID}/report", matchHandler.Report)
			r.Post("/matches/{matchID}/override", matchHandler.Override)
			r.Patch("/matches/{matchID}/score", matchHandler.EditScore)
			r.Post("/matches/{matchID}/reset", matchHandler.Reset)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
