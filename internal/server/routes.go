package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/srujan4705/Code-Battle/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	broker := NewBroker()
	gateway := NewGateway(logger, deps.Rooms, deps.Grader, deps.Limiter, broker, deps.Gateway)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Code Battle API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	r.Get("/ws", gateway.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/rooms", handleCreateRoom(deps.Rooms))
		r.Get("/rooms", handleListRooms(deps.Rooms))
		r.Get("/rooms/{roomID}", handleGetRoom(deps.Rooms))
		r.Get("/languages", handleLanguages(logger, deps.Languages))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
