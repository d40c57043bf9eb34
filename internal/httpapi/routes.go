package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playsetlabs/partyroom-backend/internal/repository"
	"github.com/playsetlabs/partyroom-backend/internal/session"
	"github.com/playsetlabs/partyroom-backend/internal/transport/websocket"
)

// SetupRoutes wires the development server surface: a health probe, a debug
// read of the latest persisted room snapshot, and the websocket endpoint.
func SetupRoutes(logger *slog.Logger, hub *session.Hub, rooms repository.RoomRepository) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/rooms/{code}", RoomSnapshot(rooms))
	r.Get("/ws", websocket.NewHandler(logger, hub).ServeHTTP)

	return r
}
