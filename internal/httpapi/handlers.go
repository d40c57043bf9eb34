package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playsetlabs/partyroom-backend/internal/apperror"
	"github.com/playsetlabs/partyroom-backend/internal/repository"
)

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// RoomSnapshot serves the latest persisted snapshot for a room code. It
// reads the store, not the live session, so it never blocks a room loop.
func RoomSnapshot(rooms repository.RoomRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		snapshot, err := rooms.GetBySessionID(r.Context(), code)
		if err != nil {
			if errors.Is(err, apperror.ErrRoomNotFound) {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to load room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot)
	}
}
