package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/playsetlabs/partyroom-backend/internal/apperror"
	"github.com/playsetlabs/partyroom-backend/internal/room"
)

type fakeRoomRepository struct {
	snapshots map[string]*room.Snapshot
}

func (that *fakeRoomRepository) CreateOrUpdate(_ context.Context, snapshot *room.Snapshot) error {
	that.snapshots[snapshot.SessionID] = snapshot
	return nil
}

func (that *fakeRoomRepository) GetBySessionID(_ context.Context, sessionID string) (*room.Snapshot, error) {
	snapshot, ok := that.snapshots[sessionID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}
	return snapshot, nil
}

func (that *fakeRoomRepository) DeleteBySessionID(_ context.Context, sessionID string) error {
	delete(that.snapshots, sessionID)
	return nil
}

func serveSnapshot(t *testing.T, repo *fakeRoomRepository, code string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/rooms/{code}", RoomSnapshot(repo))

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+code, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoomSnapshot(t *testing.T) {
	t.Run("returns the persisted snapshot", func(t *testing.T) {
		// Given a stored snapshot for ABCD
		repo := &fakeRoomRepository{snapshots: map[string]*room.Snapshot{
			"ABCD": {SessionID: "ABCD", Phase: room.PhaseLobby},
		}}

		// When the debug endpoint is read
		rec := serveSnapshot(t, repo, "ABCD")

		// Then the snapshot comes back as JSON
		require.Equal(t, http.StatusOK, rec.Code)

		var got room.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "ABCD", got.SessionID)
		require.Equal(t, room.PhaseLobby, got.Phase)
	})

	t.Run("unknown room is a 404", func(t *testing.T) {
		repo := &fakeRoomRepository{snapshots: map[string]*room.Snapshot{}}

		rec := serveSnapshot(t, repo, "NOPE")

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
