package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsetlabs/partyroom-backend/internal/games/guessing"
	"github.com/playsetlabs/partyroom-backend/internal/session"
)

const wireTimeout = 2 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub, err := session.NewHub(ctx, testLogger(), session.HubOptions{Game: guessing.Game()})
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(testLogger(), hub))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=" + code
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readWire reads wire messages until one with the wanted action arrives.
func readWire(t *testing.T, conn *websocket.Conn, action string) Message {
	t.Helper()

	for i := 0; i < 32; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(wireTimeout)))

		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Action == action {
			return msg
		}
	}
	t.Fatalf("no %q message within 32 reads", action)
	return Message{}
}

func sendWire(t *testing.T, conn *websocket.Conn, action string, payload string) {
	t.Helper()

	msg := Message{Action: action}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func TestHandler_JoinOverWire(t *testing.T) {
	// Given: a running server and one connection
	srv := newTestServer(t)
	conn := dial(t, srv, "ABCD")

	// When: the client joins with auto-naming
	sendWire(t, conn, ActionRoomJoin, `{"auto_name":true}`)

	// Then: it is assigned the first pool name and sees itself hosting
	assigned := readWire(t, conn, ActionPlayerAssigned)
	var seat session.SeatAssigned
	require.NoError(t, json.Unmarshal(assigned.Payload, &seat))
	assert.Equal(t, "Biscuit", seat.DisplayName)

	update := readWire(t, conn, ActionRoomUpdate)
	var roster session.RosterUpdate
	require.NoError(t, json.Unmarshal(update.Payload, &roster))
	require.Len(t, roster.Seats, 1)
	assert.True(t, roster.Seats[0].IsHost)
}

func TestHandler_BadMessageGetsErrorReplyWithoutBreakingTheStream(t *testing.T) {
	// Given: two joined connections sharing a room, so broadcasts are in
	// flight on both sockets
	srv := newTestServer(t)
	conn1 := dial(t, srv, "WXYZ")
	conn2 := dial(t, srv, "WXYZ")

	sendWire(t, conn1, ActionRoomJoin, `{"auto_name":true}`)
	readWire(t, conn1, ActionPlayerAssigned)
	sendWire(t, conn2, ActionRoomJoin, `{"auto_name":true}`)
	readWire(t, conn2, ActionPlayerAssigned)

	// When: the first client sends garbage while the second triggers a
	// broadcast, so the error reply and a roster push overlap on socket 1
	require.NoError(t, conn1.WriteMessage(websocket.TextMessage, []byte(`{"action":`)))
	sendWire(t, conn2, ActionPlayerReady, `{"ready":true}`)

	// Then: the garbage earns an error reply and the broadcast stream on
	// the same socket stays intact; the two may arrive in either order
	var gotError bool
	var readyRoster *session.RosterUpdate
	for i := 0; i < 32 && (!gotError || readyRoster == nil); i++ {
		require.NoError(t, conn1.SetReadDeadline(time.Now().Add(wireTimeout)))

		var msg Message
		require.NoError(t, conn1.ReadJSON(&msg))

		switch msg.Action {
		case ActionError:
			var reply errorPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &reply))
			assert.Contains(t, reply.Error, "malformed message")
			gotError = true

		case ActionRoomUpdate:
			var roster session.RosterUpdate
			require.NoError(t, json.Unmarshal(msg.Payload, &roster))
			for _, seat := range roster.Seats {
				if seat.Ready {
					readyRoster = &roster
				}
			}
		}
	}

	require.True(t, gotError, "no error reply for the malformed message")
	require.NotNil(t, readyRoster, "broadcast stream broke after the malformed message")
	require.Len(t, readyRoster.Seats, 2)
}

func TestHandler_MissingCodeIsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
