package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playsetlabs/partyroom-backend/internal/session"
)

func TestDecodeMessage(t *testing.T) {
	outbox := make(chan session.Event, 1)

	t.Run("join carries the connection outbox", func(t *testing.T) {
		// Given a join message with a chosen name
		raw := []byte(`{"action":"room:join","payload":{"name":"Ada","avatar_url":"http://a/b.png"}}`)

		// When it is decoded
		msg, err := decodeMessage("conn-1", outbox, raw)

		// Then it becomes a Join bound to the connection
		require.NoError(t, err)
		join, ok := msg.(session.Join)
		require.True(t, ok)
		require.Equal(t, "conn-1", join.ConnID)
		require.Equal(t, "Ada", join.DisplayName)
		require.Equal(t, "http://a/b.png", join.AvatarURL)
		require.False(t, join.AutoName)
		require.False(t, join.Observer)
		require.NotNil(t, join.Outbox)
	})

	t.Run("join without payload defaults to empty name", func(t *testing.T) {
		msg, err := decodeMessage("conn-1", outbox, []byte(`{"action":"room:join"}`))

		require.NoError(t, err)
		join, ok := msg.(session.Join)
		require.True(t, ok)
		require.Empty(t, join.DisplayName)
	})

	t.Run("game action keeps the nested payload", func(t *testing.T) {
		raw := []byte(`{"action":"game:action","payload":{"type":"GUESS","payload":{"guess":42}}}`)

		msg, err := decodeMessage("conn-1", outbox, raw)

		require.NoError(t, err)
		act, ok := msg.(session.Act)
		require.True(t, ok)
		require.Equal(t, "GUESS", act.Action.Type)
		require.Equal(t, map[string]any{"guess": float64(42)}, act.Action.Payload)
	})

	t.Run("ready toggles", func(t *testing.T) {
		msg, err := decodeMessage("conn-1", outbox, []byte(`{"action":"player:ready","payload":{"ready":true}}`))

		require.NoError(t, err)
		ready, ok := msg.(session.Ready)
		require.True(t, ok)
		require.True(t, ready.Ready)
	})

	t.Run("start and reset have no payload", func(t *testing.T) {
		msg, err := decodeMessage("conn-1", outbox, []byte(`{"action":"game:start"}`))
		require.NoError(t, err)
		require.IsType(t, session.Start{}, msg)

		msg, err = decodeMessage("conn-1", outbox, []byte(`{"action":"game:reset"}`))
		require.NoError(t, err)
		require.IsType(t, session.Reset{}, msg)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		_, err := decodeMessage("conn-1", outbox, []byte(`{"action":"room:nuke"}`))
		require.ErrorContains(t, err, "unknown action")
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		_, err := decodeMessage("conn-1", outbox, []byte(`{"action":`))
		require.ErrorContains(t, err, "malformed message")
	})
}

func TestEncodeEvent(t *testing.T) {
	t.Run("roster update", func(t *testing.T) {
		ev := session.RosterUpdate{
			Phase: "lobby",
			Seats: []session.SeatInfo{{ID: "s1", DisplayName: "Biscuit", IsHost: true}},
		}

		msg, err := encodeEvent(ev)

		require.NoError(t, err)
		require.Equal(t, ActionRoomUpdate, msg.Action)

		var decoded session.RosterUpdate
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		require.Equal(t, ev, decoded)
	})

	t.Run("seat assignment", func(t *testing.T) {
		msg, err := encodeEvent(session.SeatAssigned{SeatID: "s1", DisplayName: "Biscuit"})

		require.NoError(t, err)
		require.Equal(t, ActionPlayerAssigned, msg.Action)
		require.JSONEq(t, `{"seat_id":"s1","display_name":"Biscuit"}`, string(msg.Payload))
	})

	t.Run("state push wraps the view", func(t *testing.T) {
		msg, err := encodeEvent(session.StatePush{View: map[string]any{"low": 1}})

		require.NoError(t, err)
		require.Equal(t, ActionGameState, msg.Action)
		require.JSONEq(t, `{"view":{"low":1}}`, string(msg.Payload))
	})
}
