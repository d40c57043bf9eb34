package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h, err := NewHub(ctx, testLogger(), HubOptions{Game: testGame()})
	require.NoError(t, err)
	return h
}

func ensure(t *testing.T, h *Hub, code string) *Session {
	t.Helper()
	reply := make(chan *Session, 1)
	h.Inbox() <- EnsureSession{Code: code, Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for session")
		return nil
	}
}

func TestHub_EnsureReturnsSamePointer(t *testing.T) {
	h := newTestHub(t)

	s1 := ensure(t, h, "ABCD")
	s2 := ensure(t, h, "ABCD")
	other := ensure(t, h, "WXYZ")

	require.NotNil(t, s1)
	assert.Same(t, s1, s2)
	assert.NotSame(t, s1, other)
}

func TestHub_GetUnknownCodeIsNil(t *testing.T) {
	h := newTestHub(t)

	reply := make(chan *Session, 1)
	h.Inbox() <- GetSession{Code: "NOPE", Reply: reply}

	assert.Nil(t, <-reply)
}

func TestHub_RemoveSession(t *testing.T) {
	h := newTestHub(t)
	ensure(t, h, "ABCD")

	h.Inbox() <- RemoveSession{Code: "ABCD"}

	reply := make(chan *Session, 1)
	h.Inbox() <- GetSession{Code: "ABCD", Reply: reply}
	assert.Nil(t, <-reply)
}

func TestHub_RejectsIncompleteGame(t *testing.T) {
	game := testGame()
	game.Init = nil

	_, err := NewHub(context.Background(), testLogger(), HubOptions{Game: game})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMissingFunc)
}

func TestHub_ReloadGame(t *testing.T) {
	t.Run("incomplete replacement is rejected", func(t *testing.T) {
		h := newTestHub(t)
		bad := testGame()
		bad.GetResult = nil

		reply := make(chan error, 1)
		h.Inbox() <- ReloadGame{Game: bad, Reply: reply}

		err := <-reply
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrMissingFunc)
	})

	t.Run("reload reaches live sessions", func(t *testing.T) {
		// Given: a hub with one live session in a ready lobby
		h := newTestHub(t)
		s := ensure(t, h, "ABCD")
		out1, _ := join(t, s, "c1", "", true)
		join(t, s, "c2", "", true)
		s.Inbox() <- Ready{ConnID: "c1", Ready: true}
		s.Inbox() <- Ready{ConnID: "c2", Ready: true}

		// When: reloading with an implementation that marks its states
		replacement := testGame()
		replacement.Init = func(players []engine.PlayerRef, _ map[string]any) engine.State {
			states := make([]engine.PlayerState, 0, len(players))
			for _, p := range players {
				states = append(states, engine.PlayerState{ID: p.ID})
			}
			return engine.State{Phase: "running", Players: states, Data: &testData{Steps: 42}}
		}
		reply := make(chan error, 1)
		h.Inbox() <- ReloadGame{Game: replacement, Reply: reply}
		require.NoError(t, <-reply)

		// Then: the next start uses the swapped implementation
		s.Inbox() <- Start{ConnID: "c1"}
		view := waitFor[StatePush](t, out1).View.(map[string]any)
		assert.Equal(t, 42, view["steps"])
	})
}
