// Package gametest drives a game contract directly in-process, with no
// orchestration, sandbox or broadcasting, for unit and scripted end-to-end
// tests of game logic.
package gametest

import (
	"fmt"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

// Tester holds one live engine state for a single game. All operations are
// direct synchronous calls; using any of them before Init panics, because
// that is always a bug in the calling test.
type Tester struct {
	game   engine.Game
	state  engine.State
	inited bool
}

func NewTester(game engine.Game) (*Tester, error) {
	if err := game.Validate(); err != nil {
		return nil, fmt.Errorf("gametest: %w", err)
	}
	return &Tester{game: game}, nil
}

func (that *Tester) Init(players []engine.PlayerRef, options map[string]any) engine.State {
	that.state = that.game.Init(players, options)
	that.inited = true
	return that.state
}

// Act dispatches one action for the given player and returns the new state.
func (that *Tester) Act(playerID string, action engine.Action) engine.State {
	that.requireInit("Act")
	that.state = that.game.HandleAction(that.state, playerID, action)
	return that.state
}

func (that *Tester) State() engine.State {
	that.requireInit("State")
	return that.state
}

func (that *Tester) IsGameOver() bool {
	that.requireInit("IsGameOver")
	return that.game.IsGameOver(that.state)
}

func (that *Tester) GetResult() engine.Result {
	that.requireInit("GetResult")
	return that.game.GetResult(that.state)
}

func (that *Tester) GetPlayerView(playerID string) any {
	that.requireInit("GetPlayerView")
	return that.game.GetPlayerView(that.state, playerID)
}

func (that *Tester) requireInit(op string) {
	if !that.inited {
		panic(fmt.Sprintf("gametest: %s called before Init", op))
	}
}
