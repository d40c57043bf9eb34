package gametest

import (
	"encoding/json"
	"fmt"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

// CheckIsolation runs two independent Init calls, acts once on the first
// state and verifies the second state did not change. Games must keep all
// mutable state inside the returned state; module-level variables leak
// between rooms on the hosted platform, and this catches the common case.
func CheckIsolation(game engine.Game, players []engine.PlayerRef, action engine.Action) error {
	if err := game.Validate(); err != nil {
		return fmt.Errorf("gametest: %w", err)
	}

	first := game.Init(players, nil)
	second := game.Init(players, nil)

	before, err := json.Marshal(second)
	if err != nil {
		return fmt.Errorf("gametest: second state is not serializable: %w", err)
	}

	game.HandleAction(first, players[0].ID, action)

	after, err := json.Marshal(second)
	if err != nil {
		return fmt.Errorf("gametest: second state is not serializable: %w", err)
	}

	if string(before) != string(after) {
		return fmt.Errorf("gametest: acting on one state mutated another; shared mutable state detected")
	}

	return nil
}
