package engine

import (
	"errors"
	"fmt"
)

var ErrMissingFunc = errors.New("game is missing a required function")

// PlayerRef identifies a seated player at game start.
type PlayerRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// PlayerState holds the per-player portion of an engine state. Game-specific
// fields live in Ext; ID always matches a seat id.
type PlayerState struct {
	ID  string         `json:"id"`
	Ext map[string]any `json:"ext,omitempty"`
}

// Action is a player input. The payload is never validated by the
// orchestrator; the game decides what is legal.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// State is the full game state returned by Init and HandleAction. The
// orchestrator treats it as opaque apart from serializing it; the game phase
// namespace is independent of room phases. State must stay JSON-safe: any
// funcs, channels or similar inside Data survive neither storage nor the wire.
type State struct {
	Phase   string        `json:"phase"`
	Players []PlayerState `json:"players"`
	Data    any           `json:"data,omitempty"`
}

// Ranking is one player's final standing.
type Ranking struct {
	PlayerID string  `json:"player_id"`
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	IsWinner bool    `json:"is_winner"`
}

// Result is public to every connection once the game is over.
type Result struct {
	Rankings []Ranking `json:"rankings"`
}

// Game is the five-function contract a game implements. All five must be
// pure: no I/O, no mutation of the input state, randomness only inside Init.
//
// HandleAction signals rejection (wrong turn, illegal move, wrong phase) by
// returning its input state unchanged, preserving the Data reference. The
// orchestrator never checks legality itself.
//
// Once IsGameOver reports true, interactive play for the round is over: the
// orchestrator stops forwarding turns and broadcasts GetResult. Games that
// want an in-engine result screen must hold a transitional phase of their
// own (a "settlement" phase) and only report true after its completion
// action fires.
//
// GetPlayerView projects the state for one player and must hide anything
// that player does not own. GetResult is only called after IsGameOver is
// true.
type Game struct {
	Init          func(players []PlayerRef, options map[string]any) State
	HandleAction  func(state State, playerID string, action Action) State
	IsGameOver    func(state State) bool
	GetResult     func(state State) Result
	GetPlayerView func(state State, playerID string) any
}

// Validate reports every nil function on the contract. A room refuses to
// bind to a game that fails validation.
func (g Game) Validate() error {
	var missing []string

	if g.Init == nil {
		missing = append(missing, "Init")
	}
	if g.HandleAction == nil {
		missing = append(missing, "HandleAction")
	}
	if g.IsGameOver == nil {
		missing = append(missing, "IsGameOver")
	}
	if g.GetResult == nil {
		missing = append(missing, "GetResult")
	}
	if g.GetPlayerView == nil {
		missing = append(missing, "GetPlayerView")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFunc, missing)
	}

	return nil
}
