// Package guessing is the reference game shipped with the toolkit: a secret
// integer in [1,100], one guess per turn, binary-search friendly bounds in
// the shared view. It exercises every part of the game contract, including
// hidden information.
package guessing

import (
	"math/rand"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

const (
	PhaseGuessing = "guessing"
	PhaseDone     = "done"

	ActionGuess = "GUESS"

	lowest  = 1
	highest = 100
)

// Data is the game-specific payload. CurrentPlayerIndex follows the turn
// convention the simulator reads.
type Data struct {
	Secret             int    `json:"secret"`
	Low                int    `json:"low"`
	High               int    `json:"high"`
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
	Guesses            int    `json:"guesses"`
	WinnerID           string `json:"winner_id,omitempty"`
}

// View is the per-player projection. The secret is withheld until the game
// is over.
type View struct {
	Phase              string `json:"phase"`
	Low                int    `json:"low"`
	High               int    `json:"high"`
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
	Guesses            int    `json:"guesses"`
	WinnerID           string `json:"winner_id,omitempty"`
	Secret             int    `json:"secret,omitempty"`
}

// Game returns the guessing game contract.
func Game() engine.Game {
	return engine.Game{
		Init:          initState,
		HandleAction:  handleAction,
		IsGameOver:    isGameOver,
		GetResult:     getResult,
		GetPlayerView: getPlayerView,
	}
}

func initState(players []engine.PlayerRef, _ map[string]any) engine.State {
	states := make([]engine.PlayerState, 0, len(players))
	for _, p := range players {
		states = append(states, engine.PlayerState{ID: p.ID})
	}

	return engine.State{
		Phase:   PhaseGuessing,
		Players: states,
		Data: &Data{
			Secret: rand.Intn(highest-lowest+1) + lowest,
			Low:    lowest,
			High:   highest,
		},
	}
}

// handleAction rejects out-of-turn, out-of-phase and malformed guesses by
// returning the input state unchanged.
func handleAction(state engine.State, playerID string, action engine.Action) engine.State {
	if state.Phase != PhaseGuessing || action.Type != ActionGuess {
		return state
	}

	data, ok := state.Data.(*Data)
	if !ok {
		return state
	}

	if data.CurrentPlayerIndex >= len(state.Players) ||
		state.Players[data.CurrentPlayerIndex].ID != playerID {
		return state
	}

	guess, ok := guessValue(action.Payload)
	if !ok || guess < lowest || guess > highest {
		return state
	}

	next := *data
	next.Guesses++

	if guess == data.Secret {
		next.WinnerID = playerID
		return engine.State{Phase: PhaseDone, Players: state.Players, Data: &next}
	}

	if guess < data.Secret && guess+1 > next.Low {
		next.Low = guess + 1
	}
	if guess > data.Secret && guess-1 < next.High {
		next.High = guess - 1
	}
	next.CurrentPlayerIndex = (data.CurrentPlayerIndex + 1) % len(state.Players)

	return engine.State{Phase: PhaseGuessing, Players: state.Players, Data: &next}
}

func isGameOver(state engine.State) bool {
	return state.Phase == PhaseDone
}

func getResult(state engine.State) engine.Result {
	data, _ := state.Data.(*Data)

	rankings := make([]engine.Ranking, 0, len(state.Players))
	for _, p := range state.Players {
		ranking := engine.Ranking{PlayerID: p.ID, Rank: 2}
		if data != nil && p.ID == data.WinnerID {
			ranking.Rank = 1
			ranking.Score = 1
			ranking.IsWinner = true
		}
		rankings = append(rankings, ranking)
	}

	return engine.Result{Rankings: rankings}
}

func getPlayerView(state engine.State, _ string) any {
	data, ok := state.Data.(*Data)
	if !ok {
		return View{Phase: state.Phase}
	}

	view := View{
		Phase:              state.Phase,
		Low:                data.Low,
		High:               data.High,
		CurrentPlayerIndex: data.CurrentPlayerIndex,
		Guesses:            data.Guesses,
		WinnerID:           data.WinnerID,
	}
	if state.Phase == PhaseDone {
		view.Secret = data.Secret
	}
	return view
}

// guessValue accepts the payload shapes clients produce: a bare number or
// an object with a "guess" field; JSON decoding turns both into float64.
func guessValue(payload any) (int, bool) {
	switch v := payload.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case map[string]any:
		if inner, ok := v["guess"]; ok {
			return guessValue(inner)
		}
	}
	return 0, false
}
