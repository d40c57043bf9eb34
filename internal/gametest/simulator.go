package gametest

import (
	"fmt"
	"reflect"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

// MockPlayers generates n player refs with stable ids and names, in seat
// order.
func MockPlayers(n int) []engine.PlayerRef {
	players := make([]engine.PlayerRef, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, engine.PlayerRef{
			ID:          fmt.Sprintf("test-player-%d", i+1),
			DisplayName: fmt.Sprintf("Tester %d", i+1),
		})
	}
	return players
}

// Step records one Act call with the states around it.
type Step struct {
	SeatIndex int
	PlayerID  string
	Action    engine.Action
	Before    engine.State
	After     engine.State
}

// Simulator is a Tester with auto-generated seats and a full ordered action
// log, for scripted end-to-end runs of a game.
type Simulator struct {
	*Tester
	players []engine.PlayerRef
	log     []Step
}

// NewSimulator creates a simulator with n mock players and runs Init.
func NewSimulator(game engine.Game, n int) (*Simulator, error) {
	tester, err := NewTester(game)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		Tester:  tester,
		players: MockPlayers(n),
	}
	s.Tester.Init(s.players, nil)
	return s, nil
}

func (that *Simulator) Players() []engine.PlayerRef { return that.players }

// Act dispatches an action for the player at seatIndex and logs the step.
func (that *Simulator) Act(seatIndex int, action engine.Action) engine.State {
	playerID := that.players[seatIndex].ID
	before := that.State()
	after := that.Tester.Act(playerID, action)

	that.log = append(that.log, Step{
		SeatIndex: seatIndex,
		PlayerID:  playerID,
		Action:    action,
		Before:    before,
		After:     after,
	})
	return after
}

// Log returns every step taken so far, in order.
func (that *Simulator) Log() []Step {
	return append([]Step(nil), that.log...)
}

// CurrentTurn reads the currentPlayerIndex convention out of the state's
// data payload. Games that do not follow the convention read as 0; nothing
// enforces it.
func (that *Simulator) CurrentTurn() int {
	return currentPlayerIndex(that.State().Data)
}

func currentPlayerIndex(data any) int {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return 0
		}
		return asInt(v.MapIndex(reflect.ValueOf("currentPlayerIndex")))

	case reflect.Struct:
		return asInt(v.FieldByName("CurrentPlayerIndex"))

	default:
		return 0
	}
}

func asInt(v reflect.Value) int {
	if !v.IsValid() {
		return 0
	}
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Float32, reflect.Float64:
		return int(v.Float())
	default:
		return 0
	}
}
