package session

import (
	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

// Msg is an inbound session event. Every message for a session is processed
// to completion, broadcasts included, before the next one is picked up.
type Msg interface{ isSessionMsg() }

// Join binds a connection to the session, either as a seated player or as an
// observer. Observers receive broadcasts but hold no seat and never appear
// in the roster.
type Join struct {
	ConnID      string
	DisplayName string
	AutoName    bool
	Observer    bool
	AvatarURL   string
	Outbox      chan Event
}

// Ready toggles the issuing seat's ready flag.
type Ready struct {
	ConnID string
	Ready  bool
}

// Start begins the game. Ignored unless the issuer is host and the roster
// has at least two seats, all ready.
type Start struct{ ConnID string }

// Act dispatches a game action. Ignored outside the playing and ended
// phases; legality is entirely the game's concern.
type Act struct {
	ConnID string
	Action engine.Action
}

// Reset clears the game and returns the room to the lobby. Host only.
type Reset struct{ ConnID string }

// Leave unbinds a connection. Seated players are removed from the roster;
// observers are simply dropped.
type Leave struct{ ConnID string }

// SwapGame replaces the active game implementation. The swap happens
// between processed events, never mid-event.
type SwapGame struct{ Game engine.Game }

// Inspect reflects internal state without data races. Test-only.
type Inspect struct{ Reply chan View }

// Shutdown stops the session loop and closes every outbox.
type Shutdown struct{}

func (Join) isSessionMsg()     {}
func (Ready) isSessionMsg()    {}
func (Start) isSessionMsg()    {}
func (Act) isSessionMsg()      {}
func (Reset) isSessionMsg()    {}
func (Leave) isSessionMsg()    {}
func (SwapGame) isSessionMsg() {}
func (Inspect) isSessionMsg()  {}
func (Shutdown) isSessionMsg() {}

// Event is an outbound message pushed to connection outboxes.
type Event interface{ isSessionEvent() }

// SeatInfo is the public slice of a seat included in roster updates.
type SeatInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsHost      bool   `json:"is_host"`
	Ready       bool   `json:"ready"`
}

// RosterUpdate goes to every connection after any roster or phase change.
type RosterUpdate struct {
	Seats []SeatInfo `json:"seats"`
	Phase string     `json:"phase"`
}

// SeatAssigned goes only to a newly seated connection.
type SeatAssigned struct {
	SeatID      string `json:"seat_id"`
	DisplayName string `json:"display_name"`
}

// StatePush carries one connection's view of the game state: the per-seat
// GetPlayerView projection for players, the unfiltered state for observers.
type StatePush struct {
	View any `json:"view"`
}

// GameResult is public and goes to every connection when the game ends.
type GameResult struct {
	Result engine.Result `json:"result"`
}

func (RosterUpdate) isSessionEvent() {}
func (SeatAssigned) isSessionEvent() {}
func (StatePush) isSessionEvent()    {}
func (GameResult) isSessionEvent()   {}

// View is the Inspect reply.
type View struct {
	Phase        string
	Seats        []SeatInfo
	NumConns     int
	NumObservers int
	EngineState  *engine.State
}
