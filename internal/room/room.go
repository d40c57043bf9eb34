package room

import (
	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

const (
	PhaseLobby   = "lobby"
	PhaseReady   = "ready"
	PhasePlaying = "playing"
	PhaseEnded   = "ended"
)

// Seat is a participant slot. Its ID is stable for the seat's lifetime and
// distinct from the transport connection id, which changes on reconnect.
type Seat struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsHost      bool   `json:"is_host"`
	Ready       bool   `json:"ready"`
	ConnID      string `json:"-"`
}

// Room is the authoritative per-session state: the seat roster in insertion
// order, the lifecycle phase and the opaque engine state. It is not safe for
// concurrent use; a session's event loop is its only writer.
type Room struct {
	sessionID   string
	seats       []*Seat
	phase       string
	engineState *engine.State
	result      *engine.Result
}

func New(sessionID string) *Room {
	return &Room{
		sessionID: sessionID,
		phase:     PhaseLobby,
	}
}

func (that *Room) SessionID() string { return that.sessionID }

// Phase reports lobby, ready, playing or ended. The ready phase is derived:
// a lobby with two or more seats that are all ready.
func (that *Room) Phase() string {
	if that.phase == PhaseLobby && that.CanStart() {
		return PhaseReady
	}
	return that.phase
}

// EngineState is nil exactly while the room is in the lobby or ready phase.
func (that *Room) EngineState() *engine.State { return that.engineState }

// Result is non-nil only in the ended phase.
func (that *Room) Result() *engine.Result { return that.result }

// Seats returns the roster in insertion order.
func (that *Room) Seats() []*Seat {
	return append([]*Seat(nil), that.seats...)
}

func (that *Room) SeatByID(id string) *Seat {
	for _, seat := range that.seats {
		if seat.ID == id {
			return seat
		}
	}
	return nil
}

func (that *Room) SeatByConn(connID string) *Seat {
	for _, seat := range that.seats {
		if seat.ConnID == connID {
			return seat
		}
	}
	return nil
}

// AddSeat appends a seat to the roster. The first seat in an empty roster
// becomes host.
func (that *Room) AddSeat(id, displayName, avatarURL, connID string) *Seat {
	seat := &Seat{
		ID:          id,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		IsHost:      len(that.seats) == 0,
		ConnID:      connID,
	}
	that.seats = append(that.seats, seat)

	return seat
}

// RemoveSeat drops a seat from the roster, keeping the remaining insertion
// order. When the host leaves, host status moves to the oldest remaining
// seat. Phase and engine state are untouched: a mid-game disconnect leaves
// the game running.
func (that *Room) RemoveSeat(id string) bool {
	for i, seat := range that.seats {
		if seat.ID != id {
			continue
		}

		wasHost := seat.IsHost
		that.seats = append(that.seats[:i], that.seats[i+1:]...)

		if wasHost && len(that.seats) > 0 {
			that.seats[0].IsHost = true
		}
		return true
	}
	return false
}

func (that *Room) SetReady(id string, ready bool) bool {
	seat := that.SeatByID(id)
	if seat == nil {
		return false
	}

	seat.Ready = ready
	return true
}

// CanStart reports whether the lobby satisfies the start precondition: at
// least two seats, every one of them ready.
func (that *Room) CanStart() bool {
	if len(that.seats) < 2 {
		return false
	}
	for _, seat := range that.seats {
		if !seat.Ready {
			return false
		}
	}
	return true
}

// Start binds the freshly initialized engine state and enters the playing
// phase.
func (that *Room) Start(state engine.State) {
	that.engineState = &state
	that.result = nil
	that.phase = PhasePlaying
}

// SetEngineState replaces the engine state after an action was dispatched.
// It is a no-op outside the playing and ended phases.
func (that *Room) SetEngineState(state engine.State) {
	if !that.IsActive() {
		return
	}
	that.engineState = &state
}

// Finish enters the ended phase and records the public result.
func (that *Room) Finish(result engine.Result) {
	that.phase = PhaseEnded
	that.result = &result
}

// Reset discards the engine state, reverts to the lobby and clears every
// ready flag. Seats stay.
func (that *Room) Reset() {
	that.engineState = nil
	that.result = nil
	that.phase = PhaseLobby

	for _, seat := range that.seats {
		seat.Ready = false
	}
}

// IsActive reports whether a game is bound, i.e. the phase is playing or
// ended.
func (that *Room) IsActive() bool {
	return that.phase == PhasePlaying || that.phase == PhaseEnded
}

func (that *Room) IsPlaying() bool { return that.phase == PhasePlaying }

func (that *Room) IsEnded() bool { return that.phase == PhaseEnded }

// PlayerRefs projects the roster into the form Init consumes.
func (that *Room) PlayerRefs() []engine.PlayerRef {
	refs := make([]engine.PlayerRef, 0, len(that.seats))
	for _, seat := range that.seats {
		refs = append(refs, engine.PlayerRef{
			ID:          seat.ID,
			DisplayName: seat.DisplayName,
			AvatarURL:   seat.AvatarURL,
		})
	}
	return refs
}

// Snapshot is the JSON-serializable view of a room used for persistence and
// the debug endpoint.
type Snapshot struct {
	SessionID   string         `json:"session_id"`
	Phase       string         `json:"phase"`
	Seats       []Seat         `json:"seats"`
	EngineState *engine.State  `json:"engine_state,omitempty"`
	Result      *engine.Result `json:"result,omitempty"`
}

func (that *Room) Snapshot() *Snapshot {
	seats := make([]Seat, 0, len(that.seats))
	for _, seat := range that.seats {
		seats = append(seats, *seat)
	}

	return &Snapshot{
		SessionID:   that.sessionID,
		Phase:       that.Phase(),
		Seats:       seats,
		EngineState: that.engineState,
		Result:      that.result,
	}
}
