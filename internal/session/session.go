package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
	"github.com/playsetlabs/partyroom-backend/internal/room"
)

// Store persists room snapshots after every mutation. Persistence is
// best-effort: failures are logged, never surfaced to players.
type Store interface {
	CreateOrUpdate(ctx context.Context, snapshot *room.Snapshot) error
}

// Options configures a session.
type Options struct {
	SessionID string
	Game      engine.Game // must be complete; callers normally pass a sandbox-wrapped game
	NamePool  []string    // defaults to room.DefaultNamePool
	Store     Store       // optional
}

// Session owns one Room and is its only writer. All mutations run on the
// session goroutine in arrival order; connections talk to it exclusively
// through the inbox and their outbox channels.
type Session struct {
	logger    *slog.Logger
	inbox     chan Msg
	room      *room.Room
	game      engine.Game
	namePool  []string
	store     Store
	seats     map[string]chan Event // connID -> outbox for seated connections
	observers map[string]chan Event
	// rosterStale marks that send() dropped a seat mid-delivery; the loop
	// rebroadcasts the roster once the current message is done.
	rosterStale bool
	ctx         context.Context
	cancel      context.CancelFunc
}

// New validates the game contract, starts the session loop and returns the
// running session. An incomplete contract is fatal: the session refuses to
// bind to it.
func New(parent context.Context, logger *slog.Logger, opts Options) (*Session, error) {
	if err := opts.Game.Validate(); err != nil {
		return nil, fmt.Errorf("cannot bind room %q: %w", opts.SessionID, err)
	}

	pool := opts.NamePool
	if len(pool) == 0 {
		pool = room.DefaultNamePool
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		logger:    logger.With("component", "session", "session_id", opts.SessionID),
		inbox:     make(chan Msg, 64),
		room:      room.New(opts.SessionID),
		game:      opts.Game,
		namePool:  pool,
		store:     opts.Store,
		seats:     make(map[string]chan Event),
		observers: make(map[string]chan Event),
		ctx:       ctx,
		cancel:    cancel,
	}

	go s.loop()
	return s, nil
}

// Inbox is where transports and tests send session messages.
func (that *Session) Inbox() chan<- Msg { return that.inbox }

func (that *Session) loop() {
	for {
		select {
		case <-that.ctx.Done():
			that.shutdown()
			return

		case m := <-that.inbox:
			switch msg := m.(type) {
			case Join:
				that.handleJoin(msg)
			case Ready:
				that.handleReady(msg)
			case Start:
				that.handleStart(msg)
			case Act:
				that.handleAct(msg)
			case Reset:
				that.handleReset(msg)
			case Leave:
				that.handleLeave(msg)
			case SwapGame:
				that.handleSwapGame(msg)
			case Inspect:
				msg.Reply <- that.view()
			case Shutdown:
				that.shutdown()
				return
			}

			that.flushDrops()
		}
	}
}

// flushDrops settles the roster after send() removed slow connections while
// a delivery was iterating the outbox maps. The rebroadcast can itself drop
// more connections, so it loops until the roster is stable.
func (that *Session) flushDrops() {
	if !that.rosterStale {
		return
	}

	for that.rosterStale {
		that.rosterStale = false
		that.broadcast(that.rosterUpdate())
	}
	that.persist()
}

func (that *Session) handleJoin(msg Join) {
	if msg.Observer {
		that.observers[msg.ConnID] = msg.Outbox
		that.send(msg.ConnID, msg.Outbox, that.rosterUpdate())

		// Observers get the raw state, not a per-seat view. This is the
		// privileged introspection path for debug clients.
		if state := that.room.EngineState(); state != nil {
			if outbox, ok := that.observers[msg.ConnID]; ok {
				that.send(msg.ConnID, outbox, StatePush{View: *state})
			}
		}
		return
	}

	name := msg.DisplayName
	if msg.AutoName {
		name = room.NextAvailableName(that.namePool, that.room.Seats())
	} else if name == "" {
		name = fmt.Sprintf("Player %d", len(that.room.Seats())+1)
	}

	seat := that.room.AddSeat(uuid.NewString(), name, msg.AvatarURL, msg.ConnID)
	that.seats[msg.ConnID] = msg.Outbox

	that.logger.Info("seat joined", "seat_id", seat.ID, "display_name", seat.DisplayName, "is_host", seat.IsHost)

	that.send(msg.ConnID, msg.Outbox, SeatAssigned{SeatID: seat.ID, DisplayName: seat.DisplayName})
	that.broadcast(that.rosterUpdate())

	// A client arriving mid-game receives the current filtered state right
	// away instead of an empty lobby.
	if state := that.room.EngineState(); state != nil {
		if outbox, ok := that.seats[msg.ConnID]; ok {
			that.send(msg.ConnID, outbox, StatePush{View: that.game.GetPlayerView(*state, seat.ID)})
		}
	}

	that.persist()
}

func (that *Session) handleReady(msg Ready) {
	seat := that.room.SeatByConn(msg.ConnID)
	if seat == nil {
		that.logger.Debug("ready from unknown connection ignored", "conn_id", msg.ConnID)
		return
	}

	that.room.SetReady(seat.ID, msg.Ready)
	that.broadcast(that.rosterUpdate())
	that.persist()
}

func (that *Session) handleStart(msg Start) {
	seat := that.room.SeatByConn(msg.ConnID)
	if seat == nil || !seat.IsHost {
		that.logger.Debug("start from non-host ignored", "conn_id", msg.ConnID)
		return
	}
	if that.room.IsActive() || !that.room.CanStart() {
		that.logger.Debug("start ignored", "phase", that.room.Phase())
		return
	}

	state := that.game.Init(that.room.PlayerRefs(), nil)
	that.room.Start(state)

	that.logger.Info("game started", "seats", len(that.room.Seats()))

	that.pushViews()
	that.broadcast(that.rosterUpdate())
	that.persist()
}

func (that *Session) handleAct(msg Act) {
	seat := that.room.SeatByConn(msg.ConnID)
	if seat == nil {
		that.logger.Debug("action from unknown connection ignored", "conn_id", msg.ConnID)
		return
	}
	if !that.room.IsActive() {
		that.logger.Debug("action outside active game ignored", "action", msg.Action.Type)
		return
	}

	// The new state is bound unconditionally: a rejected action comes back
	// as the identical input state and the rebind is a cheap no-op. The
	// orchestrator never learns whether the game accepted it.
	next := that.game.HandleAction(*that.room.EngineState(), seat.ID, msg.Action)
	that.room.SetEngineState(next)

	if that.room.IsPlaying() && that.game.IsGameOver(next) {
		result := that.game.GetResult(next)
		that.room.Finish(result)

		that.logger.Info("game over", "rankings", len(result.Rankings))
		that.broadcast(GameResult{Result: result})
	}

	that.pushViews()
	that.broadcast(that.rosterUpdate())
	that.persist()
}

func (that *Session) handleReset(msg Reset) {
	seat := that.room.SeatByConn(msg.ConnID)
	if seat == nil || !seat.IsHost {
		that.logger.Debug("reset from non-host ignored", "conn_id", msg.ConnID)
		return
	}

	that.room.Reset()
	that.logger.Info("room reset")

	that.broadcast(that.rosterUpdate())
	that.persist()
}

func (that *Session) handleLeave(msg Leave) {
	if outbox, ok := that.observers[msg.ConnID]; ok {
		close(outbox)
		delete(that.observers, msg.ConnID)
		return
	}

	seat := that.room.SeatByConn(msg.ConnID)
	if seat == nil {
		return
	}

	if outbox, ok := that.seats[msg.ConnID]; ok {
		close(outbox)
		delete(that.seats, msg.ConnID)
	}
	that.room.RemoveSeat(seat.ID)
	that.logger.Info("seat left", "seat_id", seat.ID)

	that.broadcast(that.rosterUpdate())
	that.persist()
}

func (that *Session) handleSwapGame(msg SwapGame) {
	if err := msg.Game.Validate(); err != nil {
		that.logger.Error("refusing to swap in incomplete game", "error", err)
		return
	}

	that.game = msg.Game
	that.logger.Info("game implementation swapped")
}

// pushViews recomputes every connection's state view: the per-seat
// projection for players, the unfiltered state for observers.
func (that *Session) pushViews() {
	state := that.room.EngineState()
	if state == nil {
		return
	}

	for _, seat := range that.room.Seats() {
		outbox, ok := that.seats[seat.ConnID]
		if !ok {
			continue
		}
		that.send(seat.ConnID, outbox, StatePush{View: that.game.GetPlayerView(*state, seat.ID)})
	}

	for connID, outbox := range that.observers {
		that.send(connID, outbox, StatePush{View: *state})
	}
}

func (that *Session) rosterUpdate() RosterUpdate {
	seats := that.room.Seats()
	infos := make([]SeatInfo, 0, len(seats))
	for _, seat := range seats {
		infos = append(infos, SeatInfo{
			ID:          seat.ID,
			DisplayName: seat.DisplayName,
			IsHost:      seat.IsHost,
			Ready:       seat.Ready,
		})
	}

	return RosterUpdate{Seats: infos, Phase: that.room.Phase()}
}

func (that *Session) broadcast(ev Event) {
	for connID, outbox := range that.seats {
		that.send(connID, outbox, ev)
	}
	for connID, outbox := range that.observers {
		that.send(connID, outbox, ev)
	}
}

// send delivers without blocking the loop. A full outbox means the client
// stopped draining; the connection is dropped like a disconnect.
func (that *Session) send(connID string, outbox chan Event, ev Event) {
	select {
	case outbox <- ev:
	default:
		that.logger.Warn("dropping slow connection", "conn_id", connID)
		that.drop(connID, outbox)
	}
}

func (that *Session) drop(connID string, outbox chan Event) {
	close(outbox)

	if _, ok := that.observers[connID]; ok {
		delete(that.observers, connID)
		return
	}

	delete(that.seats, connID)
	if seat := that.room.SeatByConn(connID); seat != nil {
		that.room.RemoveSeat(seat.ID)
		that.rosterStale = true
	}
}

func (that *Session) persist() {
	if that.store == nil {
		return
	}
	if err := that.store.CreateOrUpdate(that.ctx, that.room.Snapshot()); err != nil {
		that.logger.Error("failed to persist room snapshot", "error", err)
	}
}

func (that *Session) view() View {
	return View{
		Phase:        that.room.Phase(),
		Seats:        that.rosterUpdate().Seats,
		NumConns:     len(that.seats),
		NumObservers: len(that.observers),
		EngineState:  that.room.EngineState(),
	}
}

func (that *Session) shutdown() {
	for connID, outbox := range that.seats {
		close(outbox)
		delete(that.seats, connID)
	}
	for connID, outbox := range that.observers {
		close(outbox)
		delete(that.observers, connID)
	}
	that.cancel()
}
