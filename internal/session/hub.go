package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
	"github.com/playsetlabs/partyroom-backend/internal/sandbox"
)

type HubMsg interface{ isHubMsg() }

// EnsureSession returns the session for a room code, creating it with the
// hub's current game implementation if it does not exist yet.
type EnsureSession struct {
	Code  string
	Reply chan *Session
}

// GetSession replies with the session for a code, or nil.
type GetSession struct {
	Code  string
	Reply chan *Session
}

type RemoveSession struct{ Code string }

// ReloadGame swaps the active game implementation for every session. Each
// session applies the swap atomically between processed events.
type ReloadGame struct {
	Game  engine.Game
	Reply chan error
}

type ShutdownHub struct{}

func (EnsureSession) isHubMsg()  {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ReloadGame) isHubMsg()    {}
func (ShutdownHub) isHubMsg()   {}

// HubOptions configures the hub and the sessions it spawns.
type HubOptions struct {
	Game     engine.Game
	NamePool []string
	Store    Store
}

// Hub owns every live session, keyed by room code, and holds the current
// sandbox-guarded game implementation new sessions bind to.
type Hub struct {
	logger   *slog.Logger
	inbox    chan HubMsg
	sessions map[string]*Session
	game     engine.Game
	opts     HubOptions
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewHub wraps the supplied game in the sandbox guard and starts the hub
// loop. An incomplete game contract is fatal here, before any room binds.
func NewHub(parent context.Context, logger *slog.Logger, opts HubOptions) (*Hub, error) {
	guarded, err := sandbox.Wrap(logger, opts.Game)
	if err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		logger:   logger.With("component", "hub"),
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*Session),
		game:     guarded,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}

	go h.loop()
	return h, nil
}

func (that *Hub) Inbox() chan<- HubMsg { return that.inbox }

func (that *Hub) loop() {
	for {
		select {
		case <-that.ctx.Done():
			that.shutdown()
			return

		case m := <-that.inbox:
			switch msg := m.(type) {
			case EnsureSession:
				msg.Reply <- that.ensure(msg.Code)

			case GetSession:
				msg.Reply <- that.sessions[msg.Code]

			case RemoveSession:
				if s := that.sessions[msg.Code]; s != nil {
					s.Inbox() <- Shutdown{}
					delete(that.sessions, msg.Code)
				}

			case ReloadGame:
				msg.Reply <- that.reload(msg.Game)

			case ShutdownHub:
				that.shutdown()
				return
			}
		}
	}
}

func (that *Hub) ensure(code string) *Session {
	if s := that.sessions[code]; s != nil {
		return s
	}

	s, err := New(that.ctx, that.logger, Options{
		SessionID: code,
		Game:      that.game,
		NamePool:  that.opts.NamePool,
		Store:     that.opts.Store,
	})
	if err != nil {
		// The hub's game was validated at construction, so this only fires
		// after a bad reload slipped through; refuse the room.
		that.logger.Error("failed to create session", "code", code, "error", err)
		return nil
	}

	that.sessions[code] = s
	that.logger.Info("session created", "code", code)
	return s
}

func (that *Hub) reload(game engine.Game) error {
	guarded, err := sandbox.Wrap(that.logger, game)
	if err != nil {
		return fmt.Errorf("reload rejected: %w", err)
	}

	that.game = guarded
	for code, s := range that.sessions {
		select {
		case s.Inbox() <- SwapGame{Game: guarded}:
		default:
			that.logger.Warn("session inbox full, swap postponed", "code", code)
		}
	}

	that.logger.Info("game implementation reloaded", "sessions", len(that.sessions))
	return nil
}

func (that *Hub) shutdown() {
	for code, s := range that.sessions {
		s.Inbox() <- Shutdown{}
		delete(that.sessions, code)
	}
	that.cancel()
}
