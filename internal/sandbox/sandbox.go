package sandbox

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/playsetlabs/partyroom-backend/internal/clock"
	"github.com/playsetlabs/partyroom-backend/internal/engine"
)

// Wrap validates game and returns a guarded copy of its contract. Each of
// the five calls runs with the process-wide timer primitives muted, and the
// states returned by Init and HandleAction are scanned for values that JSON
// serialization would corrupt. Both protections are advisory: they log
// through logger and never alter arguments or return values.
//
// The timer swap is process-wide, so guarded calls serialize process-wide:
// muteTimers holds a package mutex across the swap and its restore. Rooms
// run their event loops on separate goroutines and take turns here.
func Wrap(logger *slog.Logger, game engine.Game) (engine.Game, error) {
	if err := game.Validate(); err != nil {
		return engine.Game{}, fmt.Errorf("cannot guard game: %w", err)
	}

	g := &guard{
		logger: logger.With("component", "sandbox"),
		warned: make(map[string]bool),
	}

	return engine.Game{
		Init: func(players []engine.PlayerRef, options map[string]any) engine.State {
			defer g.muteTimers()()

			state := game.Init(players, options)
			g.scanState("Init", state)
			return state
		},
		HandleAction: func(state engine.State, playerID string, action engine.Action) engine.State {
			defer g.muteTimers()()

			next := game.HandleAction(state, playerID, action)
			g.scanState("HandleAction", next)
			return next
		},
		IsGameOver: func(state engine.State) bool {
			defer g.muteTimers()()
			return game.IsGameOver(state)
		},
		GetResult: func(state engine.State) engine.Result {
			defer g.muteTimers()()
			return game.GetResult(state)
		},
		GetPlayerView: func(state engine.State, playerID string) any {
			defer g.muteTimers()()
			return game.GetPlayerView(state, playerID)
		},
	}, nil
}

type guard struct {
	logger *slog.Logger
	mu     sync.Mutex
	warned map[string]bool
}

// guardMu serializes guarded calls across every session goroutine. Without
// it, two rooms interleaving swap and restore would leave the muted
// scheduler installed after both calls return.
var guardMu sync.Mutex

// muteTimers swaps a no-op scheduler in and returns the restore function.
// Restoration is unconditional: callers defer it, so the real scheduler
// comes back even when the wrapped call panics.
func (that *guard) muteTimers() func() {
	guardMu.Lock()
	prev := clock.Swap(&mutedScheduler{guard: that})
	return func() {
		clock.Swap(prev)
		guardMu.Unlock()
	}
}

func (that *guard) scanState(call string, state engine.State) {
	for _, h := range scanValue(reflect.ValueOf(state), "", 0) {
		that.logger.Warn("engine state contains a value JSON serialization will corrupt",
			"call", call,
			"path", h.Path,
			"reason", h.Reason,
		)
	}
}

// warnTimer logs once per primitive name for the lifetime of the guard.
func (that *guard) warnTimer(primitive string) {
	that.mu.Lock()
	seen := that.warned[primitive]
	that.warned[primitive] = true
	that.mu.Unlock()
	if seen {
		return
	}

	that.logger.Warn("engine called a timer primitive during a guarded call; timers are suppressed",
		"primitive", primitive,
	)
}

// mutedScheduler replaces the real scheduler during guarded calls. Schedule
// calls return the sentinel handle 0 and warn once per primitive; cancels
// are silent no-ops.
type mutedScheduler struct {
	guard *guard
}

func (that *mutedScheduler) Schedule(_ time.Duration, _ func()) clock.Handle {
	that.guard.warnTimer("Schedule")
	return 0
}

func (that *mutedScheduler) ScheduleEvery(_ time.Duration, _ func()) clock.Handle {
	that.guard.warnTimer("ScheduleEvery")
	return 0
}

func (that *mutedScheduler) Cancel(_ clock.Handle) {}

func (that *mutedScheduler) CancelEvery(_ clock.Handle) {}
