package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/playsetlabs/partyroom-backend/internal/engine"
	"github.com/playsetlabs/partyroom-backend/internal/session"
)

// Message is the wire envelope for both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound actions.
const (
	ActionRoomJoin    = "room:join"
	ActionPlayerReady = "player:ready"
	ActionGameStart   = "game:start"
	ActionGameAction  = "game:action"
	ActionGameReset   = "game:reset"
)

// Outbound actions.
const (
	ActionRoomUpdate     = "room:update"
	ActionPlayerAssigned = "player:assigned"
	ActionGameState      = "game:state"
	ActionGameResult     = "game:result"
	ActionError          = "error"
)

type joinPayload struct {
	Name      string `json:"name"`
	AutoName  bool   `json:"auto_name"`
	Observer  bool   `json:"observer"`
	AvatarURL string `json:"avatar_url"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type actionPayload struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// decodeMessage maps one wire message to a session message for the given
// connection. Unknown actions and malformed payloads return an error; the
// caller reports it back on the socket and keeps reading.
func decodeMessage(connID string, outbox chan session.Event, raw []byte) (session.Msg, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch msg.Action {
	case ActionRoomJoin:
		var p joinPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return nil, fmt.Errorf("malformed %s payload: %w", msg.Action, err)
			}
		}
		return session.Join{
			ConnID:      connID,
			DisplayName: p.Name,
			AutoName:    p.AutoName,
			Observer:    p.Observer,
			AvatarURL:   p.AvatarURL,
			Outbox:      outbox,
		}, nil

	case ActionPlayerReady:
		var p readyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", msg.Action, err)
		}
		return session.Ready{ConnID: connID, Ready: p.Ready}, nil

	case ActionGameStart:
		return session.Start{ConnID: connID}, nil

	case ActionGameAction:
		var p actionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", msg.Action, err)
		}
		var inner any
		if len(p.Payload) > 0 {
			if err := json.Unmarshal(p.Payload, &inner); err != nil {
				return nil, fmt.Errorf("malformed %s payload: %w", msg.Action, err)
			}
		}
		return session.Act{ConnID: connID, Action: engine.Action{Type: p.Type, Payload: inner}}, nil

	case ActionGameReset:
		return session.Reset{ConnID: connID}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
}

// encodeEvent maps a session event to its wire message.
func encodeEvent(ev session.Event) (Message, error) {
	var action string

	switch ev.(type) {
	case session.RosterUpdate:
		action = ActionRoomUpdate
	case session.SeatAssigned:
		action = ActionPlayerAssigned
	case session.StatePush:
		action = ActionGameState
	case session.GameResult:
		action = ActionGameResult
	default:
		return Message{}, fmt.Errorf("unmapped event %T", ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", action, err)
	}

	return Message{Action: action, Payload: payload}, nil
}

func errorMessage(reason string) Message {
	payload, _ := json.Marshal(errorPayload{Error: reason})
	return Message{Action: ActionError, Payload: payload}
}
