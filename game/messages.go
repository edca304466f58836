package game

import (
	"encoding/json"
	"fmt"
)

// Heading is a snake movement direction on the grid.
type Heading string

const (
	HeadingUp    Heading = "up"
	HeadingDown  Heading = "down"
	HeadingLeft  Heading = "left"
	HeadingRight Heading = "right"
)

func (h Heading) Valid() bool {
	switch h {
	case HeadingUp, HeadingDown, HeadingLeft, HeadingRight:
		return true
	}
	return false
}

// Opposite returns the 180° reverse of the heading.
func (h Heading) Opposite() Heading {
	switch h {
	case HeadingUp:
		return HeadingDown
	case HeadingDown:
		return HeadingUp
	case HeadingLeft:
		return HeadingRight
	case HeadingRight:
		return HeadingLeft
	}
	return h
}

// Apply moves one cell along the heading.
func (h Heading) Apply(x, y int) (int, int) {
	switch h {
	case HeadingUp:
		return x, y - 1
	case HeadingDown:
		return x, y + 1
	case HeadingLeft:
		return x - 1, y
	case HeadingRight:
		return x + 1, y
	}
	return x, y
}

// Inbound frames. The raw JSON is decoded through a single envelope and
// returned as one of the typed variants below so the dispatch loop can
// switch exhaustively instead of branching on a loose string field.
type (
	// JoinMessage asks to enter the room with the given code.
	JoinMessage struct {
		Code string
	}

	// InputMessage overwrites the sender's pending heading.
	InputMessage struct {
		Direction Heading
	}

	// StartMessage asks the lifecycle manager to start the sender's room.
	StartMessage struct{}

	// ChatMessage carries chat text; RoomID is set for persisted chat-room
	// traffic and zero for in-match banter.
	ChatMessage struct {
		RoomID  int64
		Content string
	}
)

type inboundEnvelope struct {
	Type      string  `json:"type"`
	Code      string  `json:"code,omitempty"`
	Direction Heading `json:"direction,omitempty"`
	Room      int64   `json:"room,omitempty"`
	Content   string  `json:"content,omitempty"`
}

// DecodeInbound parses one client frame into its typed variant. Unknown
// types and invalid payloads return an error; callers drop the frame and
// keep the connection open.
func DecodeInbound(data []byte) (any, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	switch env.Type {
	case "join":
		if env.Code == "" {
			return nil, fmt.Errorf("join frame missing code")
		}
		return JoinMessage{Code: env.Code}, nil
	case "input":
		if !env.Direction.Valid() {
			return nil, fmt.Errorf("input frame with invalid direction %q", env.Direction)
		}
		return InputMessage{Direction: env.Direction}, nil
	case "start":
		return StartMessage{}, nil
	case "chat":
		if env.Content == "" {
			return nil, fmt.Errorf("chat frame missing content")
		}
		return ChatMessage{RoomID: env.Room, Content: env.Content}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", env.Type)
	}
}

// Outbound payload builders. Marshalling never fails for these shapes, so
// each returns the ready-to-send bytes.

func errorPayload(message string) []byte {
	b, _ := json.Marshal(map[string]any{"type": "error", "message": message})
	return b
}

// ErrorPayload serializes a player-facing error frame.
func ErrorPayload(err error) []byte {
	return errorPayload(err.Error())
}

func countdownPayload(count int) []byte {
	b, _ := json.Marshal(map[string]any{"type": "countdown", "count": count})
	return b
}

func gameOverPayload(outcome Outcome) []byte {
	b, _ := json.Marshal(map[string]any{"type": "game_over", "winner": outcome})
	return b
}

// ChatPayload serializes a chat frame for fan-out.
func ChatPayload(user, content string) []byte {
	b, _ := json.Marshal(map[string]any{"type": "chat", "user": user, "content": content})
	return b
}

func rosterPayload(users []Identity) []byte {
	b, _ := json.Marshal(map[string]any{"type": "roster", "users": users})
	return b
}
