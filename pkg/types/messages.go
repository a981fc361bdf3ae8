package types

import (
	"encoding/json"
	"time"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
)

// Client -> Server
const (
	MsgActionSubmit = "ACTION_SUBMIT"
	MsgToggleReady  = "TOGGLE_READY"
	MsgActionUndo   = "ACTION_UNDO"
	MsgActionReset  = "ACTION_RESET"
	MsgRoleClaim    = "ROLE_CLAIM"
	MsgChatSend     = "CHAT_SEND"
	MsgPing         = "PING"
)

// Server -> Client
const (
	MsgStateSync      = "STATE_SYNC"
	MsgActionRejected = "ACTION_REJECTED"
	MsgChatSync       = "CHAT_SYNC"
	MsgChatMessage    = "CHAT_MESSAGE"
	MsgChatRejected   = "CHAT_REJECTED"
	MsgForcedLogout   = "FORCED_LOGOUT"
	MsgPong           = "PONG"
)

// ClientMessage is the envelope every inbound frame is decoded into. Payload
// is decoded once the type is known.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Known reports whether t is a client message type the server handles.
func Known(t string) bool {
	switch t {
	case MsgActionSubmit, MsgToggleReady, MsgActionUndo, MsgActionReset,
		MsgRoleClaim, MsgChatSend, MsgPing:
		return true
	}
	return false
}

// DecodePayload unmarshals the payload into dst. A missing payload leaves
// dst untouched.
func (m ClientMessage) DecodePayload(dst any) error {
	if len(m.Payload) == 0 || string(m.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(m.Payload, dst)
}

type RoleClaim struct {
	ActorRole engine.Role `json:"actorRole"`
}

type ChatSend struct {
	Text      string      `json:"text"`
	ActorRole engine.Role `json:"actorRole,omitempty"`
}

// Actor carries the optional actorRole of ACTION_UNDO and ACTION_RESET.
type Actor struct {
	ActorRole engine.Role `json:"actorRole,omitempty"`
}

type ServerMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix ms
}

type Reason struct {
	Reason string `json:"reason"`
}

type ChatHistory struct {
	Messages []chat.Message `json:"messages"`
}

func StateSync(s engine.State, now time.Time) ServerMessage {
	return ServerMessage{Type: MsgStateSync, Payload: s, Timestamp: now.UnixMilli()}
}

func ActionRejected(reason string) ServerMessage {
	return ServerMessage{Type: MsgActionRejected, Payload: Reason{Reason: reason}}
}

func ChatSync(msgs []chat.Message, now time.Time) ServerMessage {
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ServerMessage{Type: MsgChatSync, Payload: ChatHistory{Messages: msgs}, Timestamp: now.UnixMilli()}
}

func ChatMessage(m chat.Message, now time.Time) ServerMessage {
	return ServerMessage{Type: MsgChatMessage, Payload: m, Timestamp: now.UnixMilli()}
}

func ChatRejected(reason string) ServerMessage {
	return ServerMessage{Type: MsgChatRejected, Payload: Reason{Reason: reason}}
}

func ForcedLogout(reason string, now time.Time) ServerMessage {
	return ServerMessage{Type: MsgForcedLogout, Payload: Reason{Reason: reason}, Timestamp: now.UnixMilli()}
}

func Pong(now time.Time) ServerMessage {
	return ServerMessage{Type: MsgPong, Timestamp: now.UnixMilli()}
}
