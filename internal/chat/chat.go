package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/DoyleJ11/draft-room/internal/engine"
)

const (
	MaxTextLen   = 300
	DefaultLimit = 200

	// RoleSystem authors server-generated notices.
	RoleSystem = "SYSTEM"
)

var (
	ErrNotAllowed = errors.New("only the referee and teams can chat")
	ErrEmpty      = errors.New("message is empty")
	ErrTooLong    = errors.New("message too long (max 300 chars)")
)

type Message struct {
	ID   string `json:"id"`
	TS   int64  `json:"ts"` // unix ms
	Role string `json:"role"`
	Text string `json:"text"`
}

// New validates a chat line from role and builds the message to store.
func New(role engine.Role, text string, now time.Time) (Message, error) {
	if !role.Seated() {
		return Message{}, ErrNotAllowed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmpty
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return Message{}, ErrTooLong
	}
	return newMessage(string(role), text, now), nil
}

// System builds a server notice. It is not length checked.
func System(text string, now time.Time) Message {
	return newMessage(RoleSystem, text, now)
}

// Joined is the notice posted when a role is claimed.
func Joined(role engine.Role, now time.Time) Message {
	return System(string(role)+" joined the room", now)
}

func newMessage(role, text string, now time.Time) Message {
	return Message{
		ID:   uuid.NewString(),
		TS:   now.UnixMilli(),
		Role: role,
		Text: text,
	}
}

// Log is a bounded chat history; the oldest entries fall off past the limit.
// It is not safe for concurrent use; a room owns its log.
type Log struct {
	limit    int
	messages []Message
}

func NewLog(limit int, initial []Message) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &Log{limit: limit}
	l.messages = Trim(append([]Message(nil), initial...), limit)
	return l
}

func (l *Log) Append(m Message) {
	l.messages = Trim(append(l.messages, m), l.limit)
}

// Messages returns a copy of the log, oldest first.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int   { return len(l.messages) }
func (l *Log) Limit() int { return l.limit }

// Trim keeps the newest limit messages.
func Trim(msgs []Message, limit int) []Message {
	if limit > 0 && len(msgs) > limit {
		kept := make([]Message, limit)
		copy(kept, msgs[len(msgs)-limit:])
		return kept
	}
	return msgs
}
