package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
)

type memRoom struct {
	state   *engine.State
	actions []engine.DraftAction
	chat    []chat.Message
}

// Memory keeps everything in process. It backs tests and STORAGE_DRIVER=memory.
type Memory struct {
	mu    sync.Mutex
	rooms map[string]*memRoom
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]*memRoom)}
}

func (m *Memory) room(id string) *memRoom {
	r := m.rooms[id]
	if r == nil {
		r = &memRoom{}
		m.rooms[id] = r
	}
	return r
}

func (m *Memory) Load(ctx context.Context, roomID string) (engine.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return engine.State{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[roomID]
	if r == nil || r.state == nil {
		return engine.State{}, false, nil
	}
	return r.state.Clone(), true, nil
}

func (m *Memory) Save(ctx context.Context, roomID string, state engine.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := state.Clone()
	m.room(roomID).state = &s
	return nil
}

func (m *Memory) AppendAction(ctx context.Context, roomID string, action engine.DraftAction, state engine.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.room(roomID)
	for _, a := range r.actions {
		if a.Seq == action.Seq {
			return fmt.Errorf("append action %s/%d: seq already logged", roomID, action.Seq)
		}
	}
	r.actions = append(r.actions, action)
	s := state.Clone()
	r.state = &s
	return nil
}

func (m *Memory) ListActionsAfter(ctx context.Context, roomID string, afterSeq int) ([]engine.DraftAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []engine.DraftAction{}
	r := m.rooms[roomID]
	if r == nil {
		return out, nil
	}
	for _, a := range r.actions {
		if a.Seq > afterSeq {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) RemoveLastAction(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[roomID]
	if r == nil || len(r.actions) == 0 {
		return nil
	}
	last := 0
	for i, a := range r.actions {
		if a.Seq >= r.actions[last].Seq {
			last = i
		}
	}
	r.actions = append(r.actions[:last:last], r.actions[last+1:]...)
	return nil
}

func (m *Memory) LoadChat(ctx context.Context, roomID string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []chat.Message{}
	if r := m.rooms[roomID]; r != nil {
		out = append(out, r.chat...)
	}
	return out, nil
}

func (m *Memory) AppendChat(ctx context.Context, roomID string, msg chat.Message, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.room(roomID)
	r.chat = chat.Trim(append(r.chat, msg), limit)
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
