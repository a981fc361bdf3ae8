// Package hub keeps the registry of live rooms and drives their turn clocks.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/room"
	"github.com/DoyleJ11/draft-room/internal/storage"
)

const (
	inboxSize            = 64
	maxIDAttempts        = 8
	DefaultSweepInterval = 500 * time.Millisecond
)

var (
	// ErrClosed is returned once the hub has shut down.
	ErrClosed = errors.New("hub closed")
	// ErrNoFreeID is returned by Create when every generated id was taken.
	ErrNoFreeID = errors.New("could not allocate a room id")
)

type Msg interface{ isHubMsg() }

// EnsureRoom returns the room with ID, starting it if it is not live.
// Config only seeds a room that storage has never seen.
type EnsureRoom struct {
	ID     string
	Config engine.MatchConfig
	Reply  chan *room.Room
}

type GetRoom struct {
	ID    string
	Reply chan *room.Room // nil when the room is not live
}

// CreateRoom starts a room under ID. The reply is nil if ID is already live.
type CreateRoom struct {
	ID     string
	Config engine.MatchConfig
	Reply  chan *room.Room
}

type RemoveRoom struct{ ID string }

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (CreateRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Engine    *engine.Engine
	Store     storage.Store
	Logger    *zap.Logger
	Clock     func() time.Time
	ChatLimit int
	// SweepInterval is how often every room is asked to check its deadline.
	SweepInterval time.Duration
	// IdleTTL unloads a room with no sessions once nothing has happened in
	// it for this long. Zero keeps rooms loaded until Remove.
	IdleTTL time.Duration
	// NewID defaults to GenerateCode.
	NewID func() (string, error)
}

type Hub struct {
	inbox chan Msg
	rooms map[string]*room.Room
	opts  Options
	log   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemory()
	}
	if opts.Engine == nil {
		opts.Engine = engine.New(nil, nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.NewID == nil {
		opts.NewID = GenerateCode
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan Msg, inboxSize),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		log:    opts.Logger.With(zap.String("component", "hub")),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

// Done is closed after the hub and all of its rooms have stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Ensure returns the live room for id, hydrating or creating it on a miss.
func (h *Hub) Ensure(ctx context.Context, id string, cfg engine.MatchConfig) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	return h.request(ctx, EnsureRoom{ID: id, Config: cfg, Reply: reply}, reply)
}

// Get returns the live room for id or nil.
func (h *Hub) Get(ctx context.Context, id string) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	return h.request(ctx, GetRoom{ID: id, Reply: reply}, reply)
}

// Create starts a new room under a freshly generated id. Ids already live
// or already in storage are regenerated.
func (h *Hub) Create(ctx context.Context, cfg engine.MatchConfig) (*room.Room, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := h.opts.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate room id: %w", err)
		}

		_, found, err := h.opts.Store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check room id %s: %w", id, err)
		}
		if !found {
			reply := make(chan *room.Room, 1)
			r, err := h.request(ctx, CreateRoom{ID: id, Config: cfg, Reply: reply}, reply)
			if err != nil {
				return nil, err
			}
			if r != nil {
				return r, nil
			}
		}
		h.log.Debug("room id collision, regenerating", zap.String("room_id", id))
	}
	return nil, ErrNoFreeID
}

// Remove stops the room and forgets it. Its stored state is kept.
func (h *Hub) Remove(ctx context.Context, id string) error {
	return h.send(ctx, RemoveRoom{ID: id})
}

// Shutdown stops every room and waits for the hub to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	if err := h.send(ctx, ShutdownHub{}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) send(ctx context.Context, m Msg) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrClosed
	}
}

func (h *Hub) request(ctx context.Context, m Msg, reply chan *room.Room) (*room.Room, error) {
	if err := h.send(ctx, m); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return nil, ErrClosed
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-ticker.C:
			h.sweep()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				r := h.live(msg.ID)
				if r == nil {
					r = h.start(msg.ID, msg.Config)
				}
				// The caller is about to use it; keep the next sweep from
				// unloading it first.
				r.Touch(h.opts.Clock())
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.live(msg.ID)

			case CreateRoom:
				if h.live(msg.ID) != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.start(msg.ID, msg.Config)

			case RemoveRoom:
				h.remove(msg.ID, "removed")

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// live returns the registered room for id, forgetting it if it has stopped.
func (h *Hub) live(id string) *room.Room {
	r := h.rooms[id]
	if r == nil {
		return nil
	}
	select {
	case <-r.Done():
		delete(h.rooms, id)
		return nil
	default:
		return r
	}
}

// remove stops the room and forgets it. Its stored state is kept, so the next
// Ensure hydrates it again.
func (h *Hub) remove(id, why string) {
	r := h.rooms[id]
	if r == nil {
		return
	}
	r.Close()
	delete(h.rooms, id)
	h.log.Info("room unloaded", zap.String("room_id", id), zap.String("reason", why), zap.Int("rooms", len(h.rooms)))
}

func (h *Hub) start(id string, cfg engine.MatchConfig) *room.Room {
	r := room.New(h.ctx, id, room.Options{
		Engine:    h.opts.Engine,
		Store:     h.opts.Store,
		Logger:    h.opts.Logger,
		Clock:     h.opts.Clock,
		ChatLimit: h.opts.ChatLimit,
		Config:    cfg,
	})
	h.rooms[id] = r
	h.log.Debug("room started", zap.String("room_id", id), zap.Int("rooms", len(h.rooms)))
	return r
}

// sweep unloads idle rooms and posts a Tick to the rest. A room with a full
// mailbox is skipped until the next sweep.
func (h *Hub) sweep() {
	now := h.opts.Clock()
	for id := range h.rooms {
		r := h.live(id)
		if r == nil {
			continue
		}
		if h.opts.IdleTTL > 0 && r.Idle(now, h.opts.IdleTTL) {
			h.remove(id, "idle")
			continue
		}
		if !r.TrySend(room.Tick{Now: now}) {
			h.log.Debug("tick skipped, mailbox full", zap.String("room_id", id))
		}
	}
}

func (h *Hub) shutdown() {
	h.cancel()
	for _, r := range h.rooms {
		<-r.Done()
	}
	clear(h.rooms)
	h.log.Info("hub stopped")
}
