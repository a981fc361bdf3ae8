package room

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/storage"
	"github.com/DoyleJ11/draft-room/pkg/types"
)

const (
	inboxSize      = 64
	persistTimeout = 5 * time.Second
)

// ErrClosed is returned by Send after the room has stopped.
var ErrClosed = errors.New("room closed")

type Options struct {
	Engine *engine.Engine
	Store  storage.Store
	Logger *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// ChatLimit defaults to chat.DefaultLimit.
	ChatLimit int
	// Config seeds the state of a room that has never been saved.
	Config engine.MatchConfig
}

type session struct {
	outbox chan types.ServerMessage
	role   engine.Role
}

// Room is one draft session. All state is owned by the loop goroutine; the
// rest of the process talks to it only through its inbox.
type Room struct {
	id        string
	inbox     chan Msg
	engine    *engine.Engine
	store     storage.Store
	log       *zap.Logger
	now       func() time.Time
	config    engine.MatchConfig
	chatLimit int

	state   engine.State
	chat    *chat.Log
	clients map[string]*session
	roles   map[engine.Role]string
	// persist is false when the stored snapshot could not be read. Writing
	// then would mix a fresh log into the old one.
	persist bool

	// Readable from any goroutine; the hub checks them when it sweeps.
	lastActivity atomic.Int64 // unix ms
	numClients   atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, id string, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemory()
	}
	if opts.Engine == nil {
		opts.Engine = engine.New(nil, nil)
	}
	if opts.ChatLimit <= 0 {
		opts.ChatLimit = chat.DefaultLimit
	}

	r := &Room{
		id:        id,
		inbox:     make(chan Msg, inboxSize),
		engine:    opts.Engine,
		store:     opts.Store,
		log:       opts.Logger.With(zap.String("component", "room"), zap.String("room_id", id)),
		now:       opts.Clock,
		config:    opts.Config,
		chatLimit: opts.ChatLimit,
		clients:   make(map[string]*session),
		roles:     make(map[engine.Role]string),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.Touch(opts.Clock())

	go r.loop()
	return r
}

func (r *Room) ID() string { return r.id }

// Inbox exposes the mailbox for callers that manage their own blocking.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// Send delivers m, blocking until it is queued, ctx ends, or the room stops.
func (r *Room) Send(ctx context.Context, m Msg) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
}

// TrySend queues m without blocking and reports whether it was queued.
func (r *Room) TrySend(m Msg) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- m:
		return true
	default:
		return false
	}
}

// Touch marks the room active as of now.
func (r *Room) Touch(now time.Time) { r.lastActivity.Store(now.UnixMilli()) }

func (r *Room) LastActivity() time.Time { return time.UnixMilli(r.lastActivity.Load()) }

// Idle reports whether the room has no sessions and nothing has happened in
// it for at least ttl.
func (r *Room) Idle(now time.Time, ttl time.Duration) bool {
	return r.numClients.Load() == 0 && now.Sub(r.LastActivity()) >= ttl
}

// Close stops the room without going through its mailbox.
func (r *Room) Close() { r.cancel() }

// View fetches a snapshot of the room through the loop.
func (r *Room) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := r.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-r.done:
		return View{}, ErrClosed
	}
}

func (r *Room) loop() {
	defer close(r.done)
	r.hydrate()

	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)

			case Leave:
				r.leave(msg.ClientID)

			case FromClient:
				r.handle(msg.ClientID, msg.Msg)

			case Tick:
				r.tick(msg.Now)

			case GetState:
				msg.Reply <- r.view()

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// hydrate restores the room from storage or starts it fresh. It runs on the
// loop goroutine before any message is handled.
func (r *Room) hydrate() {
	ctx, cancel := r.persistCtx()
	defer cancel()

	st, found, err := r.store.Load(ctx, r.id)
	switch {
	case err != nil:
		r.log.Error("load snapshot failed, starting fresh without persistence", zap.Error(err))
		r.state = engine.NewState(r.config)
	case found:
		r.persist = true
		r.state = engine.Heal(st)
		r.log.Info("room restored", zap.Int("last_seq", r.state.LastActionSeq), zap.String("status", string(r.state.Status)))
	default:
		r.persist = true
		r.state = engine.NewState(r.config)
		if err := r.store.Save(ctx, r.id, r.state); err != nil {
			r.log.Warn("save initial snapshot failed", zap.Error(err))
		}
		r.log.Info("room created", zap.String("series", string(r.state.SeriesMode)), zap.String("draft_mode", string(r.state.DraftMode)))
	}

	msgs, err := r.store.LoadChat(ctx, r.id)
	if err != nil {
		r.log.Warn("load chat failed", zap.Error(err))
	}
	r.chat = chat.NewLog(r.chatLimit, msgs)
}

func (r *Room) persistCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.ctx, persistTimeout)
}

// writable reports whether op may touch storage.
func (r *Room) writable(op string) bool {
	if !r.persist {
		r.log.Warn("storage write skipped, snapshot was never loaded", zap.String("op", op))
	}
	return r.persist
}

func (r *Room) view() View {
	roles := make(map[engine.Role]string, len(r.roles))
	for role, id := range r.roles {
		roles[role] = id
	}
	return View{
		ID:         r.id,
		State:        r.state.Clone(),
		NumClients:   len(r.clients),
		Roles:        roles,
		Chat:         r.chat.Messages(),
		LastActivity: r.LastActivity(),
	}
}

func (r *Room) join(msg Join) {
	if old, ok := r.clients[msg.ClientID]; ok {
		r.drop(msg.ClientID, old)
	}
	r.clients[msg.ClientID] = &session{outbox: msg.Outbox}
	r.numClients.Store(int32(len(r.clients)))
	now := r.now()
	r.Touch(now)
	r.sendTo(msg.ClientID, types.StateSync(r.state, now))
	r.sendTo(msg.ClientID, types.ChatSync(r.chat.Messages(), now))
	r.log.Debug("session joined", zap.String("client_id", msg.ClientID), zap.Int("clients", len(r.clients)))
}

func (r *Room) leave(clientID string) {
	s, ok := r.clients[clientID]
	if !ok {
		return
	}
	r.drop(clientID, s)
	r.log.Debug("session left", zap.String("client_id", clientID), zap.Int("clients", len(r.clients)))
}

// drop forgets a session, closes its outbox and releases its role if it
// still holds it.
func (r *Room) drop(clientID string, s *session) {
	close(s.outbox)
	delete(r.clients, clientID)
	r.numClients.Store(int32(len(r.clients)))
	if s.role != engine.RoleNone && r.roles[s.role] == clientID {
		delete(r.roles, s.role)
	}
}

// sendTo queues m for one session. A full outbox drops the session.
func (r *Room) sendTo(clientID string, m types.ServerMessage) {
	s, ok := r.clients[clientID]
	if !ok {
		return
	}
	select {
	case s.outbox <- m:
	default:
		r.log.Warn("slow session dropped", zap.String("client_id", clientID))
		r.drop(clientID, s)
	}
}

func (r *Room) broadcast(m types.ServerMessage) {
	for id := range r.clients {
		r.sendTo(id, m)
	}
}

func (r *Room) broadcastState() {
	r.broadcast(types.StateSync(r.state, r.now()))
}

func (r *Room) shutdown() {
	for id, s := range r.clients {
		close(s.outbox)
		delete(r.clients, id)
	}
	r.numClients.Store(0)
	clear(r.roles)
	r.cancel()

	// Joins still queued would leave their sessions waiting on an outbox
	// nobody closes.
	for {
		select {
		case m := <-r.inbox:
			if j, ok := m.(Join); ok {
				close(j.Outbox)
			}
		default:
			return
		}
	}
}
