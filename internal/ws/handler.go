// Package ws bridges websocket connections to room mailboxes.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/room"
	"github.com/DoyleJ11/draft-room/pkg/types"
)

const (
	outboxSize   = 32
	directSize   = 4
	writeTimeout = 5 * time.Second
	readTimeout  = 90 * time.Second
	pingInterval = 30 * time.Second

	DefaultRoom = "default"

	reasonBadJSON   = "bad json"
	reasonRateLimit = "rate limit exceeded"
)

// StatusForcedLogout closes a connection whose role was claimed elsewhere.
const StatusForcedLogout websocket.StatusCode = 4001

// Rooms resolves a room id to its live room.
type Rooms interface {
	Ensure(ctx context.Context, id string, cfg engine.MatchConfig) (*room.Room, error)
}

type Config struct {
	// AllowedOrigins are host patterns accepted besides the request host.
	AllowedOrigins []string
	// RateLimit is inbound frames per second per connection, 0 disables it.
	RateLimit float64
	RateBurst int
	Logger    *zap.Logger
}

// Handler upgrades GET /ws?room=ID and joins the connection to that room.
func Handler(rooms Rooms, cfg Config) http.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "ws"))

	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = DefaultRoom
		}

		rm, err := rooms.Ensure(r.Context(), roomID, engine.MatchConfig{})
		if err != nil {
			log.Error("resolve room failed", zap.String("room_id", roomID), zap.Error(err))
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: cfg.AllowedOrigins,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		s := &session{
			id:      uuid.NewString(),
			conn:    conn,
			room:    rm,
			out:     make(chan types.ServerMessage, outboxSize),
			direct:  make(chan types.ServerMessage, directSize),
			limiter: newLimiter(cfg.RateLimit, cfg.RateBurst),
		}
		s.log = log.With(zap.String("room_id", roomID), zap.String("client_id", s.id))
		s.serve(r.Context())
	}
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}

type session struct {
	id      string
	conn    *websocket.Conn
	room    *room.Room
	out     chan types.ServerMessage // owned and closed by the room
	direct  chan types.ServerMessage // transport-level replies
	limiter *rate.Limiter
	log     *zap.Logger
}

func (s *session) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if err := s.room.Send(ctx, room.Join{ClientID: s.id, Outbox: s.out}); err != nil {
		s.log.Debug("join failed", zap.Error(err))
		_ = s.conn.Close(websocket.StatusGoingAway, "room closed")
		return
	}
	s.log.Debug("connection opened")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)
	cancel()

	leaveCtx, leaveCancel := context.WithTimeout(context.Background(), writeTimeout)
	if err := s.room.Send(leaveCtx, room.Leave{ClientID: s.id}); err != nil && !errors.Is(err, room.ErrClosed) {
		s.log.Warn("leave failed", zap.Error(err))
	}
	leaveCancel()
	<-writerDone
	s.log.Debug("connection closed")
}

func (s *session) readLoop(ctx context.Context) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := s.conn.Read(readCtx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					s.log.Debug("read failed", zap.Error(err))
				}
			}
			return
		}

		if !s.limiter.Allow() {
			s.reply(types.ActionRejected(reasonRateLimit))
			continue
		}

		var msg types.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			s.reply(types.ActionRejected(reasonBadJSON))
			continue
		}

		if err := s.room.Send(ctx, room.FromClient{ClientID: s.id, Msg: msg}); err != nil {
			return
		}
	}
}

// reply queues a message the room never sees. It is dropped if the writer
// is backed up.
func (s *session) reply(m types.ServerMessage) {
	select {
	case s.direct <- m:
	default:
	}
}

func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	forced := false
	for {
		select {
		case m, ok := <-s.out:
			if !ok {
				if forced {
					_ = s.conn.Close(StatusForcedLogout, "Logged in on another device")
				} else {
					_ = s.conn.Close(websocket.StatusGoingAway, "room closed")
				}
				return
			}
			if m.Type == types.MsgForcedLogout {
				forced = true
			}
			if err := s.write(ctx, m); err != nil {
				return
			}

		case m := <-s.direct:
			if err := s.write(ctx, m); err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.Debug("ping failed", zap.Error(err))
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *session) write(ctx context.Context, m types.ServerMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, s.conn, m); err != nil {
		s.log.Debug("write failed", zap.String("type", m.Type), zap.Error(err))
		return err
	}
	return nil
}
