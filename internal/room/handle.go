package room

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/pkg/types"
)

const (
	reasonBadJSON     = "bad json"
	reasonUnknownType = "unknown message type"
)

func (r *Room) handle(clientID string, m types.ClientMessage) {
	s, ok := r.clients[clientID]
	if !ok {
		// Frames from a session the room already dropped.
		return
	}
	r.Touch(r.now())

	switch m.Type {
	case types.MsgPing:
		r.sendTo(clientID, types.Pong(r.now()))

	case types.MsgRoleClaim:
		var p types.RoleClaim
		if err := m.DecodePayload(&p); err != nil {
			r.sendTo(clientID, types.ActionRejected(reasonBadJSON))
			return
		}
		r.claimRole(clientID, s, p.ActorRole)

	case types.MsgChatSend:
		var p types.ChatSend
		if err := m.DecodePayload(&p); err != nil {
			r.sendTo(clientID, types.ActionRejected(reasonBadJSON))
			return
		}
		r.chatSend(clientID, actingRole(p.ActorRole, s), p.Text)

	case types.MsgActionSubmit, types.MsgToggleReady:
		var in engine.Intent
		if err := m.DecodePayload(&in); err != nil {
			r.sendTo(clientID, types.ActionRejected(reasonBadJSON))
			return
		}
		if m.Type == types.MsgToggleReady {
			in.Type = engine.ActionToggleReady
		}
		in.ActorRole = actingRole(in.ActorRole, s)
		r.submit(clientID, in, r.now())

	case types.MsgActionUndo:
		var p types.Actor
		if err := m.DecodePayload(&p); err != nil {
			r.sendTo(clientID, types.ActionRejected(reasonBadJSON))
			return
		}
		if actingRole(p.ActorRole, s) != engine.RoleReferee {
			r.sendTo(clientID, types.ActionRejected(engine.ErrRefereeOnly.Reason))
			return
		}
		r.undo()

	case types.MsgActionReset:
		var p types.Actor
		if err := m.DecodePayload(&p); err != nil {
			r.sendTo(clientID, types.ActionRejected(reasonBadJSON))
			return
		}
		if actingRole(p.ActorRole, s) != engine.RoleReferee {
			r.sendTo(clientID, types.ActionRejected(engine.ErrRefereeOnly.Reason))
			return
		}
		r.submit(clientID, engine.Intent{Type: engine.ActionResetGame, ActorRole: engine.RoleReferee}, r.now())

	default:
		r.sendTo(clientID, types.ActionRejected(reasonUnknownType))
	}
}

// actingRole prefers the role named in the payload and falls back to the
// role the session claimed.
func actingRole(claimed engine.Role, s *session) engine.Role {
	if claimed != engine.RoleNone {
		return claimed
	}
	return s.role
}

// claimRole binds role to clientID. A previous holder is sent FORCED_LOGOUT
// and dropped first.
func (r *Room) claimRole(clientID string, s *session, role engine.Role) {
	if !role.Seated() {
		return
	}
	now := r.now()

	if holder, ok := r.roles[role]; ok && holder != clientID {
		if prev, ok := r.clients[holder]; ok {
			reason := fmt.Sprintf("role %s was claimed on another device", role)
			// The notice must be the last thing the old session reads, so
			// make room for it in a full outbox.
			select {
			case prev.outbox <- types.ForcedLogout(reason, now):
			default:
				select {
				case <-prev.outbox:
				default:
				}
				select {
				case prev.outbox <- types.ForcedLogout(reason, now):
				default:
				}
			}
			r.drop(holder, prev)
			r.log.Info("role evicted", zap.String("role", string(role)), zap.String("client_id", holder))
		}
	}

	if s.role != engine.RoleNone && s.role != role && r.roles[s.role] == clientID {
		delete(r.roles, s.role)
	}
	s.role = role
	r.roles[role] = clientID
	r.log.Info("role claimed", zap.String("role", string(role)), zap.String("client_id", clientID))

	r.appendChat(chat.Joined(role, now), now)
}

func (r *Room) chatSend(clientID string, role engine.Role, text string) {
	now := r.now()
	m, err := chat.New(role, text, now)
	if err != nil {
		r.sendTo(clientID, types.ChatRejected(err.Error()))
		return
	}
	r.appendChat(m, now)
}

func (r *Room) appendChat(m chat.Message, now time.Time) {
	r.chat.Append(m)

	if r.writable("append chat") {
		ctx, cancel := r.persistCtx()
		if err := r.store.AppendChat(ctx, r.id, m, r.chatLimit); err != nil {
			r.log.Warn("persist chat failed", zap.Error(err))
		}
		cancel()
	}
	r.broadcast(types.ChatMessage(m, now))
}

// submit runs an intent through validate, apply, persist and broadcast.
// Rejections go back to clientID only; an empty clientID is the server.
func (r *Room) submit(clientID string, in engine.Intent, now time.Time) engine.Result {
	res := r.engine.Submit(r.state, in, now)

	switch res.Outcome {
	case engine.Rejected:
		if clientID != "" {
			r.sendTo(clientID, types.ActionRejected(res.Err.Error()))
		}
		r.log.Debug("action rejected",
			zap.String("type", string(in.Type)),
			zap.String("actor", string(in.ActorRole)),
			zap.Error(res.Err))

	case engine.Ignored:
		r.log.Debug("action ignored", zap.String("type", string(in.Type)), zap.String("actor", string(in.ActorRole)))

	case engine.Committed:
		r.state = res.State
		r.Touch(now)
		if r.writable("append action") {
			ctx, cancel := r.persistCtx()
			if err := r.store.AppendAction(ctx, r.id, res.Action, r.state); err != nil {
				r.log.Error("persist action failed", zap.Int("seq", res.Action.Seq), zap.Error(err))
			}
			cancel()
		}
		r.log.Info("action committed",
			zap.Int("seq", res.Action.Seq),
			zap.String("type", string(res.Action.Type)),
			zap.String("actor", string(res.Action.ActorRole)))
		r.broadcastState()
	}
	return res
}

// undo drops the newest action and rebuilds the state from the rest.
func (r *Room) undo() {
	history := r.state.History
	if len(history) == 0 {
		return
	}
	last := history[len(history)-1]

	r.state = engine.Replay(history[:len(history)-1], r.now(), engine.ConfigOf(r.state))
	if r.writable("undo") {
		ctx, cancel := r.persistCtx()
		defer cancel()
		if err := r.store.RemoveLastAction(ctx, r.id); err != nil {
			r.log.Error("remove last action failed", zap.Error(err))
		}
		if err := r.store.Save(ctx, r.id, r.state); err != nil {
			r.log.Error("save after undo failed", zap.Error(err))
		}
	}
	r.log.Info("action undone", zap.Int("seq", last.Seq), zap.String("type", string(last.Type)))
	r.broadcastState()
}

// tick commits a server action when the current turn has run out: a random
// ban or pick while drafting, FINISH_SWAP once the swap window closes.
func (r *Room) tick(now time.Time) {
	s := r.state
	if s.Status != engine.StatusRunning || s.Paused || s.StepEndsAt <= 0 || now.UnixMilli() <= s.StepEndsAt {
		return
	}

	var in engine.Intent
	switch s.Phase {
	case engine.PhaseDraft:
		in = engine.Intent{ActorRole: engine.RoleReferee, ItemID: engine.ItemRandom}
	case engine.PhaseSwap:
		in = engine.Intent{Type: engine.ActionFinishSwap, ActorRole: engine.RoleReferee}
	default:
		return
	}

	res := r.submit("", in, now)
	if res.Outcome == engine.Committed {
		r.log.Info("turn timed out", zap.String("phase", string(s.Phase)), zap.String("item", res.Action.ItemID))
	}
}
