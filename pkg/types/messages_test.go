package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/draft-room/internal/engine"
)

func TestClientMessageDecodePayload(t *testing.T) {
	var cm ClientMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ACTION_SUBMIT","payload":{"actorRole":"TEAM_A","itemId":"ahri"}}`), &cm))
	assert.True(t, Known(cm.Type))

	var in engine.Intent
	require.NoError(t, cm.DecodePayload(&in))
	assert.Equal(t, engine.RoleTeamA, in.ActorRole)
	assert.Equal(t, "ahri", in.ItemID)

	var empty ClientMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"PING"}`), &empty))
	var a Actor
	require.NoError(t, empty.DecodePayload(&a))
	assert.Equal(t, engine.RoleNone, a.ActorRole)

	assert.False(t, Known("HELLO"))
}

func TestServerMessageShape(t *testing.T) {
	now := time.UnixMilli(1234)
	b, err := json.Marshal(ActionRejected("not your turn"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ACTION_REJECTED","payload":{"reason":"not your turn"}}`, string(b))

	b, err = json.Marshal(Pong(now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PONG","timestamp":1234}`, string(b))

	b, err = json.Marshal(ChatSync(nil, now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CHAT_SYNC","payload":{"messages":[]},"timestamp":1234}`, string(b))
}
