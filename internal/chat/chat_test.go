package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/draft-room/internal/engine"
)

var now = time.UnixMilli(1_700_000_000_000)

func TestNew(t *testing.T) {
	cases := []struct {
		name string
		role engine.Role
		text string
		want error
	}{
		{name: "referee", role: engine.RoleReferee, text: "gl hf"},
		{name: "team", role: engine.RoleTeamB, text: "  padded  "},
		{name: "spectator", role: engine.RoleSpectator, text: "hi", want: ErrNotAllowed},
		{name: "no role", role: engine.RoleNone, text: "hi", want: ErrNotAllowed},
		{name: "blank", role: engine.RoleTeamA, text: "   ", want: ErrEmpty},
		{name: "exactly max", role: engine.RoleTeamA, text: strings.Repeat("x", MaxTextLen)},
		{name: "too long", role: engine.RoleTeamA, text: strings.Repeat("x", MaxTextLen+1), want: ErrTooLong},
		{name: "multibyte counts runes", role: engine.RoleTeamA, text: strings.Repeat("é", MaxTextLen)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.role, tc.text, now)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tc.text), m.Text)
			assert.Equal(t, string(tc.role), m.Role)
			assert.Equal(t, now.UnixMilli(), m.TS)
			assert.NotEmpty(t, m.ID)
		})
	}
}

func TestJoinedNotice(t *testing.T) {
	m := Joined(engine.RoleTeamA, now)
	assert.Equal(t, RoleSystem, m.Role)
	assert.Equal(t, "TEAM_A joined the room", m.Text)
}

func TestLogDropsOldest(t *testing.T) {
	l := NewLog(3, nil)
	for i := 0; i < 5; i++ {
		l.Append(System(fmt.Sprint(i), now))
	}
	msgs := l.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "2", msgs[0].Text)
	assert.Equal(t, "4", msgs[2].Text)

	msgs[0].Text = "mutated"
	assert.Equal(t, "2", l.Messages()[0].Text)
}

func TestNewLogTrimsInitialAndDefaultsLimit(t *testing.T) {
	initial := make([]Message, DefaultLimit+10)
	l := NewLog(0, initial)
	assert.Equal(t, DefaultLimit, l.Limit())
	assert.Equal(t, DefaultLimit, l.Len())
}
