// Package storetest holds the behaviour every storage.Store must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/storage"
)

// Run exercises a store. open must return an empty store; Run closes it.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("load missing", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		_, found, err := s.Load(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("save and load", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		st := engine.NewState(engine.MatchConfig{MatchTitle: "Finals", SeriesMode: engine.SeriesBO3})
		st.BlueBans = []string{"ahri"}
		require.NoError(t, s.Save(ctx, "r1", st))

		got, found, err := s.Load(ctx, "r1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Finals", got.MatchTitle)
		assert.Equal(t, engine.SeriesBO3, got.SeriesMode)
		assert.Equal(t, []string{"ahri"}, got.BlueBans)

		st.MatchTitle = "Overwritten"
		require.NoError(t, s.Save(ctx, "r1", st))
		got, _, err = s.Load(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Overwritten", got.MatchTitle)
	})

	t.Run("action log", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		st := engine.NewState(engine.MatchConfig{})
		for seq := 1; seq <= 3; seq++ {
			a := engine.DraftAction{Seq: seq, Type: engine.ActionBan, Side: engine.SideBlue, ItemID: fmt.Sprintf("i%d", seq), ActorRole: engine.RoleReferee}
			st.LastActionSeq = seq
			st.History = append(st.History, a)
			require.NoError(t, s.AppendAction(ctx, "r1", a, st))
		}
		require.NoError(t, s.AppendAction(ctx, "other", engine.DraftAction{Seq: 1, Type: engine.ActionStartGame}, st))

		got, err := s.ListActionsAfter(ctx, "r1", 1)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].Seq)
		assert.Equal(t, "i3", got[1].ItemID)

		loaded, found, err := s.Load(ctx, "r1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 3, loaded.LastActionSeq)

		require.NoError(t, s.RemoveLastAction(ctx, "r1"))
		got, err = s.ListActionsAfter(ctx, "r1", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[1].Seq)

		require.NoError(t, s.RemoveLastAction(ctx, "empty"))

		none, err := s.ListActionsAfter(ctx, "empty", 0)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("logged seq is never replaced", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		first := engine.NewState(engine.MatchConfig{MatchTitle: "First"})
		first.LastActionSeq = 1
		require.NoError(t, s.AppendAction(ctx, "r1", engine.DraftAction{Seq: 1, Type: engine.ActionBan, ItemID: "ahri"}, first))

		second := engine.NewState(engine.MatchConfig{MatchTitle: "Second"})
		second.LastActionSeq = 1
		require.Error(t, s.AppendAction(ctx, "r1", engine.DraftAction{Seq: 1, Type: engine.ActionBan, ItemID: "zed"}, second))

		got, err := s.ListActionsAfter(ctx, "r1", 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ahri", got[0].ItemID)

		loaded, _, err := s.Load(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "First", loaded.MatchTitle)
	})

	t.Run("action payload survives", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		a := engine.DraftAction{
			Seq:       1,
			Type:      engine.ActionSetSides,
			ActorRole: engine.RoleReferee,
			Payload:   &engine.Intent{Type: engine.ActionSetSides, SideForA: engine.SideRed, PriorityTeam: engine.TeamB},
		}
		require.NoError(t, s.AppendAction(ctx, "r1", a, engine.NewState(engine.MatchConfig{})))
		got, err := s.ListActionsAfter(ctx, "r1", 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Payload)
		assert.Equal(t, engine.SideRed, got[0].Payload.SideForA)
		assert.Equal(t, engine.TeamB, got[0].Payload.PriorityTeam)
	})

	t.Run("chat is bounded", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		now := time.UnixMilli(1_700_000_000_000)
		for i := 0; i < 5; i++ {
			m := chat.System(fmt.Sprintf("m%d", i), now.Add(time.Duration(i)*time.Millisecond))
			require.NoError(t, s.AppendChat(ctx, "r1", m, 3))
		}
		msgs, err := s.LoadChat(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "m2", msgs[0].Text)
		assert.Equal(t, "m4", msgs[2].Text)

		empty, err := s.LoadChat(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := s.Load(ctx, "r1")
		require.ErrorIs(t, err, context.Canceled)
	})
}
