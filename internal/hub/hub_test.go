package hub

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/draft-room/internal/catalog"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/room"
	"github.com/DoyleJ11/draft-room/internal/storage"
	"github.com/DoyleJ11/draft-room/pkg/types"
)

var t0 = time.UnixMilli(1_700_000_000_000)

// fixedIDs hands out ids in order.
func fixedIDs(ids ...string) func() (string, error) {
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id, nil
	}
}

func newHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	h := New(context.Background(), opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return h
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestEnsureThenGetReturnsSameRoom(t *testing.T) {
	h := newHub(t, Options{})
	ctx := ctxT(t)

	r1, err := h.Ensure(ctx, "ZED123", engine.MatchConfig{})
	require.NoError(t, err)
	r2, err := h.Ensure(ctx, "ZED123", engine.MatchConfig{})
	require.NoError(t, err)
	r3, err := h.Get(ctx, "ZED123")
	require.NoError(t, err)

	require.NotNil(t, r1)
	assert.Same(t, r1, r2)
	assert.Same(t, r1, r3)
}

func TestGetMissingRoomIsNil(t *testing.T) {
	h := newHub(t, Options{})
	r, err := h.Get(ctxT(t), "nope")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestEnsureSeedsConfigOnlyForNewRooms(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Save(context.Background(), "old", engine.NewState(engine.MatchConfig{MatchTitle: "Stored"})))
	h := newHub(t, Options{Store: store})
	ctx := ctxT(t)

	fresh, err := h.Ensure(ctx, "new", engine.MatchConfig{MatchTitle: "Fresh"})
	require.NoError(t, err)
	v, err := fresh.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", v.State.MatchTitle)

	old, err := h.Ensure(ctx, "old", engine.MatchConfig{MatchTitle: "Ignored"})
	require.NoError(t, err)
	v, err = old.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Stored", v.State.MatchTitle)
}

func TestCreateRegeneratesTakenIDs(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Save(context.Background(), "STORED", engine.NewState(engine.MatchConfig{})))
	h := newHub(t, Options{Store: store, NewID: fixedIDs("AAAAAA", "AAAAAA", "STORED", "BBBBBB")})
	ctx := ctxT(t)

	first, err := h.Create(ctx, engine.MatchConfig{SeriesMode: engine.SeriesBO3})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.ID())

	second, err := h.Create(ctx, engine.MatchConfig{})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.ID())

	v, err := first.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.SeriesBO3, v.State.SeriesMode)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	h := newHub(t, Options{NewID: fixedIDs("SAME01")})
	ctx := ctxT(t)

	_, err := h.Create(ctx, engine.MatchConfig{})
	require.NoError(t, err)
	_, err = h.Create(ctx, engine.MatchConfig{})
	require.ErrorIs(t, err, ErrNoFreeID)
}

func TestSweepEnforcesDeadlines(t *testing.T) {
	e := engine.NewSeeded(catalog.Default(), 7)
	s := engine.NewState(engine.MatchConfig{})
	for _, in := range []engine.Intent{
		{Type: engine.ActionSetSides, ActorRole: engine.RoleReferee, SideForA: engine.SideBlue},
		{Type: engine.ActionToggleReady, ActorRole: engine.RoleReferee, Side: engine.SideBlue},
		{Type: engine.ActionToggleReady, ActorRole: engine.RoleReferee, Side: engine.SideRed},
		{Type: engine.ActionStartGame, ActorRole: engine.RoleReferee},
	} {
		res := e.Submit(s, in, t0)
		require.Equal(t, engine.Committed, res.Outcome, "err=%v", res.Err)
		s = res.State
	}
	store := storage.NewMemory()
	require.NoError(t, store.Save(context.Background(), "TIMER1", s))

	late := t0.Add(31 * time.Second)
	h := newHub(t, Options{
		Engine:        e,
		Store:         store,
		Clock:         func() time.Time { return late },
		SweepInterval: 10 * time.Millisecond,
	})
	ctx := ctxT(t)

	r, err := h.Ensure(ctx, "TIMER1", engine.MatchConfig{})
	require.NoError(t, err)
	out := make(chan types.ServerMessage, 16)
	require.NoError(t, r.Send(ctx, room.Join{ClientID: "w", Outbox: out}))

	deadline := time.After(time.Second)
	for {
		select {
		case m := <-out:
			if m.Type != types.MsgStateSync {
				continue
			}
			got := m.Payload.(engine.State)
			if got.DraftStepIndex == 0 {
				continue
			}
			assert.Equal(t, 1, got.DraftStepIndex)
			assert.Len(t, got.BlueBans, 1)
			assert.Equal(t, late.UnixMilli()+30_000, got.StepEndsAt)
			return
		case <-deadline:
			t.Fatal("sweep never timed out the turn")
		}
	}
}

func TestRemoveStopsRoom(t *testing.T) {
	h := newHub(t, Options{})
	ctx := ctxT(t)

	r, err := h.Ensure(ctx, "GONE01", engine.MatchConfig{})
	require.NoError(t, err)
	require.NoError(t, h.Remove(ctx, "GONE01"))

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("room did not stop")
	}
	got, err := h.Get(ctx, "GONE01")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestShutdownStopsRoomsAndRejectsCalls(t *testing.T) {
	h := New(context.Background(), Options{Logger: zaptest.NewLogger(t)})
	ctx := ctxT(t)

	r, err := h.Ensure(ctx, "ROOM01", engine.MatchConfig{})
	require.NoError(t, err)
	out := make(chan types.ServerMessage, 4)
	require.NoError(t, r.Send(ctx, room.Join{ClientID: "c", Outbox: out}))
	_, err = r.View(ctx)
	require.NoError(t, err)

	require.NoError(t, h.Shutdown(ctx))
	<-r.Done()

	for range out {
	}
	_, err = h.Ensure(ctx, "ROOM02", engine.MatchConfig{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, h.Shutdown(ctx))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSweepUnloadsIdleEmptyRooms(t *testing.T) {
	store := storage.NewMemory()
	clock := &testClock{now: t0}
	h := newHub(t, Options{
		Store:         store,
		Clock:         clock.Now,
		SweepInterval: 10 * time.Millisecond,
		IdleTTL:       time.Minute,
	})
	ctx := ctxT(t)

	idle, err := h.Ensure(ctx, "IDLE01", engine.MatchConfig{MatchTitle: "Kept"})
	require.NoError(t, err)
	_, err = idle.View(ctx)
	require.NoError(t, err)

	busy, err := h.Ensure(ctx, "BUSY01", engine.MatchConfig{})
	require.NoError(t, err)
	out := make(chan types.ServerMessage, 16)
	require.NoError(t, busy.Send(ctx, room.Join{ClientID: "c", Outbox: out}))
	_, err = busy.View(ctx)
	require.NoError(t, err)

	// Several sweeps inside the TTL leave both rooms loaded.
	time.Sleep(50 * time.Millisecond)
	got, err := h.Get(ctx, "IDLE01")
	require.NoError(t, err)
	require.Same(t, idle, got)

	clock.Advance(2 * time.Minute)
	select {
	case <-idle.Done():
	case <-time.After(time.Second):
		t.Fatal("idle room was never unloaded")
	}

	got, err = h.Get(ctx, "IDLE01")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = h.Get(ctx, "BUSY01")
	require.NoError(t, err)
	assert.Same(t, busy, got, "a room with a session stays loaded")

	again, err := h.Ensure(ctx, "IDLE01", engine.MatchConfig{MatchTitle: "Ignored"})
	require.NoError(t, err)
	require.NotSame(t, idle, again)
	v, err := again.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kept", v.State.MatchTitle, "unloaded room hydrates from storage")
}

func TestEnsureKeepsRoomFromIdleUnload(t *testing.T) {
	clock := &testClock{now: t0}
	h := newHub(t, Options{
		Clock:         clock.Now,
		SweepInterval: time.Hour,
		IdleTTL:       time.Minute,
	})
	ctx := ctxT(t)

	r, err := h.Ensure(ctx, "ROOM01", engine.MatchConfig{})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	assert.True(t, r.Idle(clock.Now(), time.Minute))

	again, err := h.Ensure(ctx, "ROOM01", engine.MatchConfig{})
	require.NoError(t, err)
	require.Same(t, r, again)
	assert.False(t, r.Idle(clock.Now(), time.Minute))
}
