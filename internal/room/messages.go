package room

import (
	"time"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/pkg/types"
)

type Msg interface{ isRoomMsg() }

// Join registers a session. The room owns Outbox from here on and closes it
// when the session leaves, is evicted, is too slow, or the room stops.
type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// FromClient carries one decoded inbound frame.
type FromClient struct {
	ClientID string
	Msg      types.ClientMessage
}

func (FromClient) isRoomMsg() {}

// Tick asks the room to enforce its turn deadline as of Now.
type Tick struct{ Now time.Time }

func (Tick) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// View is a read-only copy of the room taken inside the loop.
type View struct {
	ID           string
	State        engine.State
	NumClients   int
	Roles        map[engine.Role]string // role -> client id
	Chat         []chat.Message
	LastActivity time.Time
}
