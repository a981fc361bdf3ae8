// Package storage is the durability boundary for rooms: one current
// snapshot, an append-only action log and a bounded chat log per room id.
package storage

import (
	"context"
	"errors"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/draft.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// ErrNotConfigured is returned by methods called on a nil or closed store.
var ErrNotConfigured = errors.New("storage is not configured")

// Store persists room state. Whatever was last written is authoritative on
// restart. Implementations must be safe for concurrent use by many rooms.
type Store interface {
	// Load returns the current snapshot. found is false when the room has
	// never been saved.
	Load(ctx context.Context, roomID string) (state engine.State, found bool, err error)
	// Save overwrites the current snapshot.
	Save(ctx context.Context, roomID string, state engine.State) error
	// AppendAction appends action to the log and saves state in one write.
	AppendAction(ctx context.Context, roomID string, action engine.DraftAction, state engine.State) error
	// ListActionsAfter returns logged actions with seq > afterSeq, by seq.
	ListActionsAfter(ctx context.Context, roomID string, afterSeq int) ([]engine.DraftAction, error)
	// RemoveLastAction drops the highest-seq action. An empty log is not an error.
	RemoveLastAction(ctx context.Context, roomID string) error

	LoadChat(ctx context.Context, roomID string) ([]chat.Message, error)
	// AppendChat appends m and keeps only the newest limit messages.
	AppendChat(ctx context.Context, roomID string, m chat.Message, limit int) error

	Close() error
}
