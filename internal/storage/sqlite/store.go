// Package sqlite is the default on-disk room store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/storage"
)

//go:embed schema.sql
var schema string

// Store provides a SQLite-backed storage.Store.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) a SQLite store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Writes go through a single connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.sqlDB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	return nil
}

func (s *Store) Load(ctx context.Context, roomID string) (engine.State, bool, error) {
	if err := s.ready(ctx); err != nil {
		return engine.State{}, false, err
	}
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT snapshot FROM room_snapshots WHERE room_id = ?`, roomID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.State{}, false, nil
	}
	if err != nil {
		return engine.State{}, false, fmt.Errorf("load snapshot %s: %w", roomID, err)
	}
	st, err := storage.DecodeState([]byte(raw))
	if err != nil {
		return engine.State{}, false, fmt.Errorf("load snapshot %s: %w", roomID, err)
	}
	return st, true, nil
}

func (s *Store) Save(ctx context.Context, roomID string, state engine.State) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.saveSnapshot(ctx, s.sqlDB, roomID, state)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveSnapshot(ctx context.Context, db execer, roomID string, state engine.State) error {
	raw, err := storage.EncodeState(state)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO room_snapshots (room_id, snapshot, updated_at) VALUES (?, ?, ?)
ON CONFLICT (room_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		roomID, string(raw), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", roomID, err)
	}
	return nil
}

func (s *Store) AppendAction(ctx context.Context, roomID string, action engine.DraftAction, state engine.State) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	raw, err := storage.EncodeAction(action)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append action: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_actions (room_id, seq, action, created_at) VALUES (?, ?, ?, ?)`,
		roomID, action.Seq, string(raw), s.now().UnixMilli()); err != nil {
		return fmt.Errorf("append action %s/%d: %w", roomID, action.Seq, err)
	}
	if err := s.saveSnapshot(ctx, tx, roomID, state); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append action: %w", err)
	}
	return nil
}

func (s *Store) ListActionsAfter(ctx context.Context, roomID string, afterSeq int) ([]engine.DraftAction, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT action FROM room_actions WHERE room_id = ? AND seq > ? ORDER BY seq`, roomID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("list actions %s: %w", roomID, err)
	}
	defer rows.Close()

	out := []engine.DraftAction{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a, err := storage.DecodeAction([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list actions %s: %w", roomID, err)
	}
	return out, nil
}

func (s *Store) RemoveLastAction(ctx context.Context, roomID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM room_actions
WHERE room_id = ? AND seq = (SELECT MAX(seq) FROM room_actions WHERE room_id = ?)`, roomID, roomID)
	if err != nil {
		return fmt.Errorf("remove last action %s: %w", roomID, err)
	}
	return nil
}

func (s *Store) LoadChat(ctx context.Context, roomID string) ([]chat.Message, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT message_id, ts, role, text FROM room_chat WHERE room_id = ? ORDER BY row_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("load chat %s: %w", roomID, err)
	}
	defer rows.Close()

	out := []chat.Message{}
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.TS, &m.Role, &m.Text); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load chat %s: %w", roomID, err)
	}
	return out, nil
}

func (s *Store) AppendChat(ctx context.Context, roomID string, m chat.Message, limit int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if limit <= 0 {
		limit = chat.DefaultLimit
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append chat: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_chat (room_id, message_id, ts, role, text) VALUES (?, ?, ?, ?, ?)`,
		roomID, m.ID, m.TS, m.Role, m.Text); err != nil {
		return fmt.Errorf("append chat %s: %w", roomID, err)
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM room_chat
WHERE room_id = ? AND row_id NOT IN (
    SELECT row_id FROM room_chat WHERE room_id = ? ORDER BY row_id DESC LIMIT ?
)`, roomID, roomID, limit); err != nil {
		return fmt.Errorf("trim chat %s: %w", roomID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append chat: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
