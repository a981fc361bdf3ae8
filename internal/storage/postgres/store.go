// Package postgres stores rooms in PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/draft-room/internal/chat"
	"github.com/DoyleJ11/draft-room/internal/engine"
	"github.com/DoyleJ11/draft-room/internal/storage"
)

type roomSnapshot struct {
	RoomID    string         `gorm:"primaryKey;type:text"`
	Snapshot  datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (roomSnapshot) TableName() string { return "room_snapshots" }

type roomAction struct {
	RoomID    string         `gorm:"primaryKey;type:text"`
	Seq       int            `gorm:"primaryKey;autoIncrement:false"`
	Action    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}

func (roomAction) TableName() string { return "room_actions" }

type chatRow struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"type:text;index;not null"`
	MessageID string `gorm:"not null"`
	TS        int64  `gorm:"not null"`
	Role      string `gorm:"not null"`
	Text      string `gorm:"not null"`
}

func (chatRow) TableName() string { return "room_chat" }

// Store provides a PostgreSQL-backed storage.Store.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the room tables.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := &Store{db: db}
	if err := db.AutoMigrate(&roomSnapshot{}, &roomAction{}, &chatRow{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, storage.ErrNotConfigured
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store) Load(ctx context.Context, roomID string) (engine.State, bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return engine.State{}, false, err
	}
	var row roomSnapshot
	err = db.Where("room_id = ?", roomID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.State{}, false, nil
	}
	if err != nil {
		return engine.State{}, false, fmt.Errorf("load snapshot %s: %w", roomID, err)
	}
	st, err := storage.DecodeState(row.Snapshot)
	if err != nil {
		return engine.State{}, false, fmt.Errorf("load snapshot %s: %w", roomID, err)
	}
	return st, true, nil
}

func (s *Store) Save(ctx context.Context, roomID string, state engine.State) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return saveSnapshot(db, roomID, state)
}

func saveSnapshot(db *gorm.DB, roomID string, state engine.State) error {
	raw, err := storage.EncodeState(state)
	if err != nil {
		return err
	}
	row := roomSnapshot{RoomID: roomID, Snapshot: datatypes.JSON(raw)}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", roomID, err)
	}
	return nil
}

func (s *Store) AppendAction(ctx context.Context, roomID string, action engine.DraftAction, state engine.State) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	raw, err := storage.EncodeAction(action)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		row := roomAction{RoomID: roomID, Seq: action.Seq, Action: datatypes.JSON(raw)}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("append action %s/%d: %w", roomID, action.Seq, err)
		}
		return saveSnapshot(tx, roomID, state)
	})
}

func (s *Store) ListActionsAfter(ctx context.Context, roomID string, afterSeq int) ([]engine.DraftAction, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []roomAction
	if err := db.Where("room_id = ? AND seq > ?", roomID, afterSeq).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list actions %s: %w", roomID, err)
	}
	out := make([]engine.DraftAction, 0, len(rows))
	for _, r := range rows {
		a, err := storage.DecodeAction(r.Action)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) RemoveLastAction(ctx context.Context, roomID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Exec(`DELETE FROM room_actions
WHERE room_id = ? AND seq = (SELECT MAX(seq) FROM room_actions WHERE room_id = ?)`, roomID, roomID).Error
	if err != nil {
		return fmt.Errorf("remove last action %s: %w", roomID, err)
	}
	return nil
}

func (s *Store) LoadChat(ctx context.Context, roomID string) ([]chat.Message, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []chatRow
	if err := db.Where("room_id = ?", roomID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load chat %s: %w", roomID, err)
	}
	out := make([]chat.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, chat.Message{ID: r.MessageID, TS: r.TS, Role: r.Role, Text: r.Text})
	}
	return out, nil
}

func (s *Store) AppendChat(ctx context.Context, roomID string, m chat.Message, limit int) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = chat.DefaultLimit
	}
	return db.Transaction(func(tx *gorm.DB) error {
		row := chatRow{RoomID: roomID, MessageID: m.ID, TS: m.TS, Role: m.Role, Text: m.Text}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("append chat %s: %w", roomID, err)
		}
		err := tx.Exec(`DELETE FROM room_chat
WHERE room_id = ? AND id NOT IN (
    SELECT id FROM room_chat WHERE room_id = ? ORDER BY id DESC LIMIT ?
)`, roomID, roomID, limit).Error
		if err != nil {
			return fmt.Errorf("trim chat %s: %w", roomID, err)
		}
		return nil
	})
}

var _ storage.Store = (*Store)(nil)
