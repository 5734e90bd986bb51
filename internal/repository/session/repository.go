package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// Repository persists conversational bot state so multi-step forms survive
// process restarts. Keys are "<userID>:<chatID>".
type Repository struct {
	writer *bun.DB
}

func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer}
}

// Load returns the stored session payload for a key, nil when absent.
func (r *Repository) Load(ctx context.Context, key string) (json.RawMessage, error) {
	row := new(entity.BotSession)
	err := r.writer.NewSelect().Model(row).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Session, nil
}

// Save upserts the session payload for a key.
func (r *Repository) Save(ctx context.Context, key string, payload json.RawMessage) error {
	row := &entity.BotSession{
		Key:       key,
		Session:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.writer.NewInsert().Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("session = EXCLUDED.session").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Delete drops the stored session for a key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	_, err := r.writer.NewDelete().Model((*entity.BotSession)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}
