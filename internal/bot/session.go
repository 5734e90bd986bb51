package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Form actions the bot can be waiting on.
const (
	actionAcceptETA    = "accept_eta"
	actionRejectReason = "reject_reason"
	actionItemTitle    = "additem_title"
	actionItemPrice    = "additem_price"
	actionItemCategory = "additem_category"
	actionSetFee       = "set_fee"
)

// formState is the persisted conversation state for one admin chat. It
// survives restarts so a half-finished form picks up where it left off.
type formState struct {
	Action  string    `json:"action"`
	OrderID int64     `json:"order_id,omitempty"`
	Draft   menuDraft `json:"draft,omitempty"`
}

type menuDraft struct {
	Title    string `json:"title,omitempty"`
	Price    string `json:"price,omitempty"`
	Category string `json:"category,omitempty"`
}

// SessionStore persists conversation state between updates.
type SessionStore interface {
	Load(ctx context.Context, key string) (json.RawMessage, error)
	Save(ctx context.Context, key string, payload json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

func sessionKey(userID, chatID int64) string {
	return fmt.Sprintf("%d:%d", userID, chatID)
}

func (r *Router) loadForm(ctx context.Context, key string) (*formState, error) {
	raw, err := r.sessions.Load(ctx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var state formState
	if err := json.Unmarshal(raw, &state); err != nil {
		// Corrupt state is unrecoverable; drop it rather than wedging
		// the chat.
		_ = r.sessions.Delete(ctx, key)
		return nil, nil
	}
	if state.Action == "" {
		return nil, nil
	}
	return &state, nil
}

func (r *Router) saveForm(ctx context.Context, key string, state formState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.sessions.Save(ctx, key, raw)
}

func (r *Router) clearForm(ctx context.Context, key string) {
	if err := r.sessions.Delete(ctx, key); err != nil {
		r.logger.Warn("session delete failed", zap.String("key", key), zap.Error(err))
	}
}
