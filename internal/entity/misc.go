package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MenuItem is a sellable dish managed through the operator bot.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID        int64           `bun:",pk,autoincrement"`
	Title     string          `bun:"title"`
	Price     decimal.Decimal `bun:"price"`
	Category  string          `bun:"category"`
	ImageURL  string          `bun:"image_url"`
	Available bool            `bun:"available"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Review is customer feedback forwarded to the operator channel.
type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID        int64     `bun:",pk,autoincrement"`
	UserID    string    `bun:"user_id,type:uuid"`
	OrderID   int64     `bun:"order_id"`
	Rating    int       `bun:"rating"`
	Comment   string    `bun:"comment"`
	FullName  string    `bun:"full_name"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// PaymentMethod is a payment destination shown to customers at checkout.
type PaymentMethod struct {
	bun.BaseModel `bun:"table:payment_methods"`

	ID            int64     `bun:",pk,autoincrement"`
	Name          string    `bun:"name"`
	AccountNumber string    `bun:"account_number"`
	AccountName   string    `bun:"account_name"`
	Active        bool      `bun:"active"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// AppSetting is a single key/value operational toggle (delivery fee,
// service open flag).
type AppSetting struct {
	bun.BaseModel `bun:"table:app_settings"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// BotSession persists per-chat conversation state between bot turns.
type BotSession struct {
	bun.BaseModel `bun:"table:bot_sessions"`

	Key       string          `bun:"key,pk"`
	Session   json.RawMessage `bun:"session,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero"`
}
