package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile roles.
const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

// Profile is one user or driver. FCMToken is the push destination and may
// be empty for users who never registered a device.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID           string    `bun:"id,pk,type:uuid"`
	Role         string    `bun:"role"`
	FullName     string    `bun:"full_name"`
	PhoneNumber  string    `bun:"phone_number"`
	Address      string    `bun:"address"`
	FCMToken     string    `bun:"fcm_token"`
	LastLocation string    `bun:"last_location_json"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// ChatMessage is an in-app message row; the gateway only relays a push to
// the receiver when one is inserted.
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages"`

	ID         int64     `bun:",pk,autoincrement"`
	SenderID   string    `bun:"sender_id,type:uuid"`
	ReceiverID string    `bun:"receiver_id,type:uuid"`
	OrderID    int64     `bun:"order_id"`
	Message    string    `bun:"message"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
