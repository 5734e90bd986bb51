package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Location is a delivery coordinate pair stored as jsonb.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Order represents one customer purchase stored in the relational database.
// PublicID is the stable cross-system identifier; DisplayCode is the short
// human-readable code shown to customers and the operator.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64           `bun:",pk,autoincrement"`
	PublicID        uuid.UUID       `bun:"public_id,type:uuid"`
	DisplayCode     string          `bun:"display_code"`
	Status          string          `bun:"status"`
	UserID          string          `bun:"user_id,type:uuid"`
	DriverID        *string         `bun:"driver_id,type:uuid"`
	TotalAmount     decimal.Decimal `bun:"total_amount"`
	EstimatedTime   int             `bun:"estimated_time"`
	AdminNotes      string          `bun:"admin_notes"`
	PaymentProofURL string          `bun:"payment_proof_url"`
	DeliveryLoc     *Location       `bun:"delivery_location,type:jsonb"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	AcceptedAt      *time.Time      `bun:"accepted_at"`
}

// DisplayID returns the code shown in operator and customer messages,
// falling back to the numeric id for pre-backfill rows.
func (o *Order) DisplayID() string {
	if o.DisplayCode != "" {
		return o.DisplayCode
	}
	return strconv.FormatInt(o.ID, 10)
}

// OrderItem is one line item. It references the order by its public UUID,
// not the numeric primary key.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID         int64     `bun:",pk,autoincrement"`
	OrderID    uuid.UUID `bun:"order_id,type:uuid"`
	MenuItemID int64     `bun:"menu_item_id"`
	Title      string    `bun:"title"`
	Quantity   int       `bun:"quantity"`
}
