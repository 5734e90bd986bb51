package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// CrashLog is a deduplicated crash cluster. Exactly one row exists per
// (log_hash, app_type) pair; Count only ever increases.
type CrashLog struct {
	bun.BaseModel `bun:"table:crash_logs"`

	ID           int64     `bun:",pk,autoincrement"`
	UserID       string    `bun:"user_id,type:uuid,nullzero"`
	ErrorMessage string    `bun:"error_message"`
	ErrorStack   string    `bun:"error_stack"`
	DeviceModel  string    `bun:"device_model"`
	OSVersion    string    `bun:"os_version"`
	AppVersion   string    `bun:"app_version"`
	AppType      string    `bun:"app_type"`
	LogHash      string    `bun:"log_hash"`
	Count        int       `bun:"count"`
	LastSeen     time.Time `bun:"last_seen"`
}
