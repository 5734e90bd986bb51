package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/orderflow"
)

// Directory resolves notification audiences to device tokens.
type Directory interface {
	TokenForUser(ctx context.Context, userID string) (string, error)
	DriverTokens(ctx context.Context) ([]string, error)
}

// Dispatcher fans out order notifications to devices. Delivery is strictly
// best effort: failures are logged and never surface to the caller, so a
// push outage cannot fail a webhook or an operator action.
type Dispatcher struct {
	sender    Sender
	directory Directory
	logger    *zap.Logger
}

func NewDispatcher(sender Sender, directory Directory, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, directory: directory, logger: logger}
}

// Dispatch delivers each event to its audience.
func (d *Dispatcher) Dispatch(ctx context.Context, events []orderflow.Notification) {
	for _, ev := range events {
		switch ev.Audience {
		case orderflow.AudienceAllDrivers:
			d.PushToDrivers(ctx, ev.Title, ev.Body, ev.Data)
		default:
			d.PushToUser(ctx, ev.UserID, ev.Title, ev.Body, ev.Data)
		}
	}
}

// PushToUser sends one push to a single user. Users without a registered
// device are silently skipped.
func (d *Dispatcher) PushToUser(ctx context.Context, userID, title, body string, data map[string]string) {
	if userID == "" {
		return
	}
	token, err := d.directory.TokenForUser(ctx, userID)
	if err != nil {
		d.logger.Error("token lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if token == "" {
		return
	}
	if err := d.sender.Send(ctx, token, title, body, data); err != nil {
		d.logger.Error("push send failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// PushToDrivers broadcasts to every registered driver device.
func (d *Dispatcher) PushToDrivers(ctx context.Context, title, body string, data map[string]string) {
	tokens, err := d.directory.DriverTokens(ctx)
	if err != nil {
		d.logger.Error("driver token lookup failed", zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}
	if err := d.sender.SendMulticast(ctx, tokens, title, body, data); err != nil {
		d.logger.Error("driver broadcast failed", zap.Int("tokens", len(tokens)), zap.Error(err))
	}
}
