package orderflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

// verifyBackoff is how long the mutator waits before the second and final
// verification read after a transport failure.
const verifyBackoff = 800 * time.Millisecond

// mutator wraps a conditional update with failure-tolerant verification.
// A network-level failure does not mean the write was lost: the update may
// have landed before the connection broke. Blindly retrying the write
// risks a double apply, and blindly reporting failure leaves the operator
// staring at a row that in fact changed. So: attempt, and on transport
// failure re-read the row and compare the intended values; if still
// inconclusive, wait once and verify again.
type mutator struct {
	store   Store
	logger  *zap.Logger
	backoff time.Duration
}

func newMutator(store Store, logger *zap.Logger) *mutator {
	return &mutator{store: store, logger: logger, backoff: verifyBackoff}
}

func (m *mutator) apply(ctx context.Context, u StatusUpdate) (*entity.Order, error) {
	order, err := m.store.ApplyStatusUpdate(ctx, u)
	if err == nil {
		return order, nil
	}
	if errors.Is(err, ErrNoMatch) {
		// Data-level rejection, not a blip. Surface immediately.
		return nil, err
	}

	m.logger.Warn("order update transport failure, verifying whether the write landed",
		zap.Int64("order_id", u.OrderID),
		zap.String("target", string(u.To)),
		zap.Error(err),
	)

	if verified := m.verify(ctx, u); verified != nil {
		m.logger.Info("order update verified despite transport failure", zap.Int64("order_id", u.OrderID))
		return verified, nil
	}

	select {
	case <-time.After(m.backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if verified := m.verify(ctx, u); verified != nil {
		m.logger.Info("order update verified on second read", zap.Int64("order_id", u.OrderID))
		return verified, nil
	}

	return nil, errorbank.Internal("order update failed", errorbank.WithCause(err))
}

func (m *mutator) verify(ctx context.Context, u StatusUpdate) *entity.Order {
	order, err := m.store.GetByID(ctx, u.OrderID)
	if err != nil {
		return nil
	}
	if u.Matches(order) {
		return order
	}
	return nil
}
