package orderflow

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

var machineTracer = otel.Tracer("github.com/abebe-delivery/gateway/orderflow")

// ErrNoMatch is returned by a Store when the conditional update matched no
// row: either the order is gone or its status already left the allowed
// source set. Both mean the transition must not apply.
var ErrNoMatch = errors.New("order status update matched no rows")

// ErrNotFound is returned by Store reads for missing orders.
var ErrNotFound = errors.New("order not found")

// StatusUpdate is one conditional transition: set the order to To only if
// its current status is in From. Optional fields ride along atomically.
type StatusUpdate struct {
	OrderID       int64
	To            Status
	From          []Status
	EstimatedTime *int
	AcceptedAt    *time.Time
	AdminNotes    *string
}

// Matches reports whether an observed row carries every intended value.
// Used to verify a write after a transport failure.
func (u StatusUpdate) Matches(o *entity.Order) bool {
	if o == nil || o.Status != string(u.To) {
		return false
	}
	if u.EstimatedTime != nil && o.EstimatedTime != *u.EstimatedTime {
		return false
	}
	if u.AdminNotes != nil && o.AdminNotes != *u.AdminNotes {
		return false
	}
	if u.AcceptedAt != nil && o.AcceptedAt == nil {
		return false
	}
	return true
}

// Store is the persistence contract the machine drives. Implemented by the
// order repository; faked in tests.
type Store interface {
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	ApplyStatusUpdate(ctx context.Context, u StatusUpdate) (*entity.Order, error)
}

// Machine validates and applies order status transitions. All writes go
// through the resilient mutator so transport blips are not reported as
// conflicts.
type Machine struct {
	mutator *mutator
	logger  *zap.Logger
}

// NewMachine builds the state machine on top of a Store.
func NewMachine(store Store, logger *zap.Logger) *Machine {
	return &Machine{
		mutator: newMutator(store, logger),
		logger:  logger,
	}
}

// Accept moves a Placed order to Accepted with an operator-supplied
// preparation estimate in minutes.
func (m *Machine) Accept(ctx context.Context, orderID int64, etaMinutes int) (*entity.Order, error) {
	if etaMinutes <= 0 {
		return nil, errorbank.BadRequest("preparation estimate must be a positive number of minutes")
	}
	now := time.Now().UTC()
	notes := "Payment confirmed. Order accepted."
	return m.apply(ctx, "accept", StatusUpdate{
		OrderID:       orderID,
		To:            StatusAccepted,
		From:          []Status{StatusPlaced},
		EstimatedTime: &etaMinutes,
		AcceptedAt:    &now,
		AdminNotes:    &notes,
	})
}

// Reject marks an order Rejected with a mandatory reason stored in the
// admin notes. Allowed from any non-terminal state.
func (m *Machine) Reject(ctx context.Context, orderID int64, reason string) (*entity.Order, error) {
	if reason == "" {
		return nil, errorbank.BadRequest("a rejection reason is required")
	}
	return m.apply(ctx, "reject", StatusUpdate{
		OrderID:    orderID,
		To:         StatusRejected,
		From:       NonTerminal(),
		AdminNotes: &reason,
	})
}

// StartPreparing moves an Accepted order to Preparing.
func (m *Machine) StartPreparing(ctx context.Context, orderID int64) (*entity.Order, error) {
	return m.apply(ctx, "prepare", StatusUpdate{
		OrderID: orderID,
		To:      StatusPreparing,
		From:    []Status{StatusAccepted},
	})
}

// MarkReady moves a Preparing order to Ready for Pickup.
func (m *Machine) MarkReady(ctx context.Context, orderID int64) (*entity.Order, error) {
	return m.apply(ctx, "ready", StatusUpdate{
		OrderID: orderID,
		To:      StatusReadyForPickup,
		From:    []Status{StatusPreparing},
	})
}

// Cancel marks an order Cancelled on the customer's behalf. Already
// cancelled or otherwise terminal orders report a conflict instead.
func (m *Machine) Cancel(ctx context.Context, orderID int64) (*entity.Order, error) {
	return m.apply(ctx, "cancel", StatusUpdate{
		OrderID: orderID,
		To:      StatusCancelled,
		From:    NonTerminal(),
	})
}

func (m *Machine) apply(ctx context.Context, action string, u StatusUpdate) (*entity.Order, error) {
	ctx, span := machineTracer.Start(ctx, "OrderMachine."+action, trace.WithAttributes(
		attribute.Int64("order.id", u.OrderID),
		attribute.String("order.target_status", string(u.To)),
	))
	defer span.End()

	order, err := m.mutator.apply(ctx, u)
	if errors.Is(err, ErrNoMatch) {
		m.logger.Info("order transition rejected by source-state predicate",
			zap.Int64("order_id", u.OrderID),
			zap.String("target", string(u.To)),
		)
		return nil, errorbank.Conflict(
			"order state changed; it may already be handled by another admin",
			errorbank.WithDetail("order_id", u.OrderID),
			errorbank.WithDetail("target_status", string(u.To)),
		)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}
