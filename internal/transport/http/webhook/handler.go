package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/dedup"
	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/orderflow"
	"github.com/abebe-delivery/gateway/internal/presentation/http/response"
)

var httpTracer = otel.Tracer("github.com/abebe-delivery/gateway/transport/http/webhook")

// Pusher fans notifications out to customer and driver devices.
type Pusher interface {
	Dispatch(ctx context.Context, events []orderflow.Notification)
	PushToUser(ctx context.Context, userID, title, body string, data map[string]string)
}

// OperatorNotifier posts into the admin Telegram channel.
type OperatorNotifier interface {
	NotifyNewOrder(ctx context.Context, order *entity.Order, items []entity.OrderItem, customer *entity.Profile)
	NotifyCancellation(order *entity.Order)
}

// OrderReader loads supporting order data for operator cards.
type OrderReader interface {
	ItemsForOrder(ctx context.Context, publicID uuid.UUID) ([]entity.OrderItem, error)
}

// ProfileReader resolves customer profiles.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
}

// Auditor observes confirmed status changes for caching and the audit feed.
type Auditor interface {
	ObserveStatusChange(ctx context.Context, order *entity.Order, oldStatus orderflow.Status)
}

// Handler receives database change webhooks. It must acknowledge every
// delivery: the upstream retries on non-2xx, so notification failures are
// swallowed and only dedup decides whether work happens.
type Handler struct {
	caches   *dedup.Caches
	pusher   Pusher
	operator OperatorNotifier
	orders   OrderReader
	profiles ProfileReader
	auditor  Auditor
	logger   *zap.Logger
}

func NewHandler(
	caches *dedup.Caches,
	pusher Pusher,
	operator OperatorNotifier,
	orders OrderReader,
	profiles ProfileReader,
	auditor Auditor,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		caches:   caches,
		pusher:   pusher,
		operator: operator,
		orders:   orders,
		profiles: profiles,
		auditor:  auditor,
		logger:   logger,
	}
}

// Register mounts the webhook endpoint.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/api/order-webhook", h.handle)
}

// envelope is the change-event payload emitted by database webhooks.
type envelope struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

// orderRecord mirrors the orders row as it arrives in webhook JSON.
type orderRecord struct {
	ID              int64            `json:"id"`
	PublicID        string           `json:"public_id"`
	DisplayCode     string           `json:"display_code"`
	Status          string           `json:"status"`
	UserID          string           `json:"user_id"`
	DriverID        *string          `json:"driver_id"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	EstimatedTime   int              `json:"estimated_time"`
	AdminNotes      string           `json:"admin_notes"`
	PaymentProofURL string           `json:"payment_proof_url"`
	DeliveryLoc     *entity.Location `json:"delivery_location"`
}

func (r orderRecord) toEntity() *entity.Order {
	publicID, _ := uuid.Parse(r.PublicID)
	return &entity.Order{
		ID:              r.ID,
		PublicID:        publicID,
		DisplayCode:     r.DisplayCode,
		Status:          r.Status,
		UserID:          r.UserID,
		DriverID:        r.DriverID,
		TotalAmount:     r.TotalAmount,
		EstimatedTime:   r.EstimatedTime,
		AdminNotes:      r.AdminNotes,
		PaymentProofURL: r.PaymentProofURL,
		DeliveryLoc:     r.DeliveryLoc,
	}
}

type chatRecord struct {
	ReceiverID string `json:"receiver_id"`
	SenderID   string `json:"sender_id"`
	Message    string `json:"message"`
	OrderID    int64  `json:"order_id"`
}

func (h *Handler) handle(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "webhook.handle")
	defer span.End()

	var env envelope
	if err := c.Bind(&env); err != nil {
		h.logger.Warn("malformed webhook payload", zap.Error(err))
		return c.NoContent(http.StatusNoContent)
	}
	span.SetAttributes(
		attribute.String("webhook.type", env.Type),
		attribute.String("webhook.table", env.Table),
	)

	switch env.Table {
	case "orders":
		h.handleOrders(ctx, env)
	case "chat_messages":
		h.handleChat(ctx, env)
	default:
		h.logger.Debug("ignoring webhook table", zap.String("table", env.Table))
		return c.NoContent(http.StatusNoContent)
	}

	return response.New(c).WithData(map[string]bool{"received": true}).Build()
}

func (h *Handler) handleOrders(ctx context.Context, env envelope) {
	var rec orderRecord
	if err := json.Unmarshal(env.Record, &rec); err != nil || rec.ID == 0 {
		h.logger.Warn("undecodable order record", zap.Error(err))
		return
	}
	order := rec.toEntity()

	switch env.Type {
	case "INSERT":
		h.orderCreated(ctx, order)
	case "UPDATE":
		var old orderRecord
		if err := json.Unmarshal(env.OldRecord, &old); err != nil {
			h.logger.Warn("undecodable old order record", zap.Int64("order_id", rec.ID), zap.Error(err))
			return
		}
		h.orderUpdated(ctx, orderflow.Status(old.Status), order)
	default:
		h.logger.Debug("ignoring webhook type", zap.String("type", env.Type))
	}
}

// orderCreated notifies the customer and the operator exactly once per
// order id, even when the webhook is delivered repeatedly.
func (h *Handler) orderCreated(ctx context.Context, order *entity.Order) {
	if h.caches.Creations.Seen(order.ID) {
		h.logger.Debug("duplicate creation webhook suppressed", zap.Int64("order_id", order.ID))
		return
	}

	h.pusher.Dispatch(ctx, []orderflow.Notification{orderflow.CreationEvent(order)})

	items, err := h.orders.ItemsForOrder(ctx, order.PublicID)
	if err != nil {
		h.logger.Warn("items lookup failed for operator card", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	var customer *entity.Profile
	if order.UserID != "" {
		if customer, err = h.profiles.GetByID(ctx, order.UserID); err != nil {
			h.logger.Warn("customer lookup failed for operator card", zap.Int64("order_id", order.ID), zap.Error(err))
			customer = nil
		}
	}
	h.operator.NotifyNewOrder(ctx, order, items, customer)
}

func (h *Handler) orderUpdated(ctx context.Context, oldStatus orderflow.Status, order *entity.Order) {
	if string(oldStatus) == order.Status {
		return
	}

	h.pusher.Dispatch(ctx, orderflow.EventsForChange(oldStatus, order))

	if orderflow.Status(order.Status) == orderflow.StatusCancelled {
		if h.caches.Cancellations.Seen(order.ID) {
			h.logger.Debug("duplicate cancellation webhook suppressed", zap.Int64("order_id", order.ID))
		} else {
			h.operator.NotifyCancellation(order)
		}
	}

	h.auditor.ObserveStatusChange(ctx, order, oldStatus)
}

// handleChat relays a push to the message receiver on every insert.
func (h *Handler) handleChat(ctx context.Context, env envelope) {
	if env.Type != "INSERT" {
		return
	}
	var rec chatRecord
	if err := json.Unmarshal(env.Record, &rec); err != nil || rec.ReceiverID == "" {
		h.logger.Warn("undecodable chat record", zap.Error(err))
		return
	}
	h.pusher.PushToUser(ctx, rec.ReceiverID, "New Message", rec.Message, map[string]string{
		"type":      "chat",
		"sender_id": rec.SenderID,
	})
}
