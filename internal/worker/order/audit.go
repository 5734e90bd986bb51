package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/messaging"
	ordersvc "github.com/abebe-delivery/gateway/internal/service/order"
	"github.com/abebe-delivery/gateway/internal/worker"
)

var workerTracer = otel.Tracer("github.com/abebe-delivery/gateway/worker/order")

// Module registers the order audit-stream handler.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewAuditHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewAuditHandler consumes the order event topic and writes each placement
// and transition into the structured log, giving operations a replayable
// audit trail independent of the database.
func NewAuditHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.audit", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		switch event.Type {
		case ordersvc.EventPlaced:
			logger.Info("audit: order placed",
				zap.Time("occurred_at", event.OccurredAt),
			)
		case ordersvc.EventStatusChanged:
			logger.Info("audit: order status changed",
				zap.Int64("order_id", event.OrderID),
				zap.String("display_id", event.Display),
				zap.String("old_status", event.OldStatus),
				zap.String("new_status", event.NewStatus),
				zap.Time("occurred_at", event.OccurredAt),
			)
		default:
			logger.Warn("audit: unknown order event", zap.String("type", event.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
