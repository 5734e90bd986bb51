package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/cache"
	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/messaging"
	"github.com/abebe-delivery/gateway/internal/orderflow"
	repo "github.com/abebe-delivery/gateway/internal/repository/order"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/abebe-delivery/gateway/service/order")

// Service provides order reads, atomic placement and the audit event feed.
// Status transitions themselves belong to the orderflow machine; the service
// only observes them for caching and auditing.
type Service struct {
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, orderflow.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return order, nil
}

// Details returns an order together with its line items.
func (s *Service) Details(ctx context.Context, id int64) (*entity.Order, []entity.OrderItem, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.ItemsForOrder(ctx, order.PublicID)
	if err != nil {
		s.logger.Warn("order items load failed", zap.Int64("id", id), zap.Error(err))
		items = nil
	}
	return order, items, nil
}

// Queue returns all non-terminal orders, oldest first.
func (s *Service) Queue(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to load order queue", errorbank.WithCause(err))
	}
	return orders, nil
}

// Place runs the atomic placement procedure and emits the audit event. The
// procedure validates and persists the order plus items in one transaction.
func (s *Service) Place(ctx context.Context, orderData, itemsData json.RawMessage) (json.RawMessage, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Place")
	defer span.End()

	if len(orderData) == 0 || len(itemsData) == 0 {
		return nil, errorbank.BadRequest("order and items payloads are required")
	}

	result, err := s.repo.PlaceAtomic(ctx, orderData, itemsData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "placement failed")
		return nil, errorbank.Internal("order placement failed", errorbank.WithCause(err))
	}

	s.publishEvent(ctx, Event{
		Type:       EventPlaced,
		OccurredAt: time.Now().UTC(),
		Raw:        result,
	})
	return result, nil
}

// Stats aggregates order volume and revenue for today and the last 7 days.
// Only delivered orders count toward revenue.
func (s *Service) Stats(ctx context.Context) (*StatsReport, error) {
	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	orders, err := s.repo.ListSince(ctx, weekAgo)
	if err != nil {
		return nil, errorbank.Internal("failed to load order stats", errorbank.WithCause(err))
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	report := &StatsReport{}
	for _, o := range orders {
		delivered := o.Status == string(orderflow.StatusDelivered)
		report.WeekOrders++
		if delivered {
			report.WeekRevenue = report.WeekRevenue.Add(o.TotalAmount)
		}
		if !o.CreatedAt.Before(midnight) {
			report.TodayOrders++
			if delivered {
				report.TodayRevenue = report.TodayRevenue.Add(o.TotalAmount)
			}
		}
	}
	return report, nil
}

// ObserveStatusChange invalidates the cached row and publishes the audit
// event after the state machine (or a webhook) reports a transition.
func (s *Service) ObserveStatusChange(ctx context.Context, order *entity.Order, oldStatus orderflow.Status) {
	if err := s.invalidateCache(ctx, order.ID); err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.Int64("id", order.ID), zap.Error(err))
	}
	s.publishEvent(ctx, Event{
		Type:       EventStatusChanged,
		OrderID:    order.ID,
		Display:    order.DisplayID(),
		OldStatus:  string(oldStatus),
		NewStatus:  order.Status,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *Service) publishEvent(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("order-%d", event.OrderID))
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, id int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, s.cacheKey(id))
}

// Event kinds published to the audit topic.
const (
	EventPlaced        = "order.placed"
	EventStatusChanged = "order.status_changed"
)

// Event is one entry in the order audit stream.
type Event struct {
	Type       string          `json:"type"`
	OrderID    int64           `json:"order_id,omitempty"`
	Display    string          `json:"display_id,omitempty"`
	OldStatus  string          `json:"old_status,omitempty"`
	NewStatus  string          `json:"new_status,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// StatsReport is the aggregate view shown to the operator.
type StatsReport struct {
	TodayOrders  int
	TodayRevenue decimal.Decimal
	WeekOrders   int
	WeekRevenue  decimal.Decimal
}
