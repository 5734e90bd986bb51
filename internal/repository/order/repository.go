package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/orderflow"
)

var repoTracer = otel.Tracer("github.com/abebe-delivery/gateway/repository/order")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, orderflow.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ApplyStatusUpdate performs the conditional transition:
//
//	UPDATE orders SET ... WHERE id = ? AND status IN (...) RETURNING *
//
// Zero rows returned means the source-state predicate failed and the
// transition must not apply; callers receive orderflow.ErrNoMatch.
func (r *Repository) ApplyStatusUpdate(ctx context.Context, u orderflow.StatusUpdate) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ApplyStatusUpdate", trace.WithAttributes(
		attribute.Int64("order.id", u.OrderID),
		attribute.String("order.target_status", string(u.To)),
	))
	defer span.End()

	froms := make([]string, 0, len(u.From))
	for _, s := range u.From {
		froms = append(froms, string(s))
	}

	order := new(entity.Order)
	q := r.writer.NewUpdate().
		Model(order).
		Set("status = ?", string(u.To)).
		Where("id = ?", u.OrderID).
		Where("status IN (?)", bun.In(froms)).
		Returning("*")
	if u.EstimatedTime != nil {
		q = q.Set("estimated_time = ?", *u.EstimatedTime)
	}
	if u.AcceptedAt != nil {
		q = q.Set("accepted_at = ?", *u.AcceptedAt)
	}
	if u.AdminNotes != nil {
		q = q.Set("admin_notes = ?", *u.AdminNotes)
	}

	_, err := q.Exec(ctx, order)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "predicate miss")
		return nil, orderflow.ErrNoMatch
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	return order, nil
}

// ListActive returns non-terminal orders oldest first, for the operator queue.
func (r *Repository) ListActive(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListActive")
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Where("status NOT IN (?)", bun.In([]string{
			string(orderflow.StatusDelivered),
			string(orderflow.StatusCancelled),
			string(orderflow.StatusRejected),
		})).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return orders, nil
}

// ItemsForOrder returns line items; order_items reference the order by its
// public UUID, not the numeric id.
func (r *Repository) ItemsForOrder(ctx context.Context, publicID uuid.UUID) ([]entity.OrderItem, error) {
	var items []entity.OrderItem
	err := r.reader.NewSelect().Model(&items).
		Where("order_id = ?", publicID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListSince returns orders created at or after the cutoff, for analytics.
func (r *Repository) ListSince(ctx context.Context, since time.Time) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).
		Column("id", "status", "total_amount", "created_at").
		Where("created_at >= ?", since).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// PlaceAtomic invokes the database procedure that inserts an order plus its
// items in one transaction and returns the procedure's JSON result.
func (r *Repository) PlaceAtomic(ctx context.Context, orderData, itemsData json.RawMessage) (json.RawMessage, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.PlaceAtomic")
	defer span.End()

	var result json.RawMessage
	err := r.writer.NewRaw(
		"SELECT place_order_atomic(?::jsonb, ?::jsonb)",
		string(orderData), string(itemsData),
	).Scan(ctx, &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rpc failed")
		return nil, err
	}
	return result, nil
}

// BackfillIdentity assigns public_id and display_code to rows that predate
// them. Runs from the migrate CLI, never at request time.
func (r *Repository) BackfillIdentity(ctx context.Context) (int, error) {
	var orders []entity.Order
	err := r.writer.NewSelect().Model(&orders).
		Where("public_id IS NULL OR display_code = '' OR display_code IS NULL").
		Scan(ctx)
	if err != nil {
		return 0, err
	}

	for i := range orders {
		o := &orders[i]
		if o.PublicID == uuid.Nil {
			o.PublicID = uuid.New()
		}
		if o.DisplayCode == "" {
			o.DisplayCode = displayCode(o.PublicID)
		}
		_, err := r.writer.NewUpdate().Model(o).
			Column("public_id", "display_code").
			WherePK().
			Exec(ctx)
		if err != nil {
			return i, err
		}
	}
	return len(orders), nil
}

// displayCode derives a short collision-tolerant code from the public id.
// Codes are regenerable; uniqueness is not guaranteed and not required.
func displayCode(id uuid.UUID) string {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	raw := id[:]
	code := make([]byte, 6)
	for i := range code {
		code[i] = alphabet[int(raw[i])%len(alphabet)]
	}
	return string(code[:2]) + "-" + string(code[2:])
}
