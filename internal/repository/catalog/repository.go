package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// Repository manages the menu, payment methods and store-wide settings.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// ListMenu returns every menu item, available or not.
func (r *Repository) ListMenu(ctx context.Context) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	err := r.reader.NewSelect().Model(&items).
		Order("category ASC", "title ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddMenuItem inserts a new menu item.
func (r *Repository) AddMenuItem(ctx context.Context, item *entity.MenuItem) error {
	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	return err
}

// SetMenuItemAvailability flips the availability flag of a single item.
func (r *Repository) SetMenuItemAvailability(ctx context.Context, id int64, available bool) error {
	res, err := r.writer.NewUpdate().Model((*entity.MenuItem)(nil)).
		Set("available = ?", available).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPaymentMethods returns the configured payment destinations.
func (r *Repository) ListPaymentMethods(ctx context.Context) ([]entity.PaymentMethod, error) {
	var methods []entity.PaymentMethod
	err := r.reader.NewSelect().Model(&methods).
		Where("active = TRUE").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// Setting returns the value of a named store setting, "" when unset.
func (r *Repository) Setting(ctx context.Context, key string) (string, error) {
	row := new(entity.AppSetting)
	err := r.reader.NewSelect().Model(row).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

// PutSetting upserts a named store setting.
func (r *Repository) PutSetting(ctx context.Context, key, value string) error {
	row := &entity.AppSetting{Key: key, Value: value}
	_, err := r.writer.NewInsert().Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}

// DeliveryFee reads the delivery_fee setting as a decimal, zero when unset.
func (r *Repository) DeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	raw, err := r.Setting(ctx, "delivery_fee")
	if err != nil || raw == "" {
		return decimal.Zero, err
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, nil
	}
	return fee, nil
}
