package seeder

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder fills a fresh database with a starter menu, payment destinations
// and default settings for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Run applies all seed groups.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.Menu(ctx); err != nil {
		return err
	}
	if err := s.PaymentMethods(ctx); err != nil {
		return err
	}
	return s.Settings(ctx)
}

// Menu seeds example menu items if they are missing.
func (s *Seeder) Menu(ctx context.Context) error {
	samples := []entity.MenuItem{
		{Title: "Special Burger", Price: decimal.RequireFromString("240.00"), Category: "Burgers", Available: true},
		{Title: "Cheese Burger", Price: decimal.RequireFromString("200.00"), Category: "Burgers", Available: true},
		{Title: "Chips", Price: decimal.RequireFromString("80.00"), Category: "Sides", Available: true},
		{Title: "Coca-Cola", Price: decimal.RequireFromString("40.00"), Category: "Drinks", Available: true},
	}

	for _, sample := range samples {
		item := sample
		_, err := s.db.NewInsert().Model(&item).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded menu items", zap.Int("count", len(samples)))
	return nil
}

// PaymentMethods seeds the default payment destinations.
func (s *Seeder) PaymentMethods(ctx context.Context) error {
	samples := []entity.PaymentMethod{
		{Name: "Telebirr", AccountNumber: "0911000000", AccountName: "Abebe Delivery", Active: true},
		{Name: "CBE", AccountNumber: "1000123456789", AccountName: "Abebe Delivery PLC", Active: true},
	}

	for _, sample := range samples {
		method := sample
		_, err := s.db.NewInsert().Model(&method).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded payment methods", zap.Int("count", len(samples)))
	return nil
}

// Settings seeds operational defaults without overwriting existing values.
func (s *Seeder) Settings(ctx context.Context) error {
	defaults := []entity.AppSetting{
		{Key: "delivery_fee", Value: "50.00"},
		{Key: "service_open", Value: "true"},
	}

	for _, sample := range defaults {
		setting := sample
		_, err := s.db.NewInsert().Model(&setting).
			On("CONFLICT (key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded settings", zap.Int("count", len(defaults)))
	return nil
}
