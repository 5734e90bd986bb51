package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// ErrNotFound is returned when no profile matches the requested id.
var ErrNotFound = errors.New("profile not found")

// Repository reads user profiles and their push-token registrations. Token
// writes happen client-side through the Supabase proxy, so the repository
// is read-only.
type Repository struct {
	reader *bun.DB
}

func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// GetByID fetches a single profile by its auth UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	p := new(entity.Profile)
	err := r.reader.NewSelect().Model(p).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TokenForUser returns the registered push token for a user, empty when the
// user has no device registered.
func (r *Repository) TokenForUser(ctx context.Context, userID string) (string, error) {
	var token string
	err := r.reader.NewSelect().Model((*entity.Profile)(nil)).
		Column("fcm_token").
		Where("id = ?", userID).
		Scan(ctx, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// DriverTokens returns every non-empty push token held by a driver profile.
func (r *Repository) DriverTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := r.reader.NewSelect().Model((*entity.Profile)(nil)).
		Column("fcm_token").
		Where("role = ?", entity.RoleDriver).
		Where("fcm_token IS NOT NULL AND fcm_token != ''").
		Scan(ctx, &tokens)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// ListByRole returns profiles holding the given role, newest first.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]entity.Profile, error) {
	var profiles []entity.Profile
	err := r.reader.NewSelect().Model(&profiles).
		Where("role = ?", role).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
