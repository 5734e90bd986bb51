package review

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// Repository stores customer reviews.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Insert records a submitted review.
func (r *Repository) Insert(ctx context.Context, rev *entity.Review) error {
	_, err := r.writer.NewInsert().Model(rev).Exec(ctx)
	return err
}

// ListRecent returns the latest reviews, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.reader.NewSelect().Model(&reviews).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
