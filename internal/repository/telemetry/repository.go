package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/abebe-delivery/gateway/internal/database"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// Repository stores crash reports clustered by fingerprint so repeated
// occurrences of the same failure collapse into a single row.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Record upserts a crash cluster keyed by (log_hash, app_type) and returns
// the cluster with its updated occurrence count. A single statement keeps
// the count exact when several devices report the same crash at once.
func (r *Repository) Record(ctx context.Context, report entity.CrashLog) (*entity.CrashLog, error) {
	report.Count = 1
	report.LastSeen = time.Now().UTC()
	_, err := r.writer.NewInsert().Model(&report).
		On("CONFLICT (log_hash, app_type) DO UPDATE").
		Set("count = crash_logs.count + 1").
		Set("last_seen = EXCLUDED.last_seen").
		Set("user_id = COALESCE(EXCLUDED.user_id, crash_logs.user_id)").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListRecent returns the freshest crash clusters for operator review.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]entity.CrashLog, error) {
	var logs []entity.CrashLog
	err := r.reader.NewSelect().Model(&logs).
		Order("last_seen DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
