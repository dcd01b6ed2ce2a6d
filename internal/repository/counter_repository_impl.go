package repository

import (
	"context"

	domainRepo "lunar-cancer-care/internal/domain/repository"

	"gorm.io/gorm"
)

// incrementCounterSQL creates the counter at 1 or bumps it, returning the new value,
// in a single statement so concurrent callers never observe the same value.
const incrementCounterSQL = `
	INSERT INTO counters (name, seq) VALUES (?, 1)
	ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
	RETURNING seq
`

type counterRepository struct{}

func NewCounterRepository() domainRepo.CounterRepository {
	return &counterRepository{}
}

func (r *counterRepository) Increment(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	var seq int64
	if err := db.WithContext(ctx).Raw(incrementCounterSQL, name).Scan(&seq).Error; err != nil {
		return 0, err
	}
	return seq, nil
}
