package repository

import (
	"context"

	"gorm.io/gorm"
)

type CounterRepository interface {
	// Increment atomically bumps the named counter, creating it on first use,
	// and returns the new value.
	Increment(ctx context.Context, db *gorm.DB, name string) (int64, error)
}
