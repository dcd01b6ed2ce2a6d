package repository

import (
	"context"

	"lunar-cancer-care/internal/domain/entity"

	"gorm.io/gorm"
)

type StaffRepository interface {
	Create(ctx context.Context, db *gorm.DB, staff *entity.Staff) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*entity.Staff, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]entity.Staff, error)
	FindAll(ctx context.Context, db *gorm.DB, role string, limit, offset int) ([]entity.Staff, int64, error)
}
