package repository

import (
	"context"
	"errors"

	"lunar-cancer-care/internal/domain/entity"
	domainRepo "lunar-cancer-care/internal/domain/repository"

	"gorm.io/gorm"
)

type staffRepository struct{}

func NewStaffRepository() domainRepo.StaffRepository {
	return &staffRepository{}
}

func (r *staffRepository) Create(ctx context.Context, db *gorm.DB, staff *entity.Staff) error {
	return db.WithContext(ctx).Create(staff).Error
}

func (r *staffRepository) FindByID(ctx context.Context, db *gorm.DB, id string) (*entity.Staff, error) {
	var staff entity.Staff
	err := db.WithContext(ctx).Where("id = ?", id).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]entity.Staff, error) {
	var staff []entity.Staff
	if len(ids) == 0 {
		return staff, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *staffRepository) FindAll(ctx context.Context, db *gorm.DB, role string, limit, offset int) ([]entity.Staff, int64, error) {
	var staff []entity.Staff
	var total int64

	query := db.WithContext(ctx).Model(&entity.Staff{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("last_name ASC, id ASC").Limit(limit).Offset(offset).Find(&staff).Error; err != nil {
		return nil, 0, err
	}

	return staff, total, nil
}
