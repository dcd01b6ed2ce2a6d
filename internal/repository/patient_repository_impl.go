package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lunar-cancer-care/internal/domain/entity"
	domainRepo "lunar-cancer-care/internal/domain/repository"

	"gorm.io/gorm"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(ctx context.Context, db *gorm.DB, patient *entity.Patient) error {
	return db.WithContext(ctx).Create(patient).Error
}

func (r *patientRepository) FindByID(ctx context.Context, db *gorm.DB, id string) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.WithContext(ctx).Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

// Search counts every patient matching the filter and returns one sorted page of them.
// Name search is a case-insensitive substring match on first OR last name; the other
// filters are exact and combined with AND.
func (r *patientRepository) Search(ctx context.Context, db *gorm.DB, filter *entity.PatientFilter) ([]entity.Patient, int64, error) {
	var total int64
	if err := applyPatientFilter(db.WithContext(ctx), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var patients []entity.Patient
	err := applyPatientFilter(db.WithContext(ctx), filter).
		Order(fmt.Sprintf("%s %s, id %s", filter.SortColumn, direction, direction)).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}

func (r *patientRepository) Update(ctx context.Context, db *gorm.DB, patient *entity.Patient) error {
	return db.WithContext(ctx).Save(patient).Error
}

func (r *patientRepository) Delete(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Patient{})
	return result.RowsAffected, result.Error
}

func applyPatientFilter(db *gorm.DB, filter *entity.PatientFilter) *gorm.DB {
	query := db.Model(&entity.Patient{})

	if filter.Search != "" {
		pattern := "%" + EscapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where("(LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Diagnosis != "" {
		query = query.Where("diagnosis = ?", filter.Diagnosis)
	}
	if filter.AssignedDoctorID != "" {
		query = query.Where("assigned_doctor_id = ?", filter.AssignedDoctorID)
	}

	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s for use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
