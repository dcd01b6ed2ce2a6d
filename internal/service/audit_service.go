package service

import (
	"context"

	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService writes audit entries inside the caller's transaction, so an entry
// exists exactly when the audited change is committed.
type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, entityName string, entityID string, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, entityName string, entityID string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, entityName string, entityID string, oldValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, entityName string, entityID string, newValue interface{}) error {
	return s.write(ctx, tx, caller, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return s.write(ctx, tx, caller, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, entityName string, entityID string, oldValue interface{}) error {
	return s.write(ctx, tx, caller, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": nil,
	})
}

func (s *auditService) write(ctx context.Context, tx *gorm.DB, caller entity.Caller, action string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		UserID:   caller.UserIDPtr(),
		Role:     caller.Role,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
