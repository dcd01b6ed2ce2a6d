package usecase

import (
	"context"
	"errors"
	"strings"

	"lunar-cancer-care/internal/converter"
	"lunar-cancer-care/internal/delivery/dto"
	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/domain/repository"
	"lunar-cancer-care/internal/service"
	"lunar-cancer-care/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrStaffNotFound = errors.New("staff not found")
)

type StaffUsecase interface {
	CreateStaff(ctx context.Context, caller entity.Caller, req *dto.CreateStaffRequest) (*dto.StaffResponse, error)
	GetStaff(ctx context.Context, id string) (*dto.StaffResponse, error)
	ListStaff(ctx context.Context, role string, page, limit int) (*dto.StaffListResponse, error)
}

type staffUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	staffRepo    repository.StaffRepository
	allocator    service.IdentifierAllocator
	auditService service.AuditService
	validator    *validator.CustomValidator
}

func NewStaffUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	staffRepo repository.StaffRepository,
	allocator service.IdentifierAllocator,
	auditService service.AuditService,
	validator *validator.CustomValidator,
) StaffUsecase {
	return &staffUsecase{
		db:           db,
		log:          log,
		staffRepo:    staffRepo,
		allocator:    allocator,
		auditService: auditService,
		validator:    validator,
	}
}

func (u *staffUsecase) CreateStaff(ctx context.Context, caller entity.Caller, req *dto.CreateStaffRequest) (*dto.StaffResponse, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, &ValidationError{Fields: u.validator.FormatValidationErrors(err)}
	}

	staffID, err := u.allocator.Allocate(ctx)
	if err != nil {
		return nil, unavailable(err)
	}

	staff := &entity.Staff{
		ID:        staffID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Status:    entity.StaffStatusActive,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.staffRepo.Create(ctx, tx, staff); err != nil {
		u.log.Errorf("Failed to create staff: %+v", err)
		return nil, unavailable(err)
	}

	if err := u.auditService.LogCreate(ctx, tx, caller, entity.AuditActionStaffCreate, "staff", staff.ID, staff); err != nil {
		return nil, unavailable(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Errorf("Failed to commit transaction: %+v", err)
		return nil, unavailable(err)
	}

	return converter.StaffToResponse(staff), nil
}

func (u *staffUsecase) GetStaff(ctx context.Context, id string) (*dto.StaffResponse, error) {
	staff, err := u.staffRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Errorf("Failed to find staff: %+v", err)
		return nil, unavailable(err)
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}

	return converter.StaffToResponse(staff), nil
}

func (u *staffUsecase) ListStaff(ctx context.Context, role string, page, limit int) (*dto.StaffListResponse, error) {
	page, limit = clampPaging(page, limit, MaxPageSize)

	staff, total, err := u.staffRepo.FindAll(ctx, u.db, role, limit, (page-1)*limit)
	if err != nil {
		u.log.Errorf("Failed to find staff: %+v", err)
		return nil, unavailable(err)
	}

	return &dto.StaffListResponse{
		Staff: converter.StaffToResponses(staff),
		Total: total,
	}, nil
}

// clampPaging applies page 1 and defaultLimit to zero values and raises negatives to 1.
func clampPaging(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
