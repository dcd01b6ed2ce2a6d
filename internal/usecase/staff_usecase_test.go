package usecase

import (
	"context"
	"errors"
	"testing"

	"lunar-cancer-care/internal/delivery/dto"
	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/repository"
	"lunar-cancer-care/internal/service"
	"lunar-cancer-care/internal/testutil"
	"lunar-cancer-care/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaffUsecaseForTest(t *testing.T) (StaffUsecase, AuditLogUsecase) {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger()
	auditRepo := repository.NewAuditLogRepository()

	allocator := service.NewCounterAllocator(db, log, repository.NewCounterRepository(), nil, entity.CounterStaffID, "STF")
	staff := NewStaffUsecase(db, log, repository.NewStaffRepository(), allocator, service.NewAuditService(log, auditRepo), validator.NewValidator("KE"))
	return staff, NewAuditLogUsecase(db, log, auditRepo)
}

func TestStaffUsecase_CreateGetList(t *testing.T) {
	staffUsecase, auditUsecase := newStaffUsecaseForTest(t)
	ctx := context.Background()

	doctor, err := staffUsecase.CreateStaff(ctx, admin, &dto.CreateStaffRequest{
		FirstName: "Amina",
		LastName:  "Otieno",
		Role:      entity.RoleDoctor,
		Phone:     "+254712345678",
	})
	require.NoError(t, err)
	assert.Equal(t, "STF0001", doctor.StaffID)
	assert.Equal(t, entity.StaffStatusActive, doctor.Status)

	_, err = staffUsecase.CreateStaff(ctx, admin, &dto.CreateStaffRequest{FirstName: "Brian", LastName: "Kamau", Role: entity.RoleNurse})
	require.NoError(t, err)

	got, err := staffUsecase.GetStaff(ctx, "STF0001")
	require.NoError(t, err)
	assert.Equal(t, "Amina", got.FirstName)

	_, err = staffUsecase.GetStaff(ctx, "STF0404")
	assert.ErrorIs(t, err, ErrStaffNotFound)

	doctors, err := staffUsecase.ListStaff(ctx, entity.RoleDoctor, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doctors.Total)
	require.Len(t, doctors.Staff, 1)

	logs, err := auditUsecase.GetAllAuditLogs(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), logs.Total)
	assert.Equal(t, entity.AuditActionStaffCreate, logs.Logs[0].Action)
	assert.Equal(t, "admin-1", logs.Logs[0].UserID)

	first, err := auditUsecase.GetAuditLog(ctx, logs.Logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, logs.Logs[0].ID, first.ID)

	_, err = auditUsecase.GetAuditLog(ctx, 999)
	assert.ErrorIs(t, err, ErrAuditLogNotFound)
}

func TestStaffUsecase_RejectsUnknownRole(t *testing.T) {
	staffUsecase, _ := newStaffUsecaseForTest(t)

	_, err := staffUsecase.CreateStaff(context.Background(), admin, &dto.CreateStaffRequest{
		FirstName: "Cate",
		LastName:  "Achieng",
		Role:      "surgeon-general",
	})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Fields, "role")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"stage": "stage must be one of: 1, 2, 3, 4",
		"dob":   "dob is required",
	}}
	assert.Equal(t, "validation failed: dob is required; stage must be one of: 1, 2, 3, 4", err.Error())
	assert.ErrorIs(t, unavailable(errors.New("connection refused")), ErrServiceUnavailable)
}
