package converter

import (
	"lunar-cancer-care/internal/delivery/dto"
	"lunar-cancer-care/internal/domain/entity"
)

// StaffToResponse converts a Staff entity to StaffResponse DTO
func StaffToResponse(staff *entity.Staff) *dto.StaffResponse {
	if staff == nil {
		return nil
	}

	return &dto.StaffResponse{
		StaffID:   staff.ID,
		FirstName: staff.FirstName,
		LastName:  staff.LastName,
		Role:      staff.Role,
		Email:     staff.Email,
		Phone:     staff.Phone,
		Status:    staff.Status,
		CreatedAt: staff.CreatedAt,
		UpdatedAt: staff.UpdatedAt,
	}
}

// StaffToResponses converts a slice of Staff entities to slice of StaffResponse DTOs
func StaffToResponses(staff []entity.Staff) []dto.StaffResponse {
	responses := make([]dto.StaffResponse, len(staff))
	for i := range staff {
		responses[i] = *StaffToResponse(&staff[i])
	}
	return responses
}
