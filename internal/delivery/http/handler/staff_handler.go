package handler

import (
	"encoding/json"
	"net/http"

	"lunar-cancer-care/internal/delivery/dto"
	"lunar-cancer-care/internal/delivery/http/middleware"
	"lunar-cancer-care/internal/usecase"
	"lunar-cancer-care/pkg/response"

	"github.com/gorilla/mux"
)

type StaffHandler struct {
	staffUsecase usecase.StaffUsecase
}

func NewStaffHandler(staffUsecase usecase.StaffUsecase) *StaffHandler {
	return &StaffHandler{
		staffUsecase: staffUsecase,
	}
}

func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	staff, err := h.staffUsecase.CreateStaff(r.Context(), middleware.CallerFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err, "Failed to create staff member")
		return
	}

	response.Success(w, http.StatusCreated, "Staff member created successfully", staff)
}

func (h *StaffHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	staff, err := h.staffUsecase.GetStaff(r.Context(), vars["id"])
	if err != nil {
		writeError(w, err, "Failed to get staff member")
		return
	}

	response.Success(w, http.StatusOK, "Staff member retrieved successfully", staff)
}

func (h *StaffHandler) GetAllStaff(w http.ResponseWriter, r *http.Request) {
	page, limit := queryInt(r, "page"), queryInt(r, "limit")

	staff, err := h.staffUsecase.ListStaff(r.Context(), r.URL.Query().Get("role"), page, limit)
	if err != nil {
		writeError(w, err, "Failed to get staff")
		return
	}

	response.Success(w, http.StatusOK, "Staff retrieved successfully", staff)
}
