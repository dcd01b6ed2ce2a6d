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

type PatientHandler struct {
	patientUsecase usecase.PatientUsecase
}

func NewPatientHandler(patientUsecase usecase.PatientUsecase) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
	}
}

func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	patient, err := h.patientUsecase.CreatePatient(r.Context(), middleware.CallerFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err, "Failed to create patient")
		return
	}

	response.Success(w, http.StatusCreated, "Patient created successfully", patient)
}

func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	patient, err := h.patientUsecase.GetPatient(r.Context(), middleware.CallerFromContext(r.Context()), vars["id"])
	if err != nil {
		writeError(w, err, "Failed to get patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient retrieved successfully", patient)
}

// GetAllPatients serves search, filtering, sorting and paging. Bad query values
// fall back to defaults instead of failing the request.
func (h *PatientHandler) GetAllPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := &dto.PatientListQuery{
		Search:         q.Get("search"),
		Status:         q.Get("status"),
		Diagnosis:      q.Get("diagnosis"),
		AssignedDoctor: q.Get("assignedDoctor"),
		SortBy:         q.Get("sortBy"),
		SortOrder:      q.Get("sortOrder"),
		Page:           queryInt(r, "page"),
		Limit:          queryInt(r, "limit"),
	}

	patients, err := h.patientUsecase.ListPatients(r.Context(), middleware.CallerFromContext(r.Context()), query)
	if err != nil {
		writeError(w, err, "Failed to get patients")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Patients retrieved successfully", patients,
		response.NewMeta(patients.Page, patients.Limit, patients.TotalCount))
}

func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req dto.UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	patient, err := h.patientUsecase.UpdatePatient(r.Context(), middleware.CallerFromContext(r.Context()), vars["id"], &req)
	if err != nil {
		writeError(w, err, "Failed to update patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient updated successfully", patient)
}

func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.patientUsecase.DeletePatient(r.Context(), middleware.CallerFromContext(r.Context()), vars["id"]); err != nil {
		writeError(w, err, "Failed to delete patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient deleted successfully", nil)
}
