package converter

import (
	"time"

	"lunar-cancer-care/internal/delivery/dto"
	"lunar-cancer-care/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// PatientToResponse converts a Patient entity to PatientResponse DTO.
// now fixes the instant the derived appointment status is computed against.
func PatientToResponse(patient *entity.Patient, now time.Time) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	resp := &dto.PatientResponse{
		PatientID:         patient.ID,
		FirstName:         patient.FirstName,
		LastName:          patient.LastName,
		DateOfBirth:       patient.DateOfBirth.Format(dateLayout),
		Age:               patient.Age,
		Gender:            patient.Gender,
		Phone:             patient.Phone,
		Email:             patient.Email,
		Address:           patient.Address,
		Diagnosis:         patient.Diagnosis,
		DiagnosisDate:     patient.DiagnosisDate.Format(dateLayout),
		Stage:             patient.Stage,
		TreatmentPlan:     patient.TreatmentPlan,
		Allergies:         patient.Allergies,
		MedicalHistory:    patient.MedicalHistory,
		InsuranceProvider: patient.InsuranceProvider,
		InsurancePolicyID: patient.InsurancePolicyID,
		InsuranceCoverage: patient.InsuranceCoverage,
		Status:            patient.Status,
		NextAppointment:   patient.NextAppointment,
		AppointmentStatus: patient.AppointmentStatus(now),
		CreatedAt:         patient.CreatedAt,
		UpdatedAt:         patient.UpdatedAt,
	}
	if patient.InsuranceValidUntil != nil {
		resp.InsuranceValidUntil = patient.InsuranceValidUntil.Format(dateLayout)
	}
	if patient.AssignedDoctorID != nil {
		resp.AssignedDoctor = *patient.AssignedDoctorID
	}

	return resp
}

// PatientsToResponses converts a slice of Patient entities, filling the assigned
// doctor's display name from doctors (keyed by staff ID) when present.
func PatientsToResponses(patients []entity.Patient, doctors map[string]entity.Staff, now time.Time) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(patients))
	for i := range patients {
		responses[i] = *PatientToResponse(&patients[i], now)
		if doctor, ok := doctors[responses[i].AssignedDoctor]; ok {
			responses[i].AssignedDoctorName = doctor.FullName()
		}
	}
	return responses
}
