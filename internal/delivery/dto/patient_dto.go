package dto

import (
	"time"
)

// Request DTOs

// CreatePatientRequest carries a new patient record. PatientID is normally left
// empty and allocated by the server; it may be set when importing existing records.
type CreatePatientRequest struct {
	PatientID     string `json:"patient_id" validate:"omitempty,alphanum,max=20"`
	FirstName     string `json:"first_name" validate:"required,notblank,max=100"`
	LastName      string `json:"last_name" validate:"required,notblank,max=100"`
	DateOfBirth   string `json:"dob" validate:"required,isodate"`
	Gender        string `json:"gender" validate:"required,oneof=male female other"`
	Phone         string `json:"phone" validate:"required,notblank,phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address"`
	Diagnosis     string `json:"diagnosis" validate:"required,notblank,max=255"`
	DiagnosisDate string `json:"diagnosis_date" validate:"required,isodate"`
	Stage         string `json:"stage" validate:"required,oneof=1 2 3 4"`
	TreatmentPlan string `json:"treatment_plan" validate:"required,oneof=chemo radio surgery combo palliative"`

	Allergies      string `json:"allergies"`
	MedicalHistory string `json:"medical_history"`

	InsuranceProvider   string `json:"insurance_provider" validate:"max=255"`
	InsurancePolicyID   string `json:"insurance_policy_id" validate:"max=100"`
	InsuranceCoverage   string `json:"insurance_coverage" validate:"omitempty,oneof=full partial none"`
	InsuranceValidUntil string `json:"insurance_valid_until" validate:"omitempty,isodate"`

	Status          string `json:"status" validate:"omitempty,oneof=active inactive pending"`
	AssignedDoctor  string `json:"assigned_doctor" validate:"max=20"`
	NextAppointment string `json:"next_appointment" validate:"omitempty,isodate"`
}

// UpdatePatientRequest is a partial update: nil fields are left untouched.
// For optional fields an empty string clears the stored value; required fields
// cannot be cleared.
type UpdatePatientRequest struct {
	FirstName     *string `json:"first_name" validate:"omitnil,notblank,max=100"`
	LastName      *string `json:"last_name" validate:"omitnil,notblank,max=100"`
	DateOfBirth   *string `json:"dob" validate:"omitnil,min=1,isodate"`
	Gender        *string `json:"gender" validate:"omitnil,oneof=male female other"`
	Phone         *string `json:"phone" validate:"omitnil,notblank,phone"`
	Email         *string `json:"email" validate:"omitnil,len=0|email"`
	Address       *string `json:"address"`
	Diagnosis     *string `json:"diagnosis" validate:"omitnil,notblank,max=255"`
	DiagnosisDate *string `json:"diagnosis_date" validate:"omitnil,min=1,isodate"`
	Stage         *string `json:"stage" validate:"omitnil,oneof=1 2 3 4"`
	TreatmentPlan *string `json:"treatment_plan" validate:"omitnil,oneof=chemo radio surgery combo palliative"`

	Allergies      *string `json:"allergies"`
	MedicalHistory *string `json:"medical_history"`

	InsuranceProvider   *string `json:"insurance_provider" validate:"omitnil,max=255"`
	InsurancePolicyID   *string `json:"insurance_policy_id" validate:"omitnil,max=100"`
	InsuranceCoverage   *string `json:"insurance_coverage" validate:"omitnil,len=0|oneof=full partial none"`
	InsuranceValidUntil *string `json:"insurance_valid_until" validate:"omitnil,isodate"`

	Status          *string `json:"status" validate:"omitnil,oneof=active inactive pending"`
	AssignedDoctor  *string `json:"assigned_doctor" validate:"omitnil,max=20"`
	NextAppointment *string `json:"next_appointment" validate:"omitnil,isodate"`
}

// PatientListQuery holds list criteria as received. Zero Page or Limit means
// "not supplied" and selects the default; negative values are raised to 1.
type PatientListQuery struct {
	Search         string
	Status         string
	Diagnosis      string
	AssignedDoctor string
	SortBy         string
	SortOrder      string
	Page           int
	Limit          int
}

// Response DTOs

type PatientResponse struct {
	PatientID           string     `json:"patient_id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DateOfBirth         string     `json:"dob"`
	Age                 int        `json:"age"`
	Gender              string     `json:"gender"`
	Phone               string     `json:"phone"`
	Email               string     `json:"email,omitempty"`
	Address             string     `json:"address,omitempty"`
	Diagnosis           string     `json:"diagnosis"`
	DiagnosisDate       string     `json:"diagnosis_date"`
	Stage               string     `json:"stage"`
	TreatmentPlan       string     `json:"treatment_plan"`
	Allergies           string     `json:"allergies,omitempty"`
	MedicalHistory      string     `json:"medical_history,omitempty"`
	InsuranceProvider   string     `json:"insurance_provider,omitempty"`
	InsurancePolicyID   string     `json:"insurance_policy_id,omitempty"`
	InsuranceCoverage   string     `json:"insurance_coverage,omitempty"`
	InsuranceValidUntil string     `json:"insurance_valid_until,omitempty"`
	Status              string     `json:"status"`
	AssignedDoctor      string     `json:"assigned_doctor,omitempty"`
	AssignedDoctorName  string     `json:"assigned_doctor_name,omitempty"`
	NextAppointment     *time.Time `json:"next_appointment,omitempty"`
	AppointmentStatus   string     `json:"appointment_status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type PatientListResponse struct {
	Patients   []PatientResponse `json:"patients"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
