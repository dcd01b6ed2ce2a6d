package entity

import (
	"time"
)

// Patient represents one person under care
type Patient struct {
	ID          string    `gorm:"type:varchar(20);primaryKey" json:"patient_id"`
	FirstName   string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100);not null;index" json:"last_name"`
	DateOfBirth time.Time `gorm:"type:date;not null" json:"dob"`
	Age         int       `gorm:"not null;default:0" json:"age"`
	Gender      string    `gorm:"type:varchar(10);not null" json:"gender"`

	Phone   string `gorm:"type:varchar(20);not null" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address string `gorm:"type:text" json:"address,omitempty"`

	Diagnosis      string    `gorm:"type:varchar(255);not null;index" json:"diagnosis"`
	DiagnosisDate  time.Time `gorm:"type:date;not null" json:"diagnosis_date"`
	Stage          string    `gorm:"type:varchar(5);not null" json:"stage"`
	TreatmentPlan  string    `gorm:"type:varchar(20);not null" json:"treatment_plan"`
	Allergies      string    `gorm:"type:text" json:"allergies,omitempty"`
	MedicalHistory string    `gorm:"type:text" json:"medical_history,omitempty"`

	InsuranceProvider   string     `gorm:"type:varchar(255)" json:"insurance_provider,omitempty"`
	InsurancePolicyID   string     `gorm:"type:varchar(100)" json:"insurance_policy_id,omitempty"`
	InsuranceCoverage   string     `gorm:"type:varchar(10)" json:"insurance_coverage,omitempty"`
	InsuranceValidUntil *time.Time `gorm:"type:date" json:"insurance_valid_until,omitempty"`

	Status           string     `gorm:"type:varchar(10);not null;default:'active';index" json:"status"`
	AssignedDoctorID *string    `gorm:"type:varchar(20);index" json:"assigned_doctor,omitempty"`
	NextAppointment  *time.Time `json:"next_appointment,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// Gender constants
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Patient lifecycle status constants
const (
	PatientStatusActive   = "active"
	PatientStatusInactive = "inactive"
	PatientStatusPending  = "pending"
)

// Treatment plan constants
const (
	TreatmentChemo      = "chemo"
	TreatmentRadio      = "radio"
	TreatmentSurgery    = "surgery"
	TreatmentCombo      = "combo"
	TreatmentPalliative = "palliative"
)

// Insurance coverage constants
const (
	CoverageFull    = "full"
	CoveragePartial = "partial"
	CoverageNone    = "none"
)

// Appointment status values. They are computed on every read and never stored.
const (
	AppointmentNone     = "No Appointment"
	AppointmentUpcoming = "Upcoming"
	AppointmentOverdue  = "Overdue"
)

// SetDateOfBirth stores dob and recomputes Age relative to now.
func (p *Patient) SetDateOfBirth(dob, now time.Time) {
	p.DateOfBirth = dob
	p.Age = AgeAt(dob, now)
}

// AppointmentStatus derives the display status of the next appointment as seen at now.
// Both sides are compared as calendar days, so an appointment dated today counts as
// upcoming whatever the server's zone.
func (p *Patient) AppointmentStatus(now time.Time) string {
	if p.NextAppointment == nil {
		return AppointmentNone
	}
	if CalendarDay(*p.NextAppointment).Before(CalendarDay(now)) {
		return AppointmentOverdue
	}
	return AppointmentUpcoming
}

// CalendarDay returns t's date, read in t's own location, as UTC midnight.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AgeAt returns the number of whole years between dob and now.
// dob is read as a calendar date; now is read in its own location.
func AgeAt(dob, now time.Time) int {
	by, bm, bd := dob.Date()
	ny, nm, nd := now.Date()

	years := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
