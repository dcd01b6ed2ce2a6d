package entity

// PatientFilter holds the sanitized list criteria handed to the repository.
// SortColumn must already be one of the whitelisted column expressions.
type PatientFilter struct {
	Search           string
	Status           string
	Diagnosis        string
	AssignedDoctorID string
	SortColumn       string
	SortDesc         bool
	Limit            int
	Offset           int
}
