package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"lunar-cancer-care/internal/converter"
	"lunar-cancer-care/internal/delivery/dto"
	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/domain/repository"
	"lunar-cancer-care/internal/service"
	"lunar-cancer-care/pkg/metrics"
	"lunar-cancer-care/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound = errors.New("patient not found")

	errPatientIDTaken = errors.New("patient id already taken")
)

const (
	DefaultPage       = 1
	DefaultPageSize   = 5
	MaxPageSize       = 100
	DefaultSortColumn = "created_at"

	// maxIDAttempts bounds how many taken identifiers a single create skips.
	maxIDAttempts = 50
)

// patientSortColumns maps accepted sortBy keys to ORDER BY expressions.
// Text columns are lowered so that ordering ignores case.
var patientSortColumns = map[string]string{
	"patientId":       "id",
	"id":              "id",
	"lastName":        "LOWER(last_name)",
	"age":             "age",
	"diagnosis":       "LOWER(diagnosis)",
	"stage":           "stage",
	"assignedDoctor":  "assigned_doctor_id",
	"nextAppointment": "next_appointment",
	"status":          "status",
	"createdAt":       "created_at",
}

type PatientUsecase interface {
	CreatePatient(ctx context.Context, caller entity.Caller, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	GetPatient(ctx context.Context, caller entity.Caller, id string) (*dto.PatientResponse, error)
	UpdatePatient(ctx context.Context, caller entity.Caller, id string, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	DeletePatient(ctx context.Context, caller entity.Caller, id string) error
	ListPatients(ctx context.Context, caller entity.Caller, query *dto.PatientListQuery) (*dto.PatientListResponse, error)
}

type patientUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	patientRepo     repository.PatientRepository
	staffRepo       repository.StaffRepository
	allocator       service.IdentifierAllocator
	auditService    service.AuditService
	validator       *validator.CustomValidator
	collector       *metrics.Collector
	defaultPageSize int
	now             func() time.Time
}

func NewPatientUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	staffRepo repository.StaffRepository,
	allocator service.IdentifierAllocator,
	auditService service.AuditService,
	validator *validator.CustomValidator,
	collector *metrics.Collector,
	defaultPageSize int,
) PatientUsecase {
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	if defaultPageSize > MaxPageSize {
		defaultPageSize = MaxPageSize
	}
	return &patientUsecase{
		db:              db,
		log:             log,
		patientRepo:     patientRepo,
		staffRepo:       staffRepo,
		allocator:       allocator,
		auditService:    auditService,
		validator:       validator,
		collector:       collector,
		defaultPageSize: defaultPageSize,
		now:             time.Now,
	}
}

func (u *patientUsecase) CreatePatient(ctx context.Context, caller entity.Caller, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	if err := u.validate(req); err != nil {
		return nil, err
	}

	now := u.now()
	dates, err := parseDates(map[string]string{
		"dob":                   req.DateOfBirth,
		"diagnosis_date":        req.DiagnosisDate,
		"insurance_valid_until": req.InsuranceValidUntil,
		"next_appointment":      req.NextAppointment,
	})
	if err != nil {
		return nil, err
	}
	if isFutureDate(dates["dob"], now) {
		return nil, newFieldError("dob", "dob cannot be in the future")
	}

	// Doctors register patients onto their own list unless told otherwise
	doctorID := strings.TrimSpace(req.AssignedDoctor)
	if doctorID == "" && caller.ScopedToOwnPatients() {
		doctorID = caller.StaffID
	}
	var doctor *entity.Staff
	if doctorID != "" {
		doctor, err = u.findDoctor(ctx, u.db, doctorID)
		if err != nil {
			return nil, err
		}
	}

	status := req.Status
	if status == "" {
		status = entity.PatientStatusActive
	}

	patient := &entity.Patient{
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Gender:            req.Gender,
		Phone:             strings.TrimSpace(req.Phone),
		Email:             req.Email,
		Address:           req.Address,
		Diagnosis:         strings.TrimSpace(req.Diagnosis),
		DiagnosisDate:     *dates["diagnosis_date"],
		Stage:             req.Stage,
		TreatmentPlan:     req.TreatmentPlan,
		Allergies:         req.Allergies,
		MedicalHistory:    req.MedicalHistory,
		InsuranceProvider: req.InsuranceProvider,
		InsurancePolicyID: req.InsurancePolicyID,
		InsuranceCoverage: req.InsuranceCoverage,
		Status:            status,
		NextAppointment:   dates["next_appointment"],
	}
	patient.SetDateOfBirth(*dates["dob"], now)
	patient.InsuranceValidUntil = dates["insurance_valid_until"]
	if doctorID != "" {
		patient.AssignedDoctorID = &doctorID
	}

	// Imported records may already hold identifiers inside the allocator's
	// range; an allocated value that is taken is skipped.
	for attempt := 1; ; attempt++ {
		if req.PatientID != "" {
			patient.ID = req.PatientID
		} else {
			patient.ID, err = u.allocator.Allocate(ctx)
			if err != nil {
				return nil, unavailable(err)
			}
		}

		err = u.insertPatient(ctx, caller, patient)
		if err == nil {
			break
		}
		if !errors.Is(err, errPatientIDTaken) {
			return nil, err
		}
		if req.PatientID != "" {
			return nil, newFieldError("patient_id", "patient_id already exists")
		}
		if attempt == maxIDAttempts {
			u.log.Errorf("Failed to allocate a free patient id after %d attempts", attempt)
			return nil, unavailable(err)
		}
		u.log.Warnf("Allocated patient id %s is already taken, allocating again", patient.ID)
	}

	if u.collector != nil {
		u.collector.PatientsCreatedTotal.Inc()
	}

	resp := converter.PatientToResponse(patient, now)
	if doctor != nil {
		resp.AssignedDoctorName = doctor.FullName()
	}
	return resp, nil
}

// insertPatient writes the patient and its audit entry in one transaction.
// It returns errPatientIDTaken when patient.ID is already stored.
func (u *patientUsecase) insertPatient(ctx context.Context, caller entity.Caller, patient *entity.Patient) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.patientRepo.FindByID(ctx, tx, patient.ID)
	if err != nil {
		u.log.Errorf("Failed to find patient: %+v", err)
		return unavailable(err)
	}
	if existing != nil {
		return errPatientIDTaken
	}

	if err := u.patientRepo.Create(ctx, tx, patient); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errPatientIDTaken
		}
		u.log.Errorf("Failed to create patient: %+v", err)
		return unavailable(err)
	}

	if err := u.auditService.LogCreate(ctx, tx, caller, entity.AuditActionPatientCreate, "patient", patient.ID, patient); err != nil {
		return unavailable(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Errorf("Failed to commit transaction: %+v", err)
		return unavailable(err)
	}
	return nil
}

func (u *patientUsecase) GetPatient(ctx context.Context, caller entity.Caller, id string) (*dto.PatientResponse, error) {
	patient, err := u.findAccessible(ctx, u.db, caller, id)
	if err != nil {
		return nil, err
	}

	responses, err := u.toResponses(ctx, []entity.Patient{*patient})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (u *patientUsecase) UpdatePatient(ctx context.Context, caller entity.Caller, id string, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	if err := u.validate(req); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	patient, err := u.findAccessible(ctx, tx, caller, id)
	if err != nil {
		return nil, err
	}
	old := *patient

	now := u.now()
	if err := u.applyUpdate(ctx, tx, patient, req, now); err != nil {
		return nil, err
	}

	if err := u.patientRepo.Update(ctx, tx, patient); err != nil {
		u.log.Errorf("Failed to update patient: %+v", err)
		return nil, unavailable(err)
	}

	if err := u.auditService.LogUpdate(ctx, tx, caller, entity.AuditActionPatientUpdate, "patient", patient.ID, old, patient); err != nil {
		return nil, unavailable(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Errorf("Failed to commit transaction: %+v", err)
		return nil, unavailable(err)
	}

	responses, err := u.toResponses(ctx, []entity.Patient{*patient})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (u *patientUsecase) DeletePatient(ctx context.Context, caller entity.Caller, id string) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	patient, err := u.findAccessible(ctx, tx, caller, id)
	if err != nil {
		return err
	}

	affected, err := u.patientRepo.Delete(ctx, tx, id)
	if err != nil {
		u.log.Errorf("Failed to delete patient: %+v", err)
		return unavailable(err)
	}
	if affected == 0 {
		return ErrPatientNotFound
	}

	if err := u.auditService.LogDelete(ctx, tx, caller, entity.AuditActionPatientDelete, "patient", id, patient); err != nil {
		return unavailable(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Errorf("Failed to commit transaction: %+v", err)
		return unavailable(err)
	}

	return nil
}

// ListPatients never rejects list criteria: unknown sort keys, directions and
// out-of-range paging values fall back to defaults.
func (u *patientUsecase) ListPatients(ctx context.Context, caller entity.Caller, query *dto.PatientListQuery) (*dto.PatientListResponse, error) {
	page, limit := u.normalizePaging(query.Page, query.Limit)

	sortColumn, ok := patientSortColumns[query.SortBy]
	if !ok {
		sortColumn = DefaultSortColumn
	}

	filter := &entity.PatientFilter{
		Search:           strings.TrimSpace(query.Search),
		Status:           strings.TrimSpace(query.Status),
		Diagnosis:        strings.TrimSpace(query.Diagnosis),
		AssignedDoctorID: strings.TrimSpace(query.AssignedDoctor),
		SortColumn:       sortColumn,
		SortDesc:         !strings.EqualFold(query.SortOrder, "asc"),
		Limit:            limit,
		Offset:           (page - 1) * limit,
	}
	if caller.ScopedToOwnPatients() {
		if caller.StaffID == "" {
			return nil, ErrForbidden
		}
		filter.AssignedDoctorID = caller.StaffID
	}

	patients, total, err := u.patientRepo.Search(ctx, u.db, filter)
	if err != nil {
		u.log.Errorf("Failed to search patients: %+v", err)
		return nil, unavailable(err)
	}

	responses, err := u.toResponses(ctx, patients)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &dto.PatientListResponse{
		Patients:   responses,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (u *patientUsecase) normalizePaging(page, limit int) (int, int) {
	switch {
	case page == 0:
		page = DefaultPage
	case page < 0:
		page = 1
	}
	switch {
	case limit == 0:
		limit = u.defaultPageSize
	case limit < 0:
		limit = 1
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return page, limit
}

func (u *patientUsecase) validate(req interface{}) error {
	if err := u.validator.Validate(req); err != nil {
		fields := u.validator.FormatValidationErrors(err)
		if len(fields) == 0 {
			fields = map[string]string{"body": "request is invalid"}
		}
		return &ValidationError{Fields: fields}
	}
	return nil
}

// findAccessible loads a patient and applies the caller's scope. Doctors get
// ErrForbidden for patients assigned to someone else.
func (u *patientUsecase) findAccessible(ctx context.Context, db *gorm.DB, caller entity.Caller, id string) (*entity.Patient, error) {
	patient, err := u.patientRepo.FindByID(ctx, db, id)
	if err != nil {
		u.log.Errorf("Failed to find patient: %+v", err)
		return nil, unavailable(err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	if caller.ScopedToOwnPatients() {
		if patient.AssignedDoctorID == nil || caller.StaffID == "" || *patient.AssignedDoctorID != caller.StaffID {
			return nil, ErrForbidden
		}
	}

	return patient, nil
}

func (u *patientUsecase) findDoctor(ctx context.Context, db *gorm.DB, id string) (*entity.Staff, error) {
	doctor, err := u.staffRepo.FindByID(ctx, db, id)
	if err != nil {
		u.log.Errorf("Failed to find staff: %+v", err)
		return nil, unavailable(err)
	}
	if doctor == nil || doctor.Role != entity.RoleDoctor {
		return nil, newFieldError("assigned_doctor", "assigned_doctor must reference an existing doctor")
	}
	return doctor, nil
}

func (u *patientUsecase) applyUpdate(ctx context.Context, tx *gorm.DB, patient *entity.Patient, req *dto.UpdatePatientRequest, now time.Time) error {
	setString(&patient.FirstName, req.FirstName, true)
	setString(&patient.LastName, req.LastName, true)
	setString(&patient.Gender, req.Gender, false)
	setString(&patient.Phone, req.Phone, true)
	setString(&patient.Email, req.Email, false)
	setString(&patient.Address, req.Address, false)
	setString(&patient.Diagnosis, req.Diagnosis, true)
	setString(&patient.Stage, req.Stage, false)
	setString(&patient.TreatmentPlan, req.TreatmentPlan, false)
	setString(&patient.Allergies, req.Allergies, false)
	setString(&patient.MedicalHistory, req.MedicalHistory, false)
	setString(&patient.InsuranceProvider, req.InsuranceProvider, false)
	setString(&patient.InsurancePolicyID, req.InsurancePolicyID, false)
	setString(&patient.InsuranceCoverage, req.InsuranceCoverage, false)
	setString(&patient.Status, req.Status, false)

	if req.DateOfBirth != nil {
		dob, err := validator.ParseDate(*req.DateOfBirth)
		if err != nil {
			return newFieldError("dob", "dob must be a date (YYYY-MM-DD or RFC 3339)")
		}
		if isFutureDate(&dob, now) {
			return newFieldError("dob", "dob cannot be in the future")
		}
		patient.SetDateOfBirth(dob, now)
	}

	if req.DiagnosisDate != nil {
		d, err := validator.ParseDate(*req.DiagnosisDate)
		if err != nil {
			return newFieldError("diagnosis_date", "diagnosis_date must be a date (YYYY-MM-DD or RFC 3339)")
		}
		patient.DiagnosisDate = d
	}

	if req.InsuranceValidUntil != nil {
		d, err := parseOptionalDate("insurance_valid_until", *req.InsuranceValidUntil)
		if err != nil {
			return err
		}
		patient.InsuranceValidUntil = d
	}

	if req.NextAppointment != nil {
		d, err := parseOptionalDate("next_appointment", *req.NextAppointment)
		if err != nil {
			return err
		}
		patient.NextAppointment = d
	}

	if req.AssignedDoctor != nil {
		doctorID := strings.TrimSpace(*req.AssignedDoctor)
		if doctorID == "" {
			patient.AssignedDoctorID = nil
		} else {
			if _, err := u.findDoctor(ctx, tx, doctorID); err != nil {
				return err
			}
			patient.AssignedDoctorID = &doctorID
		}
	}

	return nil
}

// toResponses converts patients and fills assigned doctor names with a single staff lookup.
func (u *patientUsecase) toResponses(ctx context.Context, patients []entity.Patient) ([]dto.PatientResponse, error) {
	seen := make(map[string]bool)
	var doctorIDs []string
	for _, p := range patients {
		if p.AssignedDoctorID != nil && !seen[*p.AssignedDoctorID] {
			seen[*p.AssignedDoctorID] = true
			doctorIDs = append(doctorIDs, *p.AssignedDoctorID)
		}
	}

	doctors := make(map[string]entity.Staff, len(doctorIDs))
	if len(doctorIDs) > 0 {
		staff, err := u.staffRepo.FindByIDs(ctx, u.db, doctorIDs)
		if err != nil {
			u.log.Errorf("Failed to find staff: %+v", err)
			return nil, unavailable(err)
		}
		for _, s := range staff {
			doctors[s.ID] = s
		}
	}

	return converter.PatientsToResponses(patients, doctors, u.now()), nil
}

func setString(dst *string, src *string, trim bool) {
	if src == nil {
		return
	}
	if trim {
		*dst = strings.TrimSpace(*src)
		return
	}
	*dst = *src
}

// parseDates parses every non-empty value; empty values map to nil.
func parseDates(values map[string]string) (map[string]*time.Time, error) {
	parsed := make(map[string]*time.Time, len(values))
	for field, value := range values {
		d, err := parseOptionalDate(field, value)
		if err != nil {
			return nil, err
		}
		parsed[field] = d
	}
	return parsed, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := validator.ParseDate(value)
	if err != nil {
		return nil, newFieldError(field, field+" must be a date (YYYY-MM-DD or RFC 3339)")
	}
	return &d, nil
}

// isFutureDate compares calendar days, so a birth date of today is allowed.
func isFutureDate(d *time.Time, now time.Time) bool {
	if d == nil {
		return false
	}
	return entity.CalendarDay(*d).After(entity.CalendarDay(now))
}
