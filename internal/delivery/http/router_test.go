package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lunar-cancer-care/config"
	"lunar-cancer-care/internal/delivery/http/handler"
	"lunar-cancer-care/internal/delivery/http/middleware"
	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/repository"
	"lunar-cancer-care/internal/service"
	"lunar-cancer-care/internal/testutil"
	"lunar-cancer-care/internal/usecase"
	"lunar-cancer-care/pkg/jwt"
	"lunar-cancer-care/pkg/metrics"
	"lunar-cancer-care/pkg/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
	Meta    *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

type testServer struct {
	router     *mux.Router
	jwtService *jwt.JWTService
	redis      *miniredis.Miniredis
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger()
	collector := metrics.NewCollector("test")
	customValidator := validator.NewValidator("KE")

	patientRepo := repository.NewPatientRepository()
	staffRepo := repository.NewStaffRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	counterRepo := repository.NewCounterRepository()
	auditService := service.NewAuditService(log, auditLogRepo)

	patientIDs := service.NewCounterAllocator(db, log, counterRepo, collector, entity.CounterPatientID, "PAT")
	staffIDs := service.NewCounterAllocator(db, log, counterRepo, collector, entity.CounterStaffID, "STF")

	patientUsecase := usecase.NewPatientUsecase(db, log, patientRepo, staffRepo, patientIDs, auditService, customValidator, collector, usecase.DefaultPageSize)
	staffUsecase := usecase.NewStaffUsecase(db, log, staffRepo, staffIDs, auditService, customValidator)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour})
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient, config.AuthConfig{
		Enabled:     authEnabled,
		DefaultRole: entity.RoleAdmin,
	}, log)

	router := NewRouter(
		handler.NewPatientHandler(patientUsecase),
		handler.NewStaffHandler(staffUsecase),
		handler.NewAuditLogHandler(auditLogUsecase),
		authMiddleware,
		middleware.NewCORSMiddleware(),
		middleware.NewLoggingMiddleware(log, collector),
		collector.Handler(),
	)

	return &testServer{router: router.Setup(), jwtService: jwtService, redis: mr}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func johnDoeBody() map[string]string {
	return map[string]string{
		"first_name":     "John",
		"last_name":      "Doe",
		"dob":            "1982-03-15",
		"gender":         "male",
		"phone":          "+254712345678",
		"diagnosis":      "Lung Cancer",
		"diagnosis_date": "2024-11-02",
		"stage":          "3",
		"treatment_plan": "chemo",
	}
}

func TestPatientRoutes_CRUD(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodPost, "/api/v1/patients", johnDoeBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var created struct {
		PatientID         string `json:"patient_id"`
		Age               int    `json:"age"`
		AppointmentStatus string `json:"appointment_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "PAT0001", created.PatientID)
	assert.Equal(t, entity.AppointmentNone, created.AppointmentStatus)

	rec, env = s.do(t, http.MethodGet, "/api/v1/patients?search=DOE&page=abc&limit=", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Patients   []json.RawMessage `json:"patients"`
		TotalCount int64             `json:"total_count"`
		Limit      int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.TotalCount)
	assert.Len(t, list.Patients, 1)
	assert.Equal(t, usecase.DefaultPageSize, list.Limit)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.TotalPages)

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/patients/PAT0001", map[string]string{"stage": "4"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/api/v1/patients/PAT0404", map[string]string{"stage": "4"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/patients/PAT0001", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients/PAT0001", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatientRoutes_ValidationAndBadBody(t *testing.T) {
	s := newTestServer(t, false)

	body := johnDoeBody()
	body["stage"] = "9"
	body["dob"] = "yesterday"
	rec, env := s.do(t, http.MethodPost, "/api/v1/patients", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "stage")
	assert.Contains(t, env.Error, "dob")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestPermissions_HeaderCaller(t *testing.T) {
	s := newTestServer(t, false)

	pharmacist := map[string]string{middleware.HeaderUserRole: entity.RolePharmacist}
	rec, _ := s.do(t, http.MethodPost, "/api/v1/patients", johnDoeBody(), pharmacist)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients", nil, pharmacist)
	assert.Equal(t, http.StatusOK, rec.Code)

	nurse := map[string]string{middleware.HeaderUserRole: entity.RoleNurse}
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/patients/PAT0001", nil, nurse)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit-logs", nil, nurse)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Role defaults to admin when no header is sent
	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit-logs", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStaffRoutes_DoctorSeesOnlyOwnPatients(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodPost, "/api/v1/staff", map[string]string{
		"first_name": "Amina",
		"last_name":  "Otieno",
		"role":       "doctor",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var staff struct {
		StaffID string `json:"staff_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &staff))
	assert.Equal(t, "STF0001", staff.StaffID)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/patients", johnDoeBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	doctor := map[string]string{
		middleware.HeaderUserID:   "doc-1",
		middleware.HeaderUserRole: entity.RoleDoctor,
		middleware.HeaderStaffID:  "STF0001",
	}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients/PAT0001", nil, doctor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/staff?role=doctor", nil, doctor)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/staff/STF0404", nil, doctor)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth_TokenAndRevocation(t *testing.T) {
	s := newTestServer(t, true)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/patients", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, tokenID, err := s.jwtService.GenerateAccessToken("u-1", entity.RoleReceptionist, "")
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	// Header callers are ignored once tokens are required
	bearer[middleware.HeaderUserRole] = entity.RoleAdmin
	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit-logs", nil, bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients", nil, bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.redis.Set(middleware.RevokedTokenKeyPrefix+tokenID, "1"))
	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients", nil, bearer)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	s.router.ServeHTTP(metricsRec, req)
	assert.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "test_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), middleware.HeaderUserRole)
}
