package http

import (
	"net/http"

	"lunar-cancer-care/internal/delivery/http/handler"
	"lunar-cancer-care/internal/delivery/http/middleware"
	"lunar-cancer-care/internal/domain/entity"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	patientHandler    *handler.PatientHandler
	staffHandler      *handler.StaffHandler
	auditLogHandler   *handler.AuditLogHandler
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
	metricsHandler    http.Handler
}

func NewRouter(
	patientHandler *handler.PatientHandler,
	staffHandler *handler.StaffHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		patientHandler:    patientHandler,
		staffHandler:      staffHandler,
		auditLogHandler:   auditLogHandler,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
		loggingMiddleware: loggingMiddleware,
		metricsHandler:    metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	// Preflight requests must match a route for the CORS middleware to run
	r.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, req *http.Request) {})

	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	// Patient records
	protected.Handle("/patients", allow(entity.PermPatientRead, r.patientHandler.GetAllPatients)).Methods(http.MethodGet)
	protected.Handle("/patients", allow(entity.PermPatientWrite, r.patientHandler.CreatePatient)).Methods(http.MethodPost)
	protected.Handle("/patients/{id}", allow(entity.PermPatientRead, r.patientHandler.GetPatient)).Methods(http.MethodGet)
	protected.Handle("/patients/{id}", allow(entity.PermPatientWrite, r.patientHandler.UpdatePatient)).Methods(http.MethodPut, http.MethodPatch)
	protected.Handle("/patients/{id}", allow(entity.PermPatientDelete, r.patientHandler.DeletePatient)).Methods(http.MethodDelete)

	// Staff directory
	protected.Handle("/staff", allow(entity.PermStaffRead, r.staffHandler.GetAllStaff)).Methods(http.MethodGet)
	protected.Handle("/staff", allow(entity.PermStaffWrite, r.staffHandler.CreateStaff)).Methods(http.MethodPost)
	protected.Handle("/staff/{id}", allow(entity.PermStaffRead, r.staffHandler.GetStaff)).Methods(http.MethodGet)

	// Audit trail
	protected.Handle("/audit-logs", allow(entity.PermAuditRead, r.auditLogHandler.GetAllAuditLogs)).Methods(http.MethodGet)
	protected.Handle("/audit-logs/{id}", allow(entity.PermAuditRead, r.auditLogHandler.GetAuditLog)).Methods(http.MethodGet)

	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.loggingMiddleware.Handle)

	return r.router
}

func allow(perm entity.Permission, h http.HandlerFunc) http.Handler {
	return middleware.RequirePermission(perm)(h)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
