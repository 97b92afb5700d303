package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vitalcred/clinic-platform/internal/clinicorp"
	"github.com/vitalcred/clinic-platform/internal/patients"
	"github.com/vitalcred/clinic-platform/internal/tenancy"
	"github.com/vitalcred/clinic-platform/pkg/logging"
)

// clinicID prefers the tenancy value set by the ClinicContext middleware
// and falls back to the route parameter when the handler is mounted bare.
func clinicIDFrom(r *http.Request) string {
	if id, ok := tenancy.ClinicIDFromContext(r.Context()); ok {
		return id
	}
	return chi.URLParam(r, "clinicID")
}

// ClinicIntegrationHandler serves the clinic-facing schedule and patient
// endpoints backed by the practice-management integration. Upstream
// degradation is invisible here: a dead upstream produces empty result
// sets, not errors.
type ClinicIntegrationHandler struct {
	executor            *clinicorp.Executor
	resolvers           *clinicorp.ResolverRegistry
	localPatients       patients.LocalSource
	logger              *logging.Logger
	defaultProfessional string
}

// NewClinicIntegrationHandler creates the integration handler.
func NewClinicIntegrationHandler(
	executor *clinicorp.Executor,
	resolvers *clinicorp.ResolverRegistry,
	localPatients patients.LocalSource,
	defaultProfessional string,
	logger *logging.Logger,
) *ClinicIntegrationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ClinicIntegrationHandler{
		executor:            executor,
		resolvers:           resolvers,
		localPatients:       localPatients,
		logger:              logger,
		defaultProfessional: defaultProfessional,
	}
}

// GetSchedule returns the clinic's schedule for a date range.
// GET /api/clinics/{clinicID}/schedule?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *ClinicIntegrationHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	clinicID := clinicIDFrom(r)
	dateRange, err := parseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, `{"error": "dates must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	gateway := clinicorp.NewScheduleGateway(clinicorp.ScheduleGatewayConfig{
		Executor:            h.executor,
		Resolver:            h.resolvers.For(clinicID),
		Logger:              h.logger,
		DefaultProfessional: h.defaultProfessional,
	})
	appointments, err := gateway.ListAppointments(r.Context(), dateRange)
	if err != nil {
		h.writeFailure(w, clinicID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// GetPatients returns the reconciled local plus upstream patient roster.
// GET /api/clinics/{clinicID}/patients
func (h *ClinicIntegrationHandler) GetPatients(w http.ResponseWriter, r *http.Request) {
	clinicID := clinicIDFrom(r)

	gateway := clinicorp.NewPatientsGateway(h.executor, h.resolvers.For(clinicID), h.logger)
	roster, err := patients.NewService(h.localPatients, gateway, h.logger).List(r.Context(), clinicID)
	if err != nil {
		h.writeFailure(w, clinicID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patients": roster,
		"count":    len(roster),
	})
}

// ReloadIntegration forces a credential reload for the clinic.
// POST /api/clinics/{clinicID}/integration/reload
func (h *ClinicIntegrationHandler) ReloadIntegration(w http.ResponseWriter, r *http.Request) {
	clinicID := clinicIDFrom(r)

	cred, err := h.resolvers.For(clinicID).Reload(r.Context())
	if err != nil {
		h.logger.Error("credential reload failed", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "credential reload failed"}`, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connected": cred != nil,
	})
}

// writeFailure maps gateway failure kinds onto HTTP statuses. Only
// non-recoverable kinds reach this point; everything else degraded to an
// empty result upstream of the handler. Under Surfaced visibility the
// response carries the gateway's own message instead of the generic body.
func (h *ClinicIntegrationHandler) writeFailure(w http.ResponseWriter, clinicID string, err error) {
	kind := clinicorp.FailureKindOf(err)
	h.logger.Warn("integration request failed", "clinic_id", clinicID, "kind", string(kind))

	status := http.StatusInternalServerError
	message := "internal server error"
	switch kind {
	case clinicorp.KindSessionExpired:
		status = http.StatusUnauthorized
		message = "session expired"
	case clinicorp.KindCredentialsMissing:
		status = http.StatusConflict
		message = "integration not configured"
	}
	if h.executor.Visibility() == clinicorp.Surfaced {
		var failure *clinicorp.Failure
		if errors.As(err, &failure) && failure.Message != "" {
			message = failure.Message
		}
	}
	writeJSON(w, status, map[string]string{
		"error": message,
		"kind":  string(kind),
	})
}

func parseDateRange(start, end string) (clinicorp.DateRange, error) {
	var dr clinicorp.DateRange
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return dr, err
		}
		dr.Start = t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return dr, err
		}
		dr.End = t
	}
	return dr, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// Check reports process liveness.
// GET /health
func (HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
