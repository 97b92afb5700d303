package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vitalcred/clinic-platform/internal/clinicorp"
	"github.com/vitalcred/clinic-platform/internal/tenancy"
	"github.com/vitalcred/clinic-platform/pkg/logging"
)

func newFailureHandler(t *testing.T, visibility clinicorp.Visibility) *ClinicIntegrationHandler {
	t.Helper()
	executor := clinicorp.NewExecutor(clinicorp.ExecutorConfig{
		Logger:     logging.NewWithOutput("error", io.Discard),
		Visibility: &visibility,
	})
	return NewClinicIntegrationHandler(executor, nil, nil, "", logging.NewWithOutput("error", io.Discard))
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding failure body: %v", err)
	}
	return body
}

func TestWriteFailureDefaultVisibilityHidesUpstreamMessage(t *testing.T) {
	h := newFailureHandler(t, clinicorp.Logged)
	rec := httptest.NewRecorder()

	h.writeFailure(rec, "clinic-1", &clinicorp.Failure{
		Kind: clinicorp.KindUpstreamError, Message: "account 42 suspended",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeFailure(t, rec)
	if body["error"] != "internal server error" {
		t.Fatalf("upstream message leaked under default visibility: %q", body["error"])
	}
	if body["kind"] != string(clinicorp.KindUpstreamError) {
		t.Fatalf("expected failure kind in body, got %q", body["kind"])
	}
}

func TestWriteFailureSurfacedVisibilityCarriesUpstreamMessage(t *testing.T) {
	h := newFailureHandler(t, clinicorp.Surfaced)
	rec := httptest.NewRecorder()

	h.writeFailure(rec, "clinic-1", &clinicorp.Failure{
		Kind: clinicorp.KindUpstreamError, Message: "account 42 suspended",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeFailure(t, rec); body["error"] != "account 42 suspended" {
		t.Fatalf("expected surfaced upstream message, got %q", body["error"])
	}
}

func TestClinicIDFromPrefersTenancyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	req = req.WithContext(tenancy.WithClinicID(req.Context(), "clinic-9"))

	if got := clinicIDFrom(req); got != "clinic-9" {
		t.Fatalf("expected clinic-9, got %q", got)
	}
}

func TestClinicIDFromFallsBackToRouteParam(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("clinicID", "clinic-7")
	req := httptest.NewRequest(http.MethodGet, "/clinics/clinic-7/schedule", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	if got := clinicIDFrom(req); got != "clinic-7" {
		t.Fatalf("expected clinic-7, got %q", got)
	}
}
