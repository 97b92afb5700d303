package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalcred/clinic-platform/internal/tenancy"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionAuth(t *testing.T) {
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken, _ = tenancy.SessionTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := SessionAuth(testSecret)(next)

	t.Run("valid token passes and lands in context", func(t *testing.T) {
		token := signToken(t, testSecret)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if gotToken != token {
			t.Fatal("session token not propagated to context")
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d", rec.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d", rec.Code)
		}
	})

	t.Run("empty secret disables all access", func(t *testing.T) {
		disabled := SessionAuth("")(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))
		rec := httptest.NewRecorder()
		disabled.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d", rec.Code)
		}
	})
}

func TestClinicContext(t *testing.T) {
	var gotClinic string
	r := chi.NewRouter()
	r.Route("/clinics/{clinicID}", func(r chi.Router) {
		r.Use(ClinicContext)
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			gotClinic, _ = tenancy.ClinicIDFromContext(req.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinics/clinic-7/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotClinic != "clinic-7" {
		t.Fatalf("clinic id not propagated, got %q", gotClinic)
	}
}
