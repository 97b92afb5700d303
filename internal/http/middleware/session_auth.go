package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalcred/clinic-platform/internal/tenancy"
)

// SessionAuth enforces the HMAC-signed platform session token on API
// endpoints. The raw token also travels down in the request context so the
// upstream gateway can re-check it right before an outbound call; a session
// can lapse between the edge and the proxy hop.
func SessionAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, `{"error": "session auth disabled"}`, http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error": "missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error": "invalid session token"}`, http.StatusUnauthorized)
				return
			}
			ctx := tenancy.WithSessionToken(r.Context(), tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClinicContext copies the clinicID route parameter into the tenancy
// context. Mount inside a route that declares {clinicID}.
func ClinicContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID := chi.URLParam(r, "clinicID")
		if clinicID == "" {
			http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithClinicID(r.Context(), clinicID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
