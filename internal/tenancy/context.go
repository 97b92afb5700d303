package tenancy

import "context"

type ctxKey string

const (
	clinicKey  ctxKey = "vitalcred.clinic_id"
	sessionKey ctxKey = "vitalcred.session_token"
)

// WithClinicID stores the clinic id in context.
func WithClinicID(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicKey, clinicID)
}

// ClinicIDFromContext extracts the clinic id if present.
func ClinicIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(clinicKey)
	if val == nil {
		return "", false
	}
	clinicID, ok := val.(string)
	return clinicID, ok && clinicID != ""
}

// WithSessionToken stores the caller's session token in context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionKey, token)
}

// SessionTokenFromContext extracts the session token if present.
func SessionTokenFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(sessionKey)
	if val == nil {
		return "", false
	}
	token, ok := val.(string)
	return token, ok && token != ""
}
