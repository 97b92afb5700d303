package clinicorp

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalcred/clinic-platform/internal/tenancy"
)

// JWTSessionValidator checks the HMAC-signed platform session token carried
// in the request context. The upstream Credential is a separate concern; a
// clinic can hold valid upstream credentials while the caller's own session
// has lapsed.
type JWTSessionValidator struct {
	secret string
}

// NewJWTSessionValidator creates a validator for HMAC session tokens.
func NewJWTSessionValidator(secret string) *JWTSessionValidator {
	return &JWTSessionValidator{secret: secret}
}

// Validate implements SessionValidator.
func (v *JWTSessionValidator) Validate(ctx context.Context) error {
	if v.secret == "" {
		return errors.New("session validation disabled")
	}
	tokenString, ok := tenancy.SessionTokenFromContext(ctx)
	if !ok {
		return errors.New("missing session token")
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(v.secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid session token")
	}
	return nil
}
