package clinicorp

import (
	"errors"
	"fmt"
)

// FailureKind classifies gateway failures. Transient kinds are retried by
// the executor; the rest fail fast.
type FailureKind string

const (
	KindSessionExpired     FailureKind = "session_expired"
	KindCredentialsMissing FailureKind = "credentials_missing"
	KindInvalidPath        FailureKind = "invalid_path"
	KindUpstreamTimeout    FailureKind = "upstream_timeout"
	KindUpstreamError      FailureKind = "upstream_error"
	KindTransportError     FailureKind = "transport_error"
	KindEmptyResponse      FailureKind = "empty_response"
)

// Failure is the error type every gateway operation returns on the failure
// path. Failures are never partially successful.
type Failure struct {
	Kind    FailureKind
	Message string
	cause   error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("clinicorp: %s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("clinicorp: %s", f.Kind)
}

func (f *Failure) Unwrap() error { return f.cause }

// Is lets errors.Is match failures by kind sentinel.
func (f *Failure) Is(target error) bool {
	other, ok := target.(*Failure)
	if !ok {
		return false
	}
	return other.Kind == f.Kind && (other.Message == "" || other.Message == f.Message)
}

func newFailure(kind FailureKind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, cause: cause}
}

// FailureKindOf extracts the failure kind, or "" for non-gateway errors.
func FailureKindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// retryable reports whether a failure class is transient. Session,
// credential and path problems will not heal on their own.
func retryable(kind FailureKind) bool {
	switch kind {
	case KindUpstreamTimeout, KindTransportError:
		return true
	default:
		return false
	}
}

// recoverable reports whether a fallback chain may continue past this
// failure. Expired sessions and missing credentials doom every subsequent
// step, so chains abort on them instead of wasting attempts.
func recoverable(kind FailureKind) bool {
	switch kind {
	case KindSessionExpired, KindCredentialsMissing:
		return false
	default:
		return true
	}
}
