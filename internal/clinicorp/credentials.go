package clinicorp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vitalcred/clinic-platform/pkg/logging"
)

// Credential is the per-clinic upstream credential set. Immutable once
// resolved; a new value only appears through an explicit Reload.
type Credential struct {
	SubscriberID    string `json:"subscriber_id"`
	AccessToken     string `json:"access_token"`
	BaseURL         string `json:"base_url"`
	DefaultLinkCode string `json:"default_link_code"`
	ClinicID        string `json:"clinic_id"`
}

func (c *Credential) valid() bool {
	return c != nil &&
		strings.TrimSpace(c.SubscriberID) != "" &&
		strings.TrimSpace(c.AccessToken) != ""
}

// CredentialSource reads the per-clinic credential record from wherever the
// platform persists it. This package only ever reads; writes belong to the
// owning admin surface. A disabled or absent record returns (nil, nil).
type CredentialSource interface {
	Fetch(ctx context.Context, clinicID string) (*Credential, error)
}

// Resolver caches the active credential for one clinic context.
//
// Resolve never loads: an unresolved credential stays unresolved until a
// caller explicitly reloads. Implicit reload-on-miss caused request storms
// in the past, so it is deliberately not offered. Reload is single-flight:
// concurrent callers share the in-flight load, and loads inside the
// debounce window reuse the previous result.
type Resolver struct {
	source   CredentialSource
	clinicID string
	debounce time.Duration
	logger   *logging.Logger

	mu         sync.Mutex
	current    *Credential
	loaded     bool
	lastReload time.Time
	inflight   chan struct{}
}

// ResolverConfig configures a credential resolver.
type ResolverConfig struct {
	Source   CredentialSource
	ClinicID string
	// Debounce collapses reloads issued within the window into the
	// previous result. Zero disables debouncing.
	Debounce time.Duration
	Logger   *logging.Logger
}

// NewResolver creates a resolver for one clinic context.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		source:   cfg.Source,
		clinicID: cfg.ClinicID,
		debounce: cfg.Debounce,
		logger:   logger,
	}
}

// Resolve returns the cached credential, or nil when none has been loaded.
// It performs no I/O.
func (r *Resolver) Resolve() *Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Reload fetches the credential record from the source. Only one load is
// ever in flight; concurrent callers block on it and share its result.
func (r *Resolver) Reload(ctx context.Context) (*Credential, error) {
	r.mu.Lock()
	if r.inflight != nil {
		done := r.inflight
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.current, nil
	}
	if r.loaded && r.debounce > 0 && time.Since(r.lastReload) < r.debounce {
		defer r.mu.Unlock()
		return r.current, nil
	}
	done := make(chan struct{})
	r.inflight = done
	r.mu.Unlock()

	cred, err := r.source.Fetch(ctx, r.clinicID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight = nil
	close(done)
	if err != nil {
		r.logger.Warn("clinicorp credential reload failed", "clinic_id", r.clinicID, "error", err)
		return r.current, err
	}
	if cred != nil && !cred.valid() {
		r.logger.Warn("clinicorp credential record incomplete", "clinic_id", r.clinicID)
		cred = nil
	}
	r.current = cred
	r.loaded = true
	r.lastReload = time.Now()
	return r.current, nil
}

// Invalidate drops the cached credential. Called when the clinic/user
// context changes.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
	r.loaded = false
	r.lastReload = time.Time{}
}
