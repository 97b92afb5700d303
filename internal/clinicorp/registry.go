package clinicorp

import (
	"sync"
	"time"

	"github.com/vitalcred/clinic-platform/pkg/logging"
)

// ResolverRegistry hands out the per-clinic credential resolver, creating
// it on first use. Resolvers are long-lived so their cache and debounce
// state survive across requests.
type ResolverRegistry struct {
	source   CredentialSource
	debounce time.Duration
	logger   *logging.Logger

	mu        sync.Mutex
	resolvers map[string]*Resolver
}

// NewResolverRegistry creates a registry backed by one credential source.
func NewResolverRegistry(source CredentialSource, debounce time.Duration, logger *logging.Logger) *ResolverRegistry {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolverRegistry{
		source:    source,
		debounce:  debounce,
		logger:    logger,
		resolvers: make(map[string]*Resolver),
	}
}

// For returns the resolver for a clinic, creating it if needed.
func (rr *ResolverRegistry) For(clinicID string) *Resolver {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if r, ok := rr.resolvers[clinicID]; ok {
		return r
	}
	r := NewResolver(ResolverConfig{
		Source:   rr.source,
		ClinicID: clinicID,
		Debounce: rr.debounce,
		Logger:   rr.logger,
	})
	rr.resolvers[clinicID] = r
	return r
}
