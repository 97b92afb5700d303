package patients

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vitalcred/clinic-platform/internal/clinicorp"
	"github.com/vitalcred/clinic-platform/pkg/logging"
)

// LocalSource lists the clinic's locally registered patients.
type LocalSource interface {
	List(ctx context.Context, clinicID string) ([]clinicorp.Patient, error)
}

// UpstreamSource lists the clinic's patients from the practice-management
// system.
type UpstreamSource interface {
	ListPatients(ctx context.Context) ([]clinicorp.Patient, error)
}

// Service fetches both patient rosters concurrently and reconciles them.
// One side failing degrades to the other side's roster alone; only both
// sides failing is still a full result (an empty one).
type Service struct {
	local    LocalSource
	upstream UpstreamSource
	logger   *logging.Logger
}

// NewService creates a reconciling patients service.
func NewService(local LocalSource, upstream UpstreamSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{local: local, upstream: upstream, logger: logger}
}

// List returns the reconciled patient roster for a clinic.
func (s *Service) List(ctx context.Context, clinicID string) ([]ReconciledPatient, error) {
	var local, upstream []clinicorp.Patient

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.local.List(ctx, clinicID)
		if err != nil {
			s.logger.Warn("local patients unavailable", "clinic_id", clinicID, "error", err)
			return nil
		}
		local = records
		return nil
	})
	g.Go(func() error {
		records, err := s.upstream.ListPatients(ctx)
		if err != nil {
			s.logger.Warn("upstream patients unavailable", "clinic_id", clinicID, "error", err)
			return nil
		}
		upstream = records
		return nil
	})
	// Branch errors are absorbed above; Wait only joins the goroutines.
	_ = g.Wait()

	return Reconcile(local, upstream), nil
}
