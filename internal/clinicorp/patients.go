package clinicorp

import (
	"context"

	"github.com/vitalcred/clinic-platform/pkg/logging"
)

const patientsPath = "/patients/search"

// legacyPatientsPath is the older list endpoint some tenants still answer
// on when search is unavailable.
const legacyPatientsPath = "/patient/list"

// PatientsGateway lists upstream patient records through the shared
// executor. Same degradation contract as the schedule gateway: failures
// collapse to an empty list unless the whole chain is doomed.
type PatientsGateway struct {
	executor *Executor
	resolver *Resolver
	logger   *logging.Logger
}

// NewPatientsGateway creates an upstream patients gateway.
func NewPatientsGateway(executor *Executor, resolver *Resolver, logger *logging.Logger) *PatientsGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientsGateway{executor: executor, resolver: resolver, logger: logger}
}

// ListPatients returns the clinic's upstream patient roster, normalized
// and tagged with upstream provenance.
func (g *PatientsGateway) ListPatients(ctx context.Context) ([]Patient, error) {
	cred := g.resolver.Resolve()

	for _, path := range []string{patientsPath, legacyPatientsPath} {
		data, err := g.executor.Execute(ctx, OutboundRequest{
			Path:       path,
			Method:     "GET",
			Credential: cred,
		})
		if err != nil {
			if !recoverable(FailureKindOf(err)) {
				return nil, err
			}
			g.logger.Warn("clinicorp patients endpoint unavailable", "path", path, "error", err)
			continue
		}

		records := decodeRecords(data)
		if len(records) == 0 {
			continue
		}
		patients := make([]Patient, 0, len(records))
		for _, record := range records {
			patients = append(patients, normalizePatient(record))
		}
		return patients, nil
	}

	return []Patient{}, nil
}
