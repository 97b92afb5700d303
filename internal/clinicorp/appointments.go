package clinicorp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vitalcred/clinic-platform/pkg/logging"
)

var scheduleTracer = otel.Tracer("vitalcred/clinicorp-schedule")

const (
	statsPath    = "/reports/appointments/summary"
	detailedPath = "/appointments/list"

	// maxSynthesized caps how many placeholder records the degraded mode
	// will fabricate from an aggregate count.
	maxSynthesized = 20

	synthesizedNote = "Derived from aggregate schedule statistics; not a confirmed upstream record"
)

// legacyPaths are older per-purpose endpoints some Clinicorp tenants still
// run. Tried in fixed order, first non-empty result wins.
var legacyPaths = []string{
	"/schedule/day",
	"/agenda/appointments",
	"/appointment/getbydate",
}

// ScheduleGateway retrieves a clinic's schedule through a prioritized
// fallback chain of upstream endpoints. A failing step never surfaces to
// the caller; the chain degrades until it runs out of options and then
// reports an empty schedule.
type ScheduleGateway struct {
	executor            *Executor
	resolver            *Resolver
	logger              *logging.Logger
	defaultProfessional string
	now                 func() time.Time
}

// ScheduleGatewayConfig configures a ScheduleGateway.
type ScheduleGatewayConfig struct {
	Executor *Executor
	Resolver *Resolver
	Logger   *logging.Logger
	// DefaultProfessional labels synthesized placeholder entries.
	DefaultProfessional string
	Now                 func() time.Time
}

// NewScheduleGateway creates a schedule gateway.
func NewScheduleGateway(cfg ScheduleGatewayConfig) *ScheduleGateway {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	professional := cfg.DefaultProfessional
	if professional == "" {
		professional = "Professional"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ScheduleGateway{
		executor:            cfg.Executor,
		resolver:            cfg.Resolver,
		logger:              logger,
		defaultProfessional: professional,
		now:                 now,
	}
}

// ListAppointments walks the fallback chain for the given date range:
// aggregate stats, detailed list, synthesized placeholders, legacy
// endpoints. An empty result is not an error. Only non-recoverable
// failures (expired session, missing credentials) abort the chain.
func (g *ScheduleGateway) ListAppointments(ctx context.Context, dateRange DateRange) ([]Appointment, error) {
	ctx, span := scheduleTracer.Start(ctx, "clinicorp.list_appointments")
	defer span.End()

	dr := dateRange.normalized(g.now().UTC())
	query := map[string]string{
		"from": dr.Start.Format("2006-01-02"),
		"to":   dr.End.Format("2006-01-02"),
	}
	cred := g.resolver.Resolve()

	scheduledTotal, haveStats, err := g.fetchStats(ctx, cred, query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("clinicorp.scheduled_total", scheduledTotal))

	// A zero aggregate count skips the detailed fetch and synthesis, but
	// the legacy endpoints are still consulted: some tenants report zero
	// from the stats endpoint while per-purpose endpoints hold records.
	if !haveStats || scheduledTotal > 0 {
		detailed, err := g.fetchList(ctx, cred, detailedPath, query)
		if err != nil {
			return nil, err
		}
		if len(detailed) > 0 {
			span.SetAttributes(attribute.String("clinicorp.schedule_source", "detailed"))
			return detailed, nil
		}

		if haveStats && scheduledTotal > 0 {
			span.SetAttributes(attribute.String("clinicorp.schedule_source", "synthesized"))
			return g.synthesize(scheduledTotal, dr), nil
		}
	}

	for _, path := range legacyPaths {
		appointments, err := g.fetchList(ctx, cred, path, query)
		if err != nil {
			return nil, err
		}
		if len(appointments) > 0 {
			span.SetAttributes(attribute.String("clinicorp.schedule_source", path))
			return appointments, nil
		}
	}

	return []Appointment{}, nil
}

// fetchStats returns the aggregate scheduled count. haveStats is false
// when the endpoint failed or reported nothing usable.
func (g *ScheduleGateway) fetchStats(ctx context.Context, cred *Credential, query map[string]string) (int, bool, error) {
	data, err := g.executor.Execute(ctx, OutboundRequest{
		Path:       statsPath,
		Method:     "GET",
		Query:      query,
		Credential: cred,
	})
	if err != nil {
		if !recoverable(FailureKindOf(err)) {
			return 0, false, err
		}
		g.logger.Warn("clinicorp stats endpoint unavailable", "error", err)
		return 0, false, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		g.logger.Warn("clinicorp stats payload malformed", "error", err)
		return 0, false, nil
	}
	total := firstInt(raw, "scheduled_total", "ScheduledTotal", "total_scheduled", "TotalAgendados", "total")
	return total, true, nil
}

// fetchList retrieves and normalizes raw schedule records from one
// endpoint. Recoverable failures collapse into an empty result so the
// chain can continue.
func (g *ScheduleGateway) fetchList(ctx context.Context, cred *Credential, path string, query map[string]string) ([]Appointment, error) {
	data, err := g.executor.Execute(ctx, OutboundRequest{
		Path:       path,
		Method:     "GET",
		Query:      query,
		Credential: cred,
	})
	if err != nil {
		if !recoverable(FailureKindOf(err)) {
			return nil, err
		}
		g.logger.Warn("clinicorp schedule endpoint unavailable", "path", path, "error", err)
		return nil, nil
	}

	records := decodeRecords(data)
	appointments := make([]Appointment, 0, len(records))
	for _, record := range records {
		appointments = append(appointments, normalizeAppointment(record))
	}
	return appointments, nil
}

// synthesize fabricates placeholder appointments from an aggregate count:
// sequential half-hour slots under a shared default professional, capped
// and explicitly marked so callers can never mistake them for confirmed
// upstream records.
func (g *ScheduleGateway) synthesize(count int, dr DateRange) []Appointment {
	if count > maxSynthesized {
		count = maxSynthesized
	}
	date := dr.Start.Format("2006-01-02")
	start := time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC)

	appointments := make([]Appointment, 0, count)
	for i := 0; i < count; i++ {
		slot := start.Add(time.Duration(i) * 30 * time.Minute)
		appointments = append(appointments, Appointment{
			ID:               uuid.NewString(),
			PatientName:      fmt.Sprintf("Agendamento %d", i+1),
			ProfessionalName: g.defaultProfessional,
			Date:             date,
			Time:             slot.Format("15:04"),
			DurationMinutes:  30,
			Status:           StatusScheduled,
			Notes:            synthesizedNote,
			Source:           SourceSynthesized,
		})
	}
	return appointments
}

// decodeRecords accepts the several list container shapes the upstream
// uses: a bare array, or an object wrapping the array under a known key.
func decodeRecords(data json.RawMessage) []map[string]any {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		return records
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil
	}
	for _, key := range []string{"appointments", "Appointments", "patients", "Patients", "items", "data", "list"} {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &records); err == nil {
			return records
		}
	}
	return nil
}
