// Package clinicorp integrates the platform with the Clinicorp
// practice-management system, the system of record for a clinic's real
// scheduling and patient data. All traffic goes through a trusted backend
// proxy that injects secrets server-side; this package never puts raw
// credentials on the wire itself.
package clinicorp

import (
	"encoding/json"
	"time"
)

// AppointmentStatus is the canonical status every upstream encoding maps to.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusPending     AppointmentStatus = "pending"
	StatusUrgent      AppointmentStatus = "urgent"
	StatusBreak       AppointmentStatus = "break"
	StatusAttention   AppointmentStatus = "attention"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// RecordSource tags where a canonical record came from. Callers must never
// have to guess provenance.
type RecordSource string

const (
	SourceLocal       RecordSource = "local"
	SourceUpstream    RecordSource = "upstream"
	SourceSynthesized RecordSource = "synthesized"
)

// Appointment is the canonical shape heterogeneous upstream schedule
// records are normalized into.
type Appointment struct {
	ID               string            `json:"id"`
	PatientID        string            `json:"patient_id,omitempty"`
	PatientName      string            `json:"patient_name"`
	ProfessionalID   string            `json:"professional_id,omitempty"`
	ProfessionalName string            `json:"professional_name,omitempty"`
	Date             string            `json:"date"` // YYYY-MM-DD
	Time             string            `json:"time"` // HH:MM
	DurationMinutes  int               `json:"duration_minutes"`
	Status           AppointmentStatus `json:"status"`
	Procedure        string            `json:"procedure,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	// Source tags real upstream records versus placeholders synthesized
	// from aggregate counts. Synthesized records are never authoritative.
	Source RecordSource `json:"source"`
	// Raw holds the upstream payload the record was normalized from.
	// Empty for synthesized records.
	Raw json.RawMessage `json:"-"`
}

// Synthesized reports whether this appointment was derived from aggregate
// statistics instead of a confirmed upstream record.
func (a Appointment) Synthesized() bool {
	return a.Source == SourceSynthesized
}

// Patient is the canonical patient shape shared by the local store and the
// upstream gateway.
type Patient struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	CPF       string       `json:"cpf,omitempty"`
	BirthDate string       `json:"birth_date,omitempty"` // YYYY-MM-DD
	Address   string       `json:"address,omitempty"`
	City      string       `json:"city,omitempty"`
	State     string       `json:"state,omitempty"`
	ZipCode   string       `json:"zip_code,omitempty"`
	Source    RecordSource `json:"source"`
}

// DateRange bounds a schedule query. Zero values mean "today".
type DateRange struct {
	Start time.Time
	End   time.Time
}

// normalized returns the range with zero values defaulted to today and an
// inverted range swapped.
func (r DateRange) normalized(now time.Time) DateRange {
	day := now.Truncate(24 * time.Hour)
	if r.Start.IsZero() {
		r.Start = day
	}
	if r.End.IsZero() {
		r.End = r.Start
	}
	if r.End.Before(r.Start) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}
