// Package patients merges the platform's own patient roster with the
// roster held by the clinic's practice-management system into one
// deduplicated, stably ordered view.
package patients

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalcred/clinic-platform/internal/clinicorp"
)

// patientsDB defines the database interface needed by Repository.
type patientsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the locally registered patients for a clinic.
type Repository struct {
	db patientsDB
}

// NewRepository creates a repository backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db patientsDB) *Repository {
	return &Repository{db: db}
}

// List returns the clinic's locally registered patients tagged with local
// provenance.
func (r *Repository) List(ctx context.Context, clinicID string) ([]clinicorp.Patient, error) {
	query := `
		SELECT id, name,
			COALESCE(email, ''), COALESCE(phone, ''), COALESCE(cpf, ''),
			birth_date,
			COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip_code, '')
		FROM patients
		WHERE clinic_id = $1
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	result := []clinicorp.Patient{}
	for rows.Next() {
		var p clinicorp.Patient
		var birthDate *time.Time
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Email,
			&p.Phone,
			&p.CPF,
			&birthDate,
			&p.Address,
			&p.City,
			&p.State,
			&p.ZipCode,
		); err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		if birthDate != nil {
			p.BirthDate = birthDate.Format("2006-01-02")
		}
		p.Source = clinicorp.SourceLocal
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: rows failed: %w", err)
	}
	return result, nil
}
