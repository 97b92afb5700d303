package patients

import (
	"sort"
	"strings"

	"github.com/vitalcred/clinic-platform/internal/clinicorp"
)

// ReconciledPatient is a canonical patient annotated with its cross-source
// identity key and the source that won the merge. The key is empty for
// records that carried nothing matchable.
type ReconciledPatient struct {
	clinicorp.Patient
	DedupKey string                 `json:"dedup_key,omitempty"`
	Winner   clinicorp.RecordSource `json:"winner"`
}

// Reconcile merges local and upstream patient rosters into one list.
//
// Records are matched by identity key: normalized email when present,
// otherwise the CPF reduced to its digits. When both sides hold the same
// person, the local record wins wholesale; fields are never mixed across
// sources, so a record's provenance stays unambiguous. Records with
// neither identifier cannot be matched and are always kept. The merged
// list is sorted by name, case-insensitively, so output order does not
// depend on which source answered first.
func Reconcile(local, upstream []clinicorp.Patient) []ReconciledPatient {
	merged := make([]ReconciledPatient, 0, len(local)+len(upstream))
	seen := make(map[string]struct{}, len(local))

	for _, p := range local {
		key := identityKey(p)
		if key != "" {
			seen[key] = struct{}{}
		}
		merged = append(merged, ReconciledPatient{Patient: p, DedupKey: key, Winner: clinicorp.SourceLocal})
	}
	for _, p := range upstream {
		key := identityKey(p)
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		merged = append(merged, ReconciledPatient{Patient: p, DedupKey: key, Winner: clinicorp.SourceUpstream})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return strings.ToLower(merged[i].Name) < strings.ToLower(merged[j].Name)
	})
	return merged
}

// identityKey returns the stable cross-source identity of a patient, or ""
// when the record carries nothing matchable.
func identityKey(p clinicorp.Patient) string {
	if email := strings.ToLower(strings.TrimSpace(p.Email)); email != "" {
		return "email:" + email
	}
	if cpf := digitsOnly(p.CPF); cpf != "" {
		return "cpf:" + cpf
	}
	return ""
}

// digitsOnly strips formatting from a CPF, so "123.456.789-00" and
// "12345678900" match.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
