package clinicorp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// This file is the record normalizer: pure, stateless mappings from the
// upstream's heterogeneous field names and encodings into the canonical
// shapes. Everything here is testable without network access.

// statusByColor maps the upstream's color-coded agenda statuses. Keys are
// lower-case hex without the leading '#'.
var statusByColor = map[string]AppointmentStatus{
	"90ee90": StatusConfirmed, // light green
	"008000": StatusConfirmed, // green
	"ffa500": StatusPending,   // orange
	"ffbf00": StatusPending,   // amber
	"c0c0c0": StatusScheduled, // silver
	"808080": StatusScheduled, // gray
	"8b008b": StatusUrgent,    // dark magenta
	"00ffff": StatusBreak,     // cyan
	"808000": StatusAttention, // olive
	"ff0000": StatusCancelled, // red
	"ff8c00": StatusRescheduled,
}

// statusFromColor resolves a canonical status from an upstream color code.
// Unknown or missing colors default to scheduled.
func statusFromColor(color string) AppointmentStatus {
	key := strings.ToLower(strings.TrimSpace(color))
	key = strings.TrimPrefix(key, "#")
	if status, ok := statusByColor[key]; ok {
		return status
	}
	return StatusScheduled
}

const upper = `A-ZÁÂÃÀÄÉÊÈËÍÎÌÏÓÔÕÒÖÚÛÙÜÇÑ`

// namePatterns are tried in order against the free-text description the
// upstream stuffs patient names into. The first match that is not a stop
// word wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`PACIENTE[:\s]+([` + upper + `][` + upper + ` ]+)`),
	regexp.MustCompile(`AGENDADO\s+POR[:\s]+([` + upper + `][` + upper + ` ]+)`),
	regexp.MustCompile(`^\s*([` + upper + `][` + upper + ` ]+?)\s*[-–]`),
	regexp.MustCompile(`^\s*([` + upper + `][` + upper + ` ]+)\s*$`),
}

// nameStopWords are agenda shorthand the description field often starts
// with; a match that is only one of these is not a patient name.
var nameStopWords = map[string]struct{}{
	"TEM":       {},
	"PAGAR":     {},
	"CONTRATO":  {},
	"CONFIRMAR": {},
	"RETORNO":   {},
	"ENCAIXE":   {},
	"BLOQUEIO":  {},
}

// unknownPatientName is the last-resort marker when nothing on the record
// yields a name.
const unknownPatientName = "unknown patient"

// extractPatientName pulls a patient name out of a free-text description.
// Returns "" when no rule matches.
func extractPatientName(description string) string {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return ""
	}
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(desc)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if candidate == "" {
			continue
		}
		if isStopWord(candidate) {
			continue
		}
		return candidate
	}
	return ""
}

// isStopWord rejects agenda shorthand masquerading as a name. A candidate
// whose leading word is shorthand ("TEM PAGAR") is shorthand too.
func isStopWord(candidate string) bool {
	if _, ok := nameStopWords[candidate]; ok {
		return true
	}
	first, _, _ := strings.Cut(candidate, " ")
	_, ok := nameStopWords[first]
	return ok
}

// firstString returns the first non-empty string among the named raw
// fields. Numeric values are rendered, anything else is skipped.
func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		val, ok := raw[key]
		if !ok || val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// firstInt returns the first parseable integer among the named raw fields.
func firstInt(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		val, ok := raw[key]
		if !ok || val == nil {
			continue
		}
		switch v := val.(type) {
		case float64:
			return int(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// normalizeAppointment maps one raw upstream schedule record into the
// canonical appointment shape. Field candidates cover both the English and
// Portuguese naming the upstream mixes across endpoints.
func normalizeAppointment(raw map[string]any) Appointment {
	id := firstString(raw, "id", "Id", "ID", "appointment_id", "AppointmentId", "IdAgendamento", "agendamento_id")
	description := firstString(raw, "description", "Descricao", "descricao", "Titulo", "title")

	name := extractPatientName(description)
	if name == "" {
		name = firstString(raw, "patient_name", "PatientName", "NomePaciente", "nome_paciente", "Paciente", "Nome", "nome", "name")
	}
	if name == "" && id != "" {
		name = fmt.Sprintf("Paciente %s", id)
	}
	if name == "" {
		name = unknownPatientName
	}

	duration := firstInt(raw, "duration_minutes", "DuracaoMinutos", "duration", "Duracao")
	if duration <= 0 {
		duration = 30
	}

	var rawRef json.RawMessage
	if data, err := json.Marshal(raw); err == nil {
		rawRef = data
	}

	return Appointment{
		ID:               id,
		PatientID:        firstString(raw, "patient_id", "PatientId", "IdPaciente", "paciente_id"),
		PatientName:      name,
		ProfessionalID:   firstString(raw, "professional_id", "ProfessionalId", "IdProfissional", "profissional_id"),
		ProfessionalName: firstString(raw, "professional_name", "ProfessionalName", "NomeProfissional", "Profissional", "Doutor", "Dentista"),
		Date:             firstString(raw, "date", "Date", "Data", "data", "scheduled_date", "DataAgendamento"),
		Time:             firstString(raw, "time", "Time", "Hora", "hora", "HoraInicio", "start_time"),
		DurationMinutes:  duration,
		Status:           statusFromColor(firstString(raw, "color", "Color", "Cor", "cor", "StatusColor", "cor_status")),
		Procedure:        firstString(raw, "procedure", "Procedimento", "procedimento", "Tratamento", "service"),
		Notes:            firstString(raw, "notes", "Observacao", "Observacoes", "obs", "Anotacao"),
		Source:           SourceUpstream,
		Raw:              rawRef,
	}
}

// normalizePatient maps one raw upstream patient record into the canonical
// patient shape, tagged with upstream provenance.
func normalizePatient(raw map[string]any) Patient {
	id := firstString(raw, "id", "Id", "ID", "patient_id", "PatientId", "IdPaciente")
	name := firstString(raw, "name", "Name", "Nome", "nome", "NomePaciente", "patient_name")
	if name == "" && id != "" {
		name = fmt.Sprintf("Paciente %s", id)
	}
	if name == "" {
		name = unknownPatientName
	}
	return Patient{
		ID:        id,
		Name:      name,
		Email:     firstString(raw, "email", "Email", "EMail", "e_mail"),
		Phone:     firstString(raw, "phone", "Phone", "Telefone", "telefone", "Celular", "CellPhone", "mobile"),
		CPF:       firstString(raw, "cpf", "CPF", "Cpf", "documento", "Documento"),
		BirthDate: firstString(raw, "birth_date", "BirthDate", "DataNascimento", "Nascimento", "data_nascimento"),
		Address:   firstString(raw, "address", "Endereco", "endereco", "Logradouro"),
		City:      firstString(raw, "city", "Cidade", "cidade"),
		State:     firstString(raw, "state", "Estado", "UF", "uf"),
		ZipCode:   firstString(raw, "zip_code", "CEP", "cep"),
		Source:    SourceUpstream,
	}
}
