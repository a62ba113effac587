package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/pkg/coerce"
)

// Field alias tables. The backend does not commit to one naming convention,
// so each target field lists every spelling observed in the wild, canonical
// client-side name first (which keeps normalization idempotent).
var (
	idKeys          = []string{"id", "appointment_id", "appt_code", "code"}
	patientCodeKeys = []string{"patientId", "patient_id", "patient_code"}
	patientNameKeys = []string{"patientName", "patient_name"}
	dateKeys        = []string{"date", "start", "start_time", "start_at"}
	clockKeys       = []string{"time", "start_time_str", "time_str"}
	durationKeys    = []string{"duration", "duration_min"}
	notesKeys       = []string{"notes", "reason"}
	feeKeys         = []string{"fee", "amount"}
)

// NormalizeAppointment maps a decoded-JSON payload of any accepted shape into
// an Appointment. It is total: nil or empty input yields a defaulted entity,
// unrecognized enum members degrade to their safe defaults, and it never
// panics on well-formed JSON.
func NormalizeAppointment(row map[string]any) Appointment {
	date, ok := coerce.Time(row, dateKeys...)
	if !ok {
		date = time.Now()
	}
	// A separately-sent clock string wins over the timestamp's time-of-day;
	// after this point Date is the only representation.
	if hh, mm, ok := parseClock(coerce.String(row, clockKeys...)); ok {
		date = time.Date(date.Year(), date.Month(), date.Day(), hh, mm, 0, 0, date.Location())
	}

	id := coerce.String(row, idKeys...)
	if id == "" {
		id = uuid.NewString()
	}

	name := coerce.String(row, patientNameKeys...)
	if name == "" {
		if patient, ok := row["patient"].(map[string]any); ok {
			name = coerce.String(patient, "name", "full_name")
		}
	}

	fee := coerce.Float(row, feeKeys...)
	if fee < 0 {
		fee = 0
	}

	return Appointment{
		ID:          id,
		PatientID:   coerce.String(row, patientCodeKeys...),
		PatientName: name,
		Date:        date,
		Duration:    coerce.IntOr(row, 30, durationKeys...),
		Type:        coerce.Enum(row, appointmentTypes, TypeConsultation, "type"),
		Status:      coerce.Enum(row, appointmentStatuses, StatusScheduled, "status"),
		Notes:       coerce.String(row, notesKeys...),
		Fee:         fee,
	}
}

// NormalizeAppointments maps a list payload, skipping non-object rows.
func NormalizeAppointments(rows []map[string]any) []Appointment {
	out := make([]Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizeAppointment(row))
	}
	return out
}

func parseClock(s string) (hh, mm int, ok bool) {
	if len(s) < 4 {
		return 0, 0, false
	}
	colon := -1
	for i, r := range s {
		if r == ':' {
			colon = i
			break
		}
	}
	if colon <= 0 || colon >= len(s)-1 {
		return 0, 0, false
	}
	for _, r := range s[:colon] {
		if r < '0' || r > '9' {
			return 0, 0, false
		}
		hh = hh*10 + int(r-'0')
	}
	rest := s[colon+1:]
	if len(rest) > 2 {
		rest = rest[:2]
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, 0, false
		}
		mm = mm*10 + int(r-'0')
	}
	if hh > 23 || mm > 59 {
		return 0, 0, false
	}
	return hh, mm, true
}
