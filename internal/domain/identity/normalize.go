package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/pkg/coerce"
)

// Field alias tables, canonical client-side spelling first.
var (
	internalIDKeys  = []string{"id", "patient_id"}
	patientCodeKeys = []string{"patientId", "patient_code", "patientCode", "code"}
	nameKeys        = []string{"name", "full_name"}
	phoneKeys       = []string{"phone", "contact"}
	contactKeys     = []string{"contact", "phone"}
	dobKeys         = []string{"dob", "date_of_birth", "dateOfBirth"}
	bloodTypeKeys   = []string{"bloodType", "blood_type"}
	medicalInfoKeys = []string{"medicalInfo", "medical_info"}
	createdAtKeys   = []string{"createdAt", "created_at"}
	lastVisitKeys   = []string{"lastVisit", "last_visit"}
)

// NormalizePatient maps a decoded-JSON payload of any accepted shape into a
// Patient. Total: nil/empty input degrades to defaults, never panics.
//
// Age is derived from the date of birth when one parses (whole 365.25-day
// years elapsed); only without a usable DOB does the server-supplied age
// count, and zero is the floor.
func NormalizePatient(row map[string]any) Patient {
	dob := coerce.TimePtr(row, dobKeys...)

	age := 0
	switch {
	case dob != nil:
		age = coerce.AgeAt(*dob, time.Now())
	default:
		age = coerce.IntOr(row, 0, "age")
	}

	code := coerce.String(row, patientCodeKeys...)
	id := coerce.String(row, internalIDKeys...)
	if id == "" {
		id = code
	}
	if id == "" {
		// Last resort; never safe for referential lookups.
		id = uuid.NewString()
	}

	createdAt, ok := coerce.Time(row, createdAtKeys...)
	if !ok {
		createdAt = time.Now()
	}

	p := Patient{
		ID:          id,
		PatientID:   code,
		Name:        coerce.String(row, nameKeys...),
		Email:       coerce.String(row, "email"),
		Phone:       coerce.String(row, phoneKeys...),
		Contact:     coerce.String(row, contactKeys...),
		DOB:         dob,
		Age:         age,
		Gender:      coerce.Enum(row, genders, GenderOther, "gender"),
		BloodType:   coerce.String(row, bloodTypeKeys...),
		Allergies:   coerce.String(row, "allergies"),
		MedicalInfo: coerce.String(row, medicalInfoKeys...),
		CreatedAt:   createdAt,
		LastVisit:   coerce.TimePtr(row, lastVisitKeys...),
	}

	if rows, ok := objectRows(row, "appointments"); ok {
		p.Appointments = scheduling.NormalizeAppointments(rows)
	}
	if rows, ok := objectRows(row, "notes"); ok {
		notes := make([]Note, 0, len(rows))
		for _, n := range rows {
			notes = append(notes, Note{
				ID:        int64(coerce.Float(n, "id", "note_id")),
				Title:     coerce.String(n, "title"),
				Content:   coerce.String(n, "content", "body"),
				CreatedAt: coerce.String(n, "createdAt", "created_at"),
				Author:    coerce.String(n, "author", "created_by"),
			})
		}
		p.Notes = notes
	}

	return p
}

// NormalizePatients maps a list payload.
func NormalizePatients(rows []map[string]any) []Patient {
	out := make([]Patient, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizePatient(row))
	}
	return out
}

func objectRows(row map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := row[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}
