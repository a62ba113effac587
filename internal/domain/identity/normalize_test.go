package identity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/pkg/coerce"
)

func TestNormalizePatientSnakeCase(t *testing.T) {
	p := NormalizePatient(map[string]any{
		"id":           float64(12),
		"patient_code": "PAT-000007",
		"full_name":    "Jane Doe",
		"email":        "jane@example.com",
		"contact":      "+94 77 123 4567",
		"dob":          "1990-05-01",
		"gender":       "Female",
		"blood_type":   "O+",
		"created_at":   "2024-11-20T08:00:00Z",
		"last_visit":   "2025-01-05T09:30:00Z",
	})

	if p.ID != "12" {
		t.Errorf("id = %q", p.ID)
	}
	if p.PatientID != "PAT-000007" {
		t.Errorf("patientId = %q", p.PatientID)
	}
	if p.Name != "Jane Doe" || p.Email != "jane@example.com" {
		t.Errorf("name/email: %+v", p)
	}
	// phone and contact are aliases for the same upstream field.
	if p.Phone != "+94 77 123 4567" || p.Contact != "+94 77 123 4567" {
		t.Errorf("phone/contact: %q %q", p.Phone, p.Contact)
	}
	if p.Gender != GenderFemale || p.BloodType != "O+" {
		t.Errorf("gender/bloodType: %+v", p)
	}
	if p.DOB == nil || p.DOB.Year() != 1990 {
		t.Fatalf("dob = %v", p.DOB)
	}

	wantAge := coerce.AgeAt(*p.DOB, time.Now())
	if p.Age != wantAge {
		t.Errorf("age = %d, want %d (computed from dob)", p.Age, wantAge)
	}
	if p.LastVisit == nil || p.LastVisit.Day() != 5 {
		t.Errorf("lastVisit = %v", p.LastVisit)
	}
}

func TestNormalizePatientAgeFallbacks(t *testing.T) {
	// No DOB: the server-supplied age is used.
	p := NormalizePatient(map[string]any{"id": "1", "age": float64(52)})
	if p.Age != 52 {
		t.Errorf("server age fallback = %d", p.Age)
	}
	// DOB wins over a server age that disagrees.
	p = NormalizePatient(map[string]any{"id": "1", "dob": "2000-01-01", "age": float64(99)})
	want := coerce.AgeAt(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Now())
	if p.Age != want {
		t.Errorf("age = %d, want %d", p.Age, want)
	}
	// Nothing usable: zero.
	if p := NormalizePatient(map[string]any{"id": "1", "dob": "not-a-date"}); p.Age != 0 {
		t.Errorf("unparseable dob age = %d", p.Age)
	}
}

func TestNormalizePatientTotality(t *testing.T) {
	for _, row := range []map[string]any{nil, {}} {
		p := NormalizePatient(row)
		if p.ID == "" {
			t.Error("id must be a non-empty string even for an empty payload")
		}
		if p.PatientID != "" || p.Name != "" || p.Email != "" {
			t.Errorf("string fields should default to empty: %+v", p)
		}
		if p.Gender != GenderOther {
			t.Errorf("gender default = %q", p.Gender)
		}
		if p.CreatedAt.IsZero() {
			t.Error("createdAt should default to now")
		}
		if p.DOB != nil || p.LastVisit != nil {
			t.Errorf("optional timestamps should stay nil: %+v", p)
		}
	}
}

func TestNormalizePatientIDFallsBackToCode(t *testing.T) {
	p := NormalizePatient(map[string]any{"patient_code": "PAT-000001"})
	if p.ID != "PAT-000001" {
		t.Errorf("id = %q, want the human code", p.ID)
	}
}

func TestNormalizePatientEmbeddedLists(t *testing.T) {
	p := NormalizePatient(map[string]any{
		"id": "1",
		"appointments": []any{
			map[string]any{"appt_code": "APT-000001", "status": "completed"},
		},
		"notes": []any{
			map[string]any{"id": float64(4), "title": "Allergy review", "created_at": "2025-01-01T00:00:00Z", "author": "Dr. Silva"},
		},
	})
	if len(p.Appointments) != 1 || p.Appointments[0].ID != "APT-000001" {
		t.Errorf("appointments: %+v", p.Appointments)
	}
	if len(p.Notes) != 1 || p.Notes[0].ID != 4 || p.Notes[0].Author != "Dr. Silva" {
		t.Errorf("notes: %+v", p.Notes)
	}
}

func TestNormalizePatientIdempotent(t *testing.T) {
	first := NormalizePatient(map[string]any{
		"id":           "12",
		"patient_code": "PAT-000007",
		"full_name":    "Jane Doe",
		"email":        "jane@example.com",
		"phone":        "071",
		"dob":          "1990-05-01",
		"gender":       "female",
		"blood_type":   "O+",
		"created_at":   "2024-11-20T08:00:00Z",
	})

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		t.Fatal(err)
	}
	second := NormalizePatient(row)

	if second.ID != first.ID || second.PatientID != first.PatientID ||
		second.Name != first.Name || second.Email != first.Email ||
		second.Phone != first.Phone || second.Contact != first.Contact ||
		second.Gender != first.Gender || second.BloodType != first.BloodType ||
		second.Age != first.Age {
		t.Errorf("re-normalization changed fields:\n first=%+v\nsecond=%+v", first, second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("createdAt drifted: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if second.DOB == nil || !second.DOB.Equal(*first.DOB) {
		t.Errorf("dob drifted: %v vs %v", first.DOB, second.DOB)
	}
}

func TestCreatePatientRequestValidation(t *testing.T) {
	ok := CreatePatientRequest{Name: "Jane", Email: "jane@example.com", DOB: "1990-05-01", Gender: "female"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
	bad := []CreatePatientRequest{
		{Email: "jane@example.com"},                       // missing name
		{Name: "Jane", Email: "not-an-email"},             // bad email
		{Name: "Jane", Email: "j@e.com", DOB: "05/01/90"}, // bad date layout
		{Name: "Jane", Email: "j@e.com", Gender: "m"},     // bad enum
	}
	for i, req := range bad {
		if err := req.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
