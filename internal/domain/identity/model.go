package identity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
)

// Gender values; anything unrecognized normalizes to GenderOther.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

var genders = []string{GenderMale, GenderFemale, GenderOther}

// Patient is the normalized client-side patient record. ID is the backend's
// opaque key; PatientID is the human-facing code (PAT-000123) that other
// entities reference.
type Patient struct {
	ID           string                   `json:"id"`
	PatientID    string                   `json:"patientId"`
	Name         string                   `json:"name"`
	Email        string                   `json:"email"`
	Phone        string                   `json:"phone"`
	Contact      string                   `json:"contact"`
	DOB          *time.Time               `json:"dob,omitempty"`
	Age          int                      `json:"age"`
	Gender       string                   `json:"gender"`
	BloodType    string                   `json:"bloodType"`
	Allergies    string                   `json:"allergies,omitempty"`
	MedicalInfo  string                   `json:"medicalInfo,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
	LastVisit    *time.Time               `json:"lastVisit,omitempty"`
	Appointments []scheduling.Appointment `json:"appointments,omitempty"`
	Notes        []Note                   `json:"notes,omitempty"`
}

// Note is a denormalized clinical note embedded in a patient record.
// CreatedAt stays the ISO string the backend sent; notes are display-only.
type Note struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"createdAt"`
	Author    string `json:"author"`
}

// CreatePatientRequest is the payload for registering a new patient.
type CreatePatientRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	DOB       string `json:"dob,omitempty"` // yyyy-mm-dd
	Gender    string `json:"gender,omitempty"`
	BloodType string `json:"blood_type,omitempty"`
	Allergies string `json:"allergies,omitempty"`
}

func (r CreatePatientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.DOB, validation.Date("2006-01-02")),
		validation.Field(&r.Gender, validation.In(GenderMale, GenderFemale, GenderOther)),
	)
}
