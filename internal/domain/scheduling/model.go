package scheduling

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Appointment type values.
const (
	TypeConsultation = "consultation"
	TypeFollowUp     = "follow-up"
	TypeCheckup      = "checkup"
	TypeUrgent       = "urgent"
)

// Appointment status values. Transitions run scheduled → completed/cancelled/
// no-show; the only transition the client blocks is completing an already
// completed appointment.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

var (
	appointmentTypes    = []string{TypeConsultation, TypeFollowUp, TypeCheckup, TypeUrgent}
	appointmentStatuses = []string{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}
)

// Appointment is the normalized client-side appointment. Date is the single
// source of truth for both calendar date and clock time; the display string
// the old UI tracked separately is derived via ClockTime.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName"`
	Date        time.Time `json:"date"`
	Duration    int       `json:"duration"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	Fee         float64   `json:"fee"`
}

// ClockTime renders the time-of-day as HH:mm for display.
func (a Appointment) ClockTime() string {
	return a.Date.Format("15:04")
}

// CanComplete reports whether the Complete action is available.
func (a Appointment) CanComplete() bool {
	return a.Status != StatusCompleted
}

// CreateAppointmentRequest is the payload for scheduling a new appointment.
type CreateAppointmentRequest struct {
	PatientID   string    `json:"patientId"`
	Date        time.Time `json:"date"`
	DurationMin int       `json:"duration_min"`
	Type        string    `json:"type,omitempty"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Fee         float64   `json:"fee"`
}

func (r CreateAppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required),
		validation.Field(&r.Date, validation.Required),
		validation.Field(&r.DurationMin, validation.Min(1)),
		validation.Field(&r.Type, validation.In(toAnySlice(appointmentTypes)...)),
		validation.Field(&r.Status, validation.In(toAnySlice(appointmentStatuses)...)),
		validation.Field(&r.Fee, validation.Min(0.0)),
	)
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
