package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/pkg/coerce"
)

// Field alias tables, canonical client-side spelling first.
var (
	idKeys          = []string{"id", "payment_id", "code"}
	patientCodeKeys = []string{"patientId", "patient_id", "patient_code"}
	patientNameKeys = []string{"patientName", "patient_name", "name"}
	amountKeys      = []string{"amount", "total", "fee"}
	dateKeys        = []string{"date", "occurred_at", "paid_at", "created_at", "datetime", "start_time"}
	descriptionKeys = []string{"description", "notes", "reason"}
)

// NormalizePayment maps a decoded-JSON payload of any accepted shape into a
// Payment. Total: nil/empty input degrades to defaults, never panics.
//
// The appointment reference keeps its variant: a string value is the human
// code, a numeric value (or the appointment_id key) is the backend row id.
func NormalizePayment(row map[string]any) Payment {
	id := coerce.String(row, idKeys...)
	if id == "" {
		// Last resort; never safe for referential lookups.
		id = uuid.NewString()
	}

	date, ok := coerce.Time(row, dateKeys...)
	if !ok {
		date = time.Now()
	}

	amount := coerce.Float(row, amountKeys...)
	if amount < 0 {
		amount = 0
	}

	return Payment{
		ID:          id,
		PatientID:   coerce.String(row, patientCodeKeys...),
		PatientName: coerce.StringOr(row, "Unknown", patientNameKeys...),
		Appointment: appointmentRef(row),
		Amount:      amount,
		Currency:    coerce.StringOr(row, DefaultCurrency, "currency"),
		Method:      coerce.Enum(row, paymentMethods, MethodCash, "method", "payment_method"),
		Status:      coerce.Enum(row, paymentStatuses, StatusPaid, "status", "payment_status"),
		Date:        date,
		Description: coerce.String(row, descriptionKeys...),
	}
}

// NormalizePayments maps a list payload.
func NormalizePayments(rows []map[string]any) []Payment {
	out := make([]Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizePayment(row))
	}
	return out
}

func appointmentRef(row map[string]any) AppointmentRef {
	if v, ok := coerce.Lookup(row, "appointmentId", "appt_code", "appointment_code"); ok {
		switch t := v.(type) {
		case float64:
			return RefByID(int64(t))
		case string:
			return RefByCode(t)
		}
	}
	// appointment_id is always the numeric row id, never a code.
	if v, ok := coerce.Lookup(row, "appointment_id"); ok {
		if n := coerce.ToFloat(v); n != 0 {
			return RefByID(int64(n))
		}
	}
	return AppointmentRef{}
}
