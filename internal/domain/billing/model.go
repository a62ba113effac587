// Package billing holds the payment entity, its normalizer, and the client
// operations against the payments API.
package billing

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultCurrency applies when a payload omits the currency entirely.
const DefaultCurrency = "LKR"

// Payment methods; anything unrecognized normalizes to MethodCash.
const (
	MethodCash         = "cash"
	MethodCard         = "card"
	MethodOnline       = "online"
	MethodBankTransfer = "bank-transfer"
)

// Payment statuses; anything unrecognized normalizes to StatusPaid.
const (
	StatusPaid     = "paid"
	StatusPending  = "pending"
	StatusFailed   = "failed"
	StatusRefunded = "refunded"
)

var (
	paymentMethods  = []string{MethodCash, MethodCard, MethodOnline, MethodBankTransfer}
	paymentStatuses = []string{StatusPaid, StatusPending, StatusFailed, StatusRefunded}
)

// Payment is the normalized client-side payment record. Appointment carries
// whichever reference the backend sent, a human code or a numeric row id.
type Payment struct {
	ID          string         `json:"id"`
	PatientID   string         `json:"patientId"`
	PatientName string         `json:"patientName"`
	Appointment AppointmentRef `json:"appointmentId,omitempty"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Method      string         `json:"method"`
	Status      string         `json:"status"`
	Date        time.Time      `json:"date"`
	Description string         `json:"description,omitempty"`
}

// CanRefund reports whether the payment is in a state the API will refund.
func (p Payment) CanRefund() bool {
	return p.Status == StatusPaid
}

// RecordPaymentRequest is the payload for recording a payment against a
// patient, optionally tied to an appointment by code or numeric id.
type RecordPaymentRequest struct {
	PatientCode   string  `json:"patient_code"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method,omitempty"`
	Status        string  `json:"status,omitempty"`
	OccurredAt    string  `json:"occurred_at,omitempty"` // RFC 3339
	Description   string  `json:"description,omitempty"`
	ApptCode      string  `json:"appt_code,omitempty"`
	AppointmentID int64   `json:"appointment_id,omitempty"`
	TxnRef        string  `json:"txn_ref,omitempty"`
}

func (r RecordPaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientCode, validation.Required),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&r.Method, validation.In(MethodCash, MethodCard, MethodOnline, MethodBankTransfer)),
		validation.Field(&r.Status, validation.In(StatusPaid, StatusPending, StatusFailed, StatusRefunded)),
		validation.Field(&r.TxnRef, validation.Required.When(r.Method == MethodCard).Error("txn_ref is required for card payments")),
	)
}
