package billing

import (
	"encoding/json"
	"strconv"
)

type refKind int

const (
	refNone refKind = iota
	refCode
	refID
)

// AppointmentRef is the appointment a payment settles. The backend sends
// either the human code (APT-000042) or the numeric row id depending on the
// endpoint, and the two must not be conflated, so the variant is kept.
type AppointmentRef struct {
	kind refKind
	code string
	id   int64
}

// RefByCode references an appointment by its human code.
func RefByCode(code string) AppointmentRef {
	if code == "" {
		return AppointmentRef{}
	}
	return AppointmentRef{kind: refCode, code: code}
}

// RefByID references an appointment by its numeric row id.
func RefByID(id int64) AppointmentRef {
	if id == 0 {
		return AppointmentRef{}
	}
	return AppointmentRef{kind: refID, id: id}
}

// IsZero reports whether the payment references no appointment.
func (r AppointmentRef) IsZero() bool { return r.kind == refNone }

// Code returns the human code when that variant is held.
func (r AppointmentRef) Code() (string, bool) {
	return r.code, r.kind == refCode
}

// NumericID returns the row id when that variant is held.
func (r AppointmentRef) NumericID() (int64, bool) {
	return r.id, r.kind == refID
}

// String renders whichever reference is held, or "" for none.
func (r AppointmentRef) String() string {
	switch r.kind {
	case refCode:
		return r.code
	case refID:
		return strconv.FormatInt(r.id, 10)
	default:
		return ""
	}
}

// MarshalJSON preserves the variant: codes stay strings, row ids stay
// numbers, and an empty reference is null.
func (r AppointmentRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case refCode:
		return json.Marshal(r.code)
	case refID:
		return json.Marshal(r.id)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string code, a numeric id, or null.
func (r *AppointmentRef) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*r = RefByCode(t)
	case float64:
		*r = RefByID(int64(t))
	default:
		*r = AppointmentRef{}
	}
	return nil
}
