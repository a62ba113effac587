package billing

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

// ErrNotRefundable guards the one transition the client blocks.
var ErrNotRefundable = errors.New("only paid payments can be refunded")

type Service struct {
	api *transport.Client
}

func NewService(api *transport.Client) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]Payment, error) {
	res, err := s.api.Do(ctx, http.MethodGet, "/api/payments", nil, nil)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := transport.DecodeInto(res, &rows); err != nil {
		return nil, err
	}
	return NormalizePayments(rows), nil
}

func (s *Service) Record(ctx context.Context, req RecordPaymentRequest) (Payment, error) {
	if err := req.Validate(); err != nil {
		return Payment{}, err
	}
	res, err := s.api.Do(ctx, http.MethodPost, "/api/payments", req, nil)
	if err != nil {
		return Payment{}, err
	}
	return decodePayment(res)
}

// Update sends the full record, the API's only edit shape. The appointment
// reference round-trips through its JSON form, so the variant is preserved.
func (s *Service) Update(ctx context.Context, p Payment) (Payment, error) {
	payload := map[string]any{
		"patientId":   p.PatientID,
		"amount":      p.Amount,
		"currency":    p.Currency,
		"method":      p.Method,
		"status":      p.Status,
		"date":        p.Date,
		"description": p.Description,
	}
	if !p.Appointment.IsZero() {
		payload["appointmentId"] = p.Appointment
	}
	res, err := s.api.Do(ctx, http.MethodPut, "/api/payments/"+url.PathEscape(p.ID), payload, nil)
	if err != nil {
		return Payment{}, err
	}
	return decodePayment(res)
}

// SetStatus issues the status-only patch.
func (s *Service) SetStatus(ctx context.Context, id, status string) (Payment, error) {
	res, err := s.api.Do(ctx, http.MethodPatch, "/api/payments/"+url.PathEscape(id)+"/status",
		map[string]string{"status": status}, nil)
	if err != nil {
		return Payment{}, err
	}
	return decodePayment(res)
}

// Refund marks a payment refunded, refusing payments not in the paid state.
func (s *Service) Refund(ctx context.Context, p Payment) (Payment, error) {
	if !p.CanRefund() {
		return p, ErrNotRefundable
	}
	return s.SetStatus(ctx, p.ID, StatusRefunded)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.api.Do(ctx, http.MethodDelete, "/api/payments/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	_, err = transport.DecodeEnvelope(res)
	return err
}

func decodePayment(res *http.Response) (Payment, error) {
	var row map[string]any
	if err := transport.DecodeInto(res, &row); err != nil {
		return Payment{}, err
	}
	return NormalizePayment(row), nil
}
