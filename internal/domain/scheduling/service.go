// Package scheduling holds the appointment entity, its normalizer, and the
// client operations against the appointments API.
package scheduling

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

// ErrAlreadyCompleted guards the one transition the client blocks.
var ErrAlreadyCompleted = errors.New("appointment is already completed")

type Service struct {
	api *transport.Client
}

func NewService(api *transport.Client) *Service {
	return &Service{api: api}
}

// ListOptions narrows List to a calendar-date range (yyyy-mm-dd, inclusive).
type ListOptions struct {
	From string
	To   string
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]Appointment, error) {
	var ro *transport.RequestOptions
	if opts.From != "" || opts.To != "" {
		q := url.Values{}
		if opts.From != "" {
			q.Set("from", opts.From)
		}
		if opts.To != "" {
			q.Set("to", opts.To)
		}
		ro = &transport.RequestOptions{Query: q}
	}
	res, err := s.api.Do(ctx, http.MethodGet, "/api/appointments", nil, ro)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := transport.DecodeInto(res, &rows); err != nil {
		return nil, err
	}
	return NormalizeAppointments(rows), nil
}

// Unpaid searches appointments that have no payment recorded against them.
func (s *Service) Unpaid(ctx context.Context, query string) ([]Appointment, error) {
	ro := &transport.RequestOptions{Query: url.Values{"q": {query}}}
	res, err := s.api.Do(ctx, http.MethodGet, "/api/appointments/unpaid", nil, ro)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := transport.DecodeInto(res, &rows); err != nil {
		return nil, err
	}
	return NormalizeAppointments(rows), nil
}

func (s *Service) Create(ctx context.Context, req CreateAppointmentRequest) (Appointment, error) {
	if err := req.Validate(); err != nil {
		return Appointment{}, err
	}
	res, err := s.api.Do(ctx, http.MethodPost, "/api/appointments", req, nil)
	if err != nil {
		return Appointment{}, err
	}
	return decodeAppointment(res)
}

// Update sends the full record, the API's only edit shape.
func (s *Service) Update(ctx context.Context, a Appointment) (Appointment, error) {
	payload := map[string]any{
		"patientId":    a.PatientID,
		"date":         a.Date.Format(time.RFC3339),
		"duration_min": a.Duration,
		"type":         a.Type,
		"status":       a.Status,
		"notes":        a.Notes,
		"fee":          a.Fee,
	}
	res, err := s.api.Do(ctx, http.MethodPut, "/api/appointments/"+url.PathEscape(a.ID), payload, nil)
	if err != nil {
		return Appointment{}, err
	}
	return decodeAppointment(res)
}

// SetStatus issues the status-only patch.
func (s *Service) SetStatus(ctx context.Context, id, status string) (Appointment, error) {
	res, err := s.api.Do(ctx, http.MethodPatch, "/api/appointments/"+url.PathEscape(id)+"/status",
		map[string]string{"status": status}, nil)
	if err != nil {
		return Appointment{}, err
	}
	return decodeAppointment(res)
}

// Complete marks an appointment completed, refusing the no-op transition.
func (s *Service) Complete(ctx context.Context, a Appointment) (Appointment, error) {
	if !a.CanComplete() {
		return a, ErrAlreadyCompleted
	}
	return s.SetStatus(ctx, a.ID, StatusCompleted)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.api.Do(ctx, http.MethodDelete, "/api/appointments/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	_, err = transport.DecodeEnvelope(res)
	return err
}

func decodeAppointment(res *http.Response) (Appointment, error) {
	var row map[string]any
	if err := transport.DecodeInto(res, &row); err != nil {
		return Appointment{}, err
	}
	return NormalizeAppointment(row), nil
}
