// Package identity holds the patient entity, its normalizer, and the client
// operations against the patients API.
package identity

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

type Service struct {
	api *transport.Client
}

func NewService(api *transport.Client) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	res, err := s.api.Do(ctx, http.MethodGet, "/api/patients", nil, nil)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := transport.DecodeInto(res, &rows); err != nil {
		return nil, err
	}
	return NormalizePatients(rows), nil
}

func (s *Service) Create(ctx context.Context, req CreatePatientRequest) (Patient, error) {
	if err := req.Validate(); err != nil {
		return Patient{}, err
	}
	res, err := s.api.Do(ctx, http.MethodPost, "/api/patients", req, nil)
	if err != nil {
		return Patient{}, err
	}
	return decodePatient(res)
}

// Update sends the full record, the API's only edit shape.
func (s *Service) Update(ctx context.Context, p Patient) (Patient, error) {
	payload := map[string]any{
		"patientId":  p.PatientID,
		"name":       p.Name,
		"email":      p.Email,
		"phone":      p.Phone,
		"contact":    p.Contact,
		"gender":     p.Gender,
		"blood_type": p.BloodType,
		"allergies":  p.Allergies,
	}
	if p.DOB != nil {
		payload["dob"] = p.DOB.Format("2006-01-02")
	}
	if p.LastVisit != nil {
		payload["last_visit"] = p.LastVisit.Format(time.RFC3339)
	}
	res, err := s.api.Do(ctx, http.MethodPut, "/api/patients/"+url.PathEscape(p.ID), payload, nil)
	if err != nil {
		return Patient{}, err
	}
	return decodePatient(res)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.api.Do(ctx, http.MethodDelete, "/api/patients/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	_, err = transport.DecodeEnvelope(res)
	return err
}

func decodePatient(res *http.Response) (Patient, error) {
	var row map[string]any
	if err := transport.DecodeInto(res, &row); err != nil {
		return Patient{}, err
	}
	return NormalizePatient(row), nil
}
