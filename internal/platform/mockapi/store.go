package mockapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Records are stored in the backend's own loose shape, snake_case keys and
// stringly-typed amounts included, so the client exercises the same payloads
// the real API produces.

type patientRecord struct {
	ID        int64
	Code      string
	Name      string
	Email     string
	Phone     string
	DOB       string
	Gender    string
	BloodType string
	Allergies string
	CreatedAt time.Time
	LastVisit *time.Time
}

type appointmentRecord struct {
	ID          int64
	Code        string
	PatientCode string
	Start       time.Time
	DurationMin int
	Type        string
	Status      string
	Reason      string
	Fee         float64
}

type paymentRecord struct {
	ID          int64
	PatientCode string
	ApptCode    string
	Amount      float64
	Currency    string
	Method      string
	Status      string
	PaidAt      time.Time
	Description string
	TxnRef      string
}

type store struct {
	mu           sync.Mutex
	patients     map[int64]*patientRecord
	appointments map[int64]*appointmentRecord
	payments     map[int64]*paymentRecord
	nextPatient  int64
	nextAppt     int64
	nextPayment  int64
}

func newStore() *store {
	return &store{
		patients:     make(map[int64]*patientRecord),
		appointments: make(map[int64]*appointmentRecord),
		payments:     make(map[int64]*paymentRecord),
		nextPatient:  1,
		nextAppt:     1,
		nextPayment:  1,
	}
}

// seed loads a small demo practice so a freshly started server has data.
func (s *store) seed(now time.Time) {
	jane := s.createPatient(&patientRecord{
		Name: "Jane Perera", Email: "jane@example.com", Phone: "+94 77 111 2222",
		DOB: "1990-05-01", Gender: "female", BloodType: "O+",
	})
	sam := s.createPatient(&patientRecord{
		Name: "Sam Fernando", Email: "sam@example.com", Phone: "+94 71 333 4444",
		DOB: "1984-11-12", Gender: "male",
	})

	a1 := s.createAppointment(&appointmentRecord{
		PatientCode: jane.Code, Start: now.Add(2 * time.Hour), DurationMin: 30,
		Type: "consultation", Status: "scheduled", Reason: "toothache", Fee: 1500,
	})
	s.createAppointment(&appointmentRecord{
		PatientCode: sam.Code, Start: now.Add(-24 * time.Hour), DurationMin: 45,
		Type: "follow-up", Status: "completed", Reason: "post-op review", Fee: 2500,
	})

	s.createPayment(&paymentRecord{
		PatientCode: jane.Code, ApptCode: a1.Code, Amount: 1500,
		Currency: "LKR", Method: "cash", Status: "paid", PaidAt: now.Add(-time.Hour),
	})
}

func (s *store) createPatient(p *patientRecord) *patientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextPatient
	s.nextPatient++
	p.Code = fmt.Sprintf("PAT-%06d", p.ID)
	if p.Gender == "" {
		p.Gender = "other"
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.patients[p.ID] = p
	return p
}

func (s *store) listPatients() []*patientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*patientRecord, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// findPatient resolves a path id, which callers may send as the numeric row
// id or the human code.
func (s *store) findPatient(id string) *patientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		if p, ok := s.patients[n]; ok {
			return p
		}
	}
	for _, p := range s.patients {
		if p.Code == id {
			return p
		}
	}
	return nil
}

func (s *store) deletePatient(id string) bool {
	p := s.findPatient(id)
	if p == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patients, p.ID)
	return true
}

func (s *store) createAppointment(a *appointmentRecord) *appointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextAppt
	s.nextAppt++
	a.Code = fmt.Sprintf("APT-%06d", a.ID)
	if a.Status == "" {
		a.Status = "scheduled"
	}
	if a.Type == "" {
		a.Type = "consultation"
	}
	if a.DurationMin <= 0 {
		a.DurationMin = 30
	}
	s.appointments[a.ID] = a
	return a
}

func (s *store) listAppointments(from, to time.Time) []*appointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*appointmentRecord, 0, len(s.appointments))
	for _, a := range s.appointments {
		if !from.IsZero() && a.Start.Before(from) {
			continue
		}
		if !to.IsZero() && a.Start.After(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) findAppointment(id string) *appointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		if a, ok := s.appointments[n]; ok {
			return a
		}
	}
	for _, a := range s.appointments {
		if a.Code == id {
			return a
		}
	}
	return nil
}

func (s *store) deleteAppointment(id string) bool {
	a := s.findAppointment(id)
	if a == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.appointments, a.ID)
	return true
}

// unpaidAppointments returns appointments with no payment recorded against
// them, optionally filtered by a case-insensitive patient code or name match.
func (s *store) unpaidAppointments(query string) []*appointmentRecord {
	s.mu.Lock()
	paidFor := make(map[string]struct{}, len(s.payments))
	for _, p := range s.payments {
		if p.ApptCode != "" && p.Status != "refunded" && p.Status != "failed" {
			paidFor[p.ApptCode] = struct{}{}
		}
	}
	names := make(map[string]string, len(s.patients))
	for _, p := range s.patients {
		names[p.Code] = p.Name
	}
	s.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	var out []*appointmentRecord
	for _, a := range s.listAppointments(time.Time{}, time.Time{}) {
		if _, paid := paidFor[a.Code]; paid {
			continue
		}
		if query != "" {
			name := strings.ToLower(names[a.PatientCode])
			code := strings.ToLower(a.PatientCode)
			if !strings.Contains(name, query) && !strings.Contains(code, query) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func (s *store) createPayment(p *paymentRecord) *paymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextPayment
	s.nextPayment++
	if p.Currency == "" {
		p.Currency = "LKR"
	}
	if p.Method == "" {
		p.Method = "cash"
	}
	if p.Status == "" {
		p.Status = "paid"
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	s.payments[p.ID] = p
	return p
}

func (s *store) listPayments() []*paymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*paymentRecord, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) findPayment(id string) *paymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil
	}
	return s.payments[n]
}

func (s *store) deletePayment(id string) bool {
	p := s.findPayment(id)
	if p == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, p.ID)
	return true
}

func (s *store) patientName(code string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.Code == code {
			return p.Name
		}
	}
	return ""
}
