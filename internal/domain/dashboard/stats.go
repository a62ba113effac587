// Package dashboard derives the practice overview figures from already
// normalized appointments and payments. All pure; the caller fetches.
package dashboard

import (
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
)

// Stats is the figure set the overview screen renders.
type Stats struct {
	PatientsToday     int     `json:"patientsToday"`
	TotalAppointments int     `json:"totalAppointments"`
	RevenueToday      float64 `json:"revenueToday"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AveragePayment    float64 `json:"averagePayment"`
	MonthlyRevenue    float64 `json:"monthlyRevenue"`
}

// Compute aggregates the day's figures as of now. Revenue counts paid
// payments only; refunded, pending, and failed ones contribute nothing.
// PatientsToday counts distinct patients with an appointment on now's
// calendar date, in now's location.
func Compute(appts []scheduling.Appointment, payments []billing.Payment, now time.Time) Stats {
	var s Stats
	s.TotalAppointments = len(appts)

	seen := make(map[string]struct{})
	for _, a := range appts {
		if !sameDay(a.Date, now) {
			continue
		}
		key := a.PatientID
		if key == "" {
			key = a.ID
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
		}
	}
	s.PatientsToday = len(seen)

	paid := 0
	for _, p := range payments {
		if p.Status != billing.StatusPaid {
			continue
		}
		paid++
		s.TotalRevenue += p.Amount
		if sameDay(p.Date, now) {
			s.RevenueToday += p.Amount
		}
		if p.Date.Year() == now.Year() && p.Date.Month() == now.Month() {
			s.MonthlyRevenue += p.Amount
		}
	}
	if paid > 0 {
		s.AveragePayment = s.TotalRevenue / float64(paid)
	}
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
