package dashboard

import (
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	today := now.Add(-2 * time.Hour)
	yesterday := now.AddDate(0, 0, -1)
	lastMonth := now.AddDate(0, -1, 0)

	appts := []scheduling.Appointment{
		{ID: "a1", PatientID: "PAT-000001", Date: today},
		{ID: "a2", PatientID: "PAT-000001", Date: today}, // same patient, counted once
		{ID: "a3", PatientID: "PAT-000002", Date: today},
		{ID: "a4", PatientID: "PAT-000003", Date: yesterday},
	}
	payments := []billing.Payment{
		{ID: "p1", Amount: 1000, Status: billing.StatusPaid, Date: today},
		{ID: "p2", Amount: 500, Status: billing.StatusPaid, Date: yesterday},
		{ID: "p3", Amount: 2500, Status: billing.StatusPaid, Date: lastMonth},
		{ID: "p4", Amount: 9999, Status: billing.StatusRefunded, Date: today},
		{ID: "p5", Amount: 9999, Status: billing.StatusPending, Date: today},
	}

	s := Compute(appts, payments, now)

	if s.PatientsToday != 2 {
		t.Errorf("PatientsToday = %d, want 2", s.PatientsToday)
	}
	if s.TotalAppointments != 4 {
		t.Errorf("TotalAppointments = %d", s.TotalAppointments)
	}
	if s.RevenueToday != 1000 {
		t.Errorf("RevenueToday = %v, want 1000 (paid only)", s.RevenueToday)
	}
	if s.TotalRevenue != 4000 {
		t.Errorf("TotalRevenue = %v, want 4000", s.TotalRevenue)
	}
	if s.MonthlyRevenue != 1500 {
		t.Errorf("MonthlyRevenue = %v, want 1500", s.MonthlyRevenue)
	}
	if want := 4000.0 / 3; s.AveragePayment != want {
		t.Errorf("AveragePayment = %v, want %v", s.AveragePayment, want)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	s := Compute(nil, nil, time.Now())
	if s != (Stats{}) {
		t.Errorf("empty inputs should yield zero stats: %+v", s)
	}
}

func TestComputeStatsAnonymousAppointments(t *testing.T) {
	now := time.Now()
	appts := []scheduling.Appointment{
		{ID: "a1", Date: now},
		{ID: "a2", Date: now},
	}
	s := Compute(appts, nil, now)
	if s.PatientsToday != 2 {
		t.Errorf("appointments without a patient code should count individually: %d", s.PatientsToday)
	}
}
