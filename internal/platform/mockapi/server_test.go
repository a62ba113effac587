package mockapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/auth"
	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/mockapi"
	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

type clients struct {
	auth     *auth.Service
	patients *identity.Service
	appts    *scheduling.Service
	payments *billing.Service
}

func newClients(t *testing.T, opts mockapi.Options) clients {
	t.Helper()
	srv := httptest.NewServer(mockapi.New(opts).Handler())
	t.Cleanup(srv.Close)
	api, err := transport.New(transport.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	return clients{
		auth:     auth.NewService(api),
		patients: identity.NewService(api),
		appts:    scheduling.NewService(api),
		payments: billing.NewService(api),
	}
}

func login(t *testing.T, c clients) auth.User {
	t.Helper()
	u, err := c.auth.Login(context.Background(), auth.LoginRequest{Email: "doctor@clinic.lk", Password: "doctor"})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestLoginMeLogout(t *testing.T) {
	ctx := context.Background()
	c := newClients(t, mockapi.Options{Logger: zerolog.Nop()})

	if _, err := c.auth.Me(ctx); err == nil {
		t.Fatal("Me before login should fail")
	}

	u := login(t, c)
	if u.Name != "Dr. A. Silva" || u.Role != auth.RoleDoctor {
		t.Errorf("login user: %+v", u)
	}

	me, err := c.auth.Me(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if me.Email != "doctor@clinic.lk" {
		t.Errorf("me: %+v", me)
	}

	if err := c.auth.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.auth.Me(ctx); err == nil {
		t.Fatal("Me after logout should fail")
	}
}

func TestBadCredentials(t *testing.T) {
	c := newClients(t, mockapi.Options{Logger: zerolog.Nop()})
	_, err := c.auth.Login(context.Background(), auth.LoginRequest{Email: "doctor@clinic.lk", Password: "wrong"})
	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
}

func TestPatientLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newClients(t, mockapi.Options{Logger: zerolog.Nop()})
	login(t, c)

	created, err := c.patients.Create(ctx, identity.CreatePatientRequest{
		Name: "Jane Perera", Email: "jane@example.com", DOB: "1990-05-01", Gender: "female", BloodType: "O+",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.PatientID != "PAT-000001" {
		t.Errorf("patient code = %q", created.PatientID)
	}
	if created.Name != "Jane Perera" || created.Gender != identity.GenderFemale {
		t.Errorf("created: %+v", created)
	}
	if created.DOB == nil || created.Age == 0 {
		t.Errorf("age should derive from dob: %+v", created)
	}

	created.Phone = "+94 77 999 0000"
	updated, err := c.patients.Update(ctx, created)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Phone != "+94 77 999 0000" {
		t.Errorf("updated phone = %q", updated.Phone)
	}

	list, err := c.patients.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list len = %d", len(list))
	}

	if err := c.patients.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	list, err = c.patients.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("list after delete = %d", len(list))
	}
}

func TestAppointmentAndPaymentFlow(t *testing.T) {
	ctx := context.Background()
	c := newClients(t, mockapi.Options{Logger: zerolog.Nop()})
	login(t, c)

	p, err := c.patients.Create(ctx, identity.CreatePatientRequest{Name: "Sam Fernando", Email: "sam@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	when := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	appt, err := c.appts.Create(ctx, scheduling.CreateAppointmentRequest{
		PatientID: p.PatientID, Date: when, DurationMin: 45,
		Type: scheduling.TypeFollowUp, Notes: "post-op review", Fee: 2500,
	})
	if err != nil {
		t.Fatal(err)
	}
	if appt.ID != "APT-000001" || appt.Status != scheduling.StatusScheduled {
		t.Errorf("created appointment: %+v", appt)
	}
	if appt.PatientName != "Sam Fernando" {
		t.Errorf("patient name should be joined in: %+v", appt)
	}

	// Unfunded until a payment lands against it.
	unpaid, err := c.appts.Unpaid(ctx, "sam")
	if err != nil {
		t.Fatal(err)
	}
	if len(unpaid) != 1 || unpaid[0].ID != appt.ID {
		t.Fatalf("unpaid: %+v", unpaid)
	}
	if unpaid, _ := c.appts.Unpaid(ctx, "nobody"); len(unpaid) != 0 {
		t.Errorf("query miss should return empty: %+v", unpaid)
	}

	appt, err = c.appts.Complete(ctx, appt)
	if err != nil {
		t.Fatal(err)
	}
	if appt.Status != scheduling.StatusCompleted {
		t.Errorf("status = %q", appt.Status)
	}
	if _, err := c.appts.Complete(ctx, appt); !errors.Is(err, scheduling.ErrAlreadyCompleted) {
		t.Errorf("double complete err = %v", err)
	}

	pay, err := c.payments.Record(ctx, billing.RecordPaymentRequest{
		PatientCode: p.PatientID, Amount: 2500, Method: billing.MethodCard,
		TxnRef: "TXN-88", ApptCode: appt.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if pay.Amount != 2500 || pay.Status != billing.StatusPaid || pay.Currency != billing.DefaultCurrency {
		t.Errorf("recorded payment: %+v", pay)
	}
	if code, ok := pay.Appointment.Code(); !ok || code != appt.ID {
		t.Errorf("appointment ref: %+v", pay.Appointment)
	}

	// The settled appointment leaves the unpaid list.
	unpaid, err = c.appts.Unpaid(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(unpaid) != 0 {
		t.Errorf("unpaid after payment: %+v", unpaid)
	}

	refunded, err := c.payments.Refund(ctx, pay)
	if err != nil {
		t.Fatal(err)
	}
	if refunded.Status != billing.StatusRefunded {
		t.Errorf("refund status = %q", refunded.Status)
	}
	if _, err := c.payments.Refund(ctx, refunded); !errors.Is(err, billing.ErrNotRefundable) {
		t.Errorf("double refund err = %v", err)
	}
}

func TestSessionExpiryIsInvisible(t *testing.T) {
	ctx := context.Background()
	c := newClients(t, mockapi.Options{Logger: zerolog.Nop(), SessionTTL: time.Second})
	login(t, c)

	// Outlive the sid; the refresh cookie stays valid.
	time.Sleep(2 * time.Second)

	// A read refreshes transparently.
	if _, err := c.auth.Me(ctx); err != nil {
		t.Fatalf("Me after expiry: %v", err)
	}

	// A mutation after another expiry must pick up the rotated CSRF cookie.
	time.Sleep(2 * time.Second)
	p, err := c.patients.Create(ctx, identity.CreatePatientRequest{Name: "Late Arrival", Email: "late@example.com"})
	if err != nil {
		t.Fatalf("Create after expiry: %v", err)
	}
	if p.Name != "Late Arrival" {
		t.Errorf("created: %+v", p)
	}
}

func TestSeededData(t *testing.T) {
	ctx := context.Background()
	c := newClients(t, mockapi.Options{Logger: zerolog.Nop(), Seed: true})
	login(t, c)

	patients, err := c.patients.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(patients) != 2 {
		t.Fatalf("seeded patients = %d", len(patients))
	}

	appts, err := c.appts.List(ctx, scheduling.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 2 {
		t.Fatalf("seeded appointments = %d", len(appts))
	}

	payments, err := c.payments.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("seeded payments = %d", len(payments))
	}
	if payments[0].Amount != 1500 {
		t.Errorf("seeded amount = %v (string amounts must coerce)", payments[0].Amount)
	}
}
