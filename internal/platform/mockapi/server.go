// Package mockapi is an in-memory stand-in for the practice backend. It
// speaks the same loose dialect the real API does — snake_case keys, string
// amounts, cookie sessions with a rotating CSRF token — so the client and its
// end-to-end tests run against realistic payloads without a database.
package mockapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

// Options configures a Server.
type Options struct {
	SessionSecret string
	SessionTTL    time.Duration
	Logger        zerolog.Logger
	Seed          bool
}

type Server struct {
	echo     *echo.Echo
	store    *store
	sessions *sessions
	log      zerolog.Logger
}

// demo credentials; the mock accepts nothing else.
var users = map[string]struct {
	Password string
	ID       int64
	Name     string
	Role     string
}{
	"doctor@clinic.lk": {Password: "doctor", ID: 1, Name: "Dr. A. Silva", Role: "doctor"},
	"admin@clinic.lk":  {Password: "admin", ID: 2, Name: "N. Jayawardena", Role: "admin"},
}

func New(opts Options) *Server {
	s := &Server{
		echo:     echo.New(),
		store:    newStore(),
		sessions: newSessions(opts.SessionSecret, opts.SessionTTL),
		log:      opts.Logger,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	if opts.Seed {
		s.store.seed(time.Now())
	}

	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logger(opts.Logger))
	s.echo.Use(middleware.Recovery(opts.Logger))

	s.routes()
	return s
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving on addr.
func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

func (s *Server) routes() {
	s.echo.POST("/api/auth/login", s.login)
	s.echo.POST("/api/auth/refresh", s.refresh)
	s.echo.POST("/api/auth/logout", s.logout)

	api := s.echo.Group("/api", s.sessions.Auth(), s.sessions.CSRF())
	api.GET("/me", s.me)

	api.GET("/patients", s.listPatients)
	api.POST("/patients", s.createPatient)
	api.PUT("/patients/:id", s.updatePatient)
	api.DELETE("/patients/:id", s.deletePatient)

	api.GET("/appointments", s.listAppointments)
	api.GET("/appointments/unpaid", s.unpaidAppointments)
	api.POST("/appointments", s.createAppointment)
	api.PUT("/appointments/:id", s.updateAppointment)
	api.PATCH("/appointments/:id/status", s.patchAppointmentStatus)
	api.DELETE("/appointments/:id", s.deleteAppointment)

	api.GET("/payments", s.listPayments)
	api.POST("/payments", s.createPayment)
	api.PUT("/payments/:id", s.updatePayment)
	api.PATCH("/payments/:id/status", s.patchPaymentStatus)
	api.DELETE("/payments/:id", s.deletePayment)
}

func apiError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": echo.Map{"message": msg}})
}

// auth

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	u, ok := users[req.Email]
	if !ok || u.Password != req.Password {
		return apiError(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err := s.sessions.issue(c, req.Email); err != nil {
		return apiError(c, http.StatusInternalServerError, "could not create session")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": userJSON(req.Email)})
}

func (s *Server) refresh(c echo.Context) error {
	email, ok := s.sessions.refreshEmail(c)
	if !ok {
		return apiError(c, http.StatusUnauthorized, "refresh token expired")
	}
	if err := s.sessions.issue(c, email); err != nil {
		return apiError(c, http.StatusInternalServerError, "could not refresh session")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"ok": true}})
}

func (s *Server) logout(c echo.Context) error {
	s.sessions.clear(c)
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"ok": true}})
}

func (s *Server) me(c echo.Context) error {
	email, _ := c.Get("email").(string)
	return c.JSON(http.StatusOK, userJSON(email))
}

func userJSON(email string) echo.Map {
	u := users[email]
	return echo.Map{"user_id": u.ID, "full_name": u.Name, "email": email, "role": u.Role}
}

// patients

func (s *Server) listPatients(c echo.Context) error {
	all := s.store.listPatients()
	p := pagination.FromContext(c)
	lo, hi := p.Slice(len(all))
	rows := make([]echo.Map, 0, hi-lo)
	for _, rec := range all[lo:hi] {
		rows = append(rows, patientJSON(rec))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(rows, len(all), p))
}

func (s *Server) createPatient(c echo.Context) error {
	var req struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		DOB       string `json:"dob"`
		Gender    string `json:"gender"`
		BloodType string `json:"blood_type"`
		Allergies string `json:"allergies"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Email == "" {
		return apiError(c, http.StatusUnprocessableEntity, "name and email are required")
	}
	rec := s.store.createPatient(&patientRecord{
		Name: req.Name, Email: req.Email, Phone: req.Phone, DOB: req.DOB,
		Gender: req.Gender, BloodType: req.BloodType, Allergies: req.Allergies,
	})
	return c.JSON(http.StatusCreated, echo.Map{"data": patientJSON(rec)})
}

func (s *Server) updatePatient(c echo.Context) error {
	rec := s.store.findPatient(c.Param("id"))
	if rec == nil {
		return apiError(c, http.StatusNotFound, "patient not found")
	}
	var req map[string]any
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	s.store.mu.Lock()
	if v, ok := req["name"].(string); ok && v != "" {
		rec.Name = v
	}
	if v, ok := req["email"].(string); ok && v != "" {
		rec.Email = v
	}
	if v, ok := req["phone"].(string); ok {
		rec.Phone = v
	}
	if v, ok := req["dob"].(string); ok {
		rec.DOB = v
	}
	if v, ok := req["gender"].(string); ok && v != "" {
		rec.Gender = v
	}
	if v, ok := req["blood_type"].(string); ok {
		rec.BloodType = v
	}
	if v, ok := req["allergies"].(string); ok {
		rec.Allergies = v
	}
	if v, ok := req["last_visit"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.LastVisit = &t
		}
	}
	s.store.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"data": patientJSON(rec)})
}

func (s *Server) deletePatient(c echo.Context) error {
	if !s.store.deletePatient(c.Param("id")) {
		return apiError(c, http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"ok": true}})
}

func patientJSON(p *patientRecord) echo.Map {
	m := echo.Map{
		"id":           p.ID,
		"patient_code": p.Code,
		"full_name":    p.Name,
		"email":        p.Email,
		"contact":      p.Phone,
		"dob":          p.DOB,
		"gender":       p.Gender,
		"blood_type":   p.BloodType,
		"allergies":    p.Allergies,
		"created_at":   p.CreatedAt.Format(time.RFC3339),
	}
	if p.LastVisit != nil {
		m["last_visit"] = p.LastVisit.Format(time.RFC3339)
	}
	return m
}

// appointments

func (s *Server) listAppointments(c echo.Context) error {
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		from, _ = time.Parse("2006-01-02", v)
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t.AddDate(0, 0, 1) // inclusive end date
		}
	}
	rows := make([]echo.Map, 0)
	for _, rec := range s.store.listAppointments(from, to) {
		rows = append(rows, s.appointmentJSON(rec))
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) unpaidAppointments(c echo.Context) error {
	rows := make([]echo.Map, 0)
	for _, rec := range s.store.unpaidAppointments(c.QueryParam("q")) {
		rows = append(rows, s.appointmentJSON(rec))
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) createAppointment(c echo.Context) error {
	var req struct {
		PatientID   string  `json:"patientId"`
		Date        string  `json:"date"`
		DurationMin int     `json:"duration_min"`
		Type        string  `json:"type"`
		Status      string  `json:"status"`
		Notes       string  `json:"notes"`
		Fee         float64 `json:"fee"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID == "" || req.Date == "" {
		return apiError(c, http.StatusUnprocessableEntity, "patientId and date are required")
	}
	start, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return apiError(c, http.StatusUnprocessableEntity, "date must be RFC 3339")
	}
	rec := s.store.createAppointment(&appointmentRecord{
		PatientCode: req.PatientID, Start: start, DurationMin: req.DurationMin,
		Type: req.Type, Status: req.Status, Reason: req.Notes, Fee: req.Fee,
	})
	return c.JSON(http.StatusCreated, echo.Map{"data": s.appointmentJSON(rec)})
}

func (s *Server) updateAppointment(c echo.Context) error {
	rec := s.store.findAppointment(c.Param("id"))
	if rec == nil {
		return apiError(c, http.StatusNotFound, "appointment not found")
	}
	var req map[string]any
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	s.store.mu.Lock()
	if v, ok := req["patientId"].(string); ok && v != "" {
		rec.PatientCode = v
	}
	if v, ok := req["date"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.Start = t
		}
	}
	if v, ok := req["duration_min"].(float64); ok && v > 0 {
		rec.DurationMin = int(v)
	}
	if v, ok := req["type"].(string); ok && v != "" {
		rec.Type = v
	}
	if v, ok := req["status"].(string); ok && v != "" {
		rec.Status = v
	}
	if v, ok := req["notes"].(string); ok {
		rec.Reason = v
	}
	if v, ok := req["fee"].(float64); ok && v >= 0 {
		rec.Fee = v
	}
	s.store.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"data": s.appointmentJSON(rec)})
}

func (s *Server) patchAppointmentStatus(c echo.Context) error {
	rec := s.store.findAppointment(c.Param("id"))
	if rec == nil {
		return apiError(c, http.StatusNotFound, "appointment not found")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return apiError(c, http.StatusUnprocessableEntity, "status is required")
	}
	s.store.mu.Lock()
	rec.Status = req.Status
	s.store.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"data": s.appointmentJSON(rec)})
}

func (s *Server) deleteAppointment(c echo.Context) error {
	if !s.store.deleteAppointment(c.Param("id")) {
		return apiError(c, http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"ok": true}})
}

func (s *Server) appointmentJSON(a *appointmentRecord) echo.Map {
	return echo.Map{
		"appt_code":    a.Code,
		"patient_code": a.PatientCode,
		"patient_name": s.store.patientName(a.PatientCode),
		"start_time":   a.Start.Format(time.RFC3339),
		"duration_min": a.DurationMin,
		"type":         a.Type,
		"status":       a.Status,
		"reason":       a.Reason,
		"fee":          a.Fee,
	}
}

// payments

func (s *Server) listPayments(c echo.Context) error {
	rows := make([]echo.Map, 0)
	for _, rec := range s.store.listPayments() {
		rows = append(rows, s.paymentJSON(rec))
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) createPayment(c echo.Context) error {
	var req struct {
		PatientCode   string  `json:"patient_code"`
		Amount        float64 `json:"amount"`
		Method        string  `json:"method"`
		Status        string  `json:"status"`
		OccurredAt    string  `json:"occurred_at"`
		Description   string  `json:"description"`
		ApptCode      string  `json:"appt_code"`
		AppointmentID int64   `json:"appointment_id"`
		TxnRef        string  `json:"txn_ref"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PatientCode == "" || req.Amount <= 0 {
		return apiError(c, http.StatusUnprocessableEntity, "patient_code and a positive amount are required")
	}
	apptCode := req.ApptCode
	if apptCode == "" && req.AppointmentID != 0 {
		if a := s.store.findAppointment(fmt.Sprint(req.AppointmentID)); a != nil {
			apptCode = a.Code
		}
	}
	var paidAt time.Time
	if req.OccurredAt != "" {
		paidAt, _ = time.Parse(time.RFC3339, req.OccurredAt)
	}
	rec := s.store.createPayment(&paymentRecord{
		PatientCode: req.PatientCode, ApptCode: apptCode, Amount: req.Amount,
		Method: req.Method, Status: req.Status, PaidAt: paidAt,
		Description: req.Description, TxnRef: req.TxnRef,
	})
	return c.JSON(http.StatusCreated, echo.Map{"data": s.paymentJSON(rec)})
}

func (s *Server) updatePayment(c echo.Context) error {
	rec := s.store.findPayment(c.Param("id"))
	if rec == nil {
		return apiError(c, http.StatusNotFound, "payment not found")
	}
	var req map[string]any
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid request body")
	}
	s.store.mu.Lock()
	if v, ok := req["patientId"].(string); ok && v != "" {
		rec.PatientCode = v
	}
	if v, ok := req["amount"].(float64); ok && v > 0 {
		rec.Amount = v
	}
	if v, ok := req["currency"].(string); ok && v != "" {
		rec.Currency = v
	}
	if v, ok := req["method"].(string); ok && v != "" {
		rec.Method = v
	}
	if v, ok := req["status"].(string); ok && v != "" {
		rec.Status = v
	}
	if v, ok := req["description"].(string); ok {
		rec.Description = v
	}
	if v, ok := req["appointmentId"].(string); ok && v != "" {
		rec.ApptCode = v
	}
	s.store.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"data": s.paymentJSON(rec)})
}

func (s *Server) patchPaymentStatus(c echo.Context) error {
	rec := s.store.findPayment(c.Param("id"))
	if rec == nil {
		return apiError(c, http.StatusNotFound, "payment not found")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return apiError(c, http.StatusUnprocessableEntity, "status is required")
	}
	s.store.mu.Lock()
	rec.Status = req.Status
	s.store.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"data": s.paymentJSON(rec)})
}

func (s *Server) deletePayment(c echo.Context) error {
	if !s.store.deletePayment(c.Param("id")) {
		return apiError(c, http.StatusNotFound, "payment not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"ok": true}})
}

func (s *Server) paymentJSON(p *paymentRecord) echo.Map {
	m := echo.Map{
		"payment_id":   p.ID,
		"patient_code": p.PatientCode,
		"patient_name": s.store.patientName(p.PatientCode),
		"amount":       fmt.Sprintf("%.2f", p.Amount),
		"currency":     p.Currency,
		"method":       p.Method,
		"status":       p.Status,
		"paid_at":      p.PaidAt.Format(time.RFC3339),
		"description":  p.Description,
	}
	if p.ApptCode != "" {
		m["appt_code"] = p.ApptCode
	}
	return m
}
