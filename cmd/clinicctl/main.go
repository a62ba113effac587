package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/auth"
	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/dashboard"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/mockapi"
	"github.com/clinicdesk/clinicdesk/internal/platform/session"
	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicctl",
		Short: "Command-line client for the clinic practice API",
	}

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(paymentsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(mockCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a command needs: config, a persistent cookie jar,
// and the domain services sharing one authenticated transport.
type app struct {
	cfg      *config.Config
	jar      *session.Jar
	auth     *auth.Service
	patients *identity.Service
	appts    *scheduling.Service
	payments *billing.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	origin, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("parse CLINIC_API_URL: %w", err)
	}
	jar, err := session.Open(cfg.CookieJar, origin)
	if err != nil {
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}

	api, err := transport.New(transport.Config{
		BaseURL:    cfg.APIURL,
		Jar:        jar,
		CSRFCookie: cfg.CSRFCookie,
		Logger:     newLogger(cfg),
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		jar:      jar,
		auth:     auth.NewService(api),
		patients: identity.NewService(api),
		appts:    scheduling.NewService(api),
		payments: billing.NewService(api),
	}, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.IsDev() {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// printJSON is the single output path; every command renders its result as
// indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			remember, _ := cmd.Flags().GetBool("remember")

			u, err := a.auth.Login(cmd.Context(), auth.LoginRequest{Email: email, Password: password, RememberMe: remember})
			if err != nil {
				return err
			}
			return printJSON(u)
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().Bool("remember", false, "request a long-lived session")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return a.jar.Clear()
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			u, err := a.auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(u)
		},
	}
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Manage patients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			rows, err := a.patients.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	})

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			var req identity.CreatePatientRequest
			req.Name, _ = cmd.Flags().GetString("name")
			req.Email, _ = cmd.Flags().GetString("email")
			req.Phone, _ = cmd.Flags().GetString("phone")
			req.DOB, _ = cmd.Flags().GetString("dob")
			req.Gender, _ = cmd.Flags().GetString("gender")
			req.BloodType, _ = cmd.Flags().GetString("blood-type")
			req.Allergies, _ = cmd.Flags().GetString("allergies")

			p, err := a.patients.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	createCmd.Flags().String("name", "", "full name")
	createCmd.Flags().String("email", "", "email address")
	createCmd.Flags().String("phone", "", "phone number")
	createCmd.Flags().String("dob", "", "date of birth (yyyy-mm-dd)")
	createCmd.Flags().String("gender", "", "male, female, or other")
	createCmd.Flags().String("blood-type", "", "blood type")
	createCmd.Flags().String("allergies", "", "known allergies")
	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("email")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := findPatient(cmd, a, args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	})

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := findPatient(cmd, a, args[0])
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("name"); v != "" {
				p.Name = v
			}
			if v, _ := cmd.Flags().GetString("email"); v != "" {
				p.Email = v
			}
			if v, _ := cmd.Flags().GetString("phone"); v != "" {
				p.Phone = v
				p.Contact = v
			}
			if v, _ := cmd.Flags().GetString("allergies"); v != "" {
				p.Allergies = v
			}
			updated, err := a.patients.Update(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}
	updateCmd.Flags().String("name", "", "full name")
	updateCmd.Flags().String("email", "", "email address")
	updateCmd.Flags().String("phone", "", "phone number")
	updateCmd.Flags().String("allergies", "", "known allergies")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.patients.Delete(cmd.Context(), args[0])
		},
	})

	return cmd
}

// findPatient resolves an internal id or human code against the list
// endpoint; the API has no single-patient GET.
func findPatient(cmd *cobra.Command, a *app, id string) (identity.Patient, error) {
	rows, err := a.patients.List(cmd.Context())
	if err != nil {
		return identity.Patient{}, err
	}
	for _, p := range rows {
		if p.ID == id || p.PatientID == id {
			return p, nil
		}
	}
	return identity.Patient{}, fmt.Errorf("patient %q not found", id)
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Manage appointments",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			var opts scheduling.ListOptions
			opts.From, _ = cmd.Flags().GetString("from")
			opts.To, _ = cmd.Flags().GetString("to")
			rows, err := a.appts.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	}
	listCmd.Flags().String("from", "", "start date (yyyy-mm-dd)")
	listCmd.Flags().String("to", "", "end date (yyyy-mm-dd), inclusive")
	cmd.AddCommand(listCmd)

	unpaidCmd := &cobra.Command{
		Use:   "unpaid",
		Short: "List appointments without a recorded payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			q, _ := cmd.Flags().GetString("query")
			rows, err := a.appts.Unpaid(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	}
	unpaidCmd.Flags().String("query", "", "patient name or code filter")
	cmd.AddCommand(unpaidCmd)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			var req scheduling.CreateAppointmentRequest
			req.PatientID, _ = cmd.Flags().GetString("patient")
			req.DurationMin, _ = cmd.Flags().GetInt("duration")
			req.Type, _ = cmd.Flags().GetString("type")
			req.Notes, _ = cmd.Flags().GetString("notes")
			req.Fee, _ = cmd.Flags().GetFloat64("fee")

			when, _ := cmd.Flags().GetString("date")
			req.Date, err = time.Parse(time.RFC3339, when)
			if err != nil {
				return fmt.Errorf("--date must be RFC 3339: %w", err)
			}

			appt, err := a.appts.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(appt)
		},
	}
	createCmd.Flags().String("patient", "", "patient code (PAT-000123)")
	createCmd.Flags().String("date", "", "start time (RFC 3339)")
	createCmd.Flags().Int("duration", 30, "duration in minutes")
	createCmd.Flags().String("type", scheduling.TypeConsultation, "appointment type")
	createCmd.Flags().String("notes", "", "reason for the visit")
	createCmd.Flags().Float64("fee", 0, "fee")
	createCmd.MarkFlagRequired("patient")
	createCmd.MarkFlagRequired("date")
	cmd.AddCommand(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			rows, err := a.appts.List(cmd.Context(), scheduling.ListOptions{})
			if err != nil {
				return err
			}
			var appt scheduling.Appointment
			found := false
			for _, row := range rows {
				if row.ID == args[0] {
					appt, found = row, true
					break
				}
			}
			if !found {
				return fmt.Errorf("appointment %q not found", args[0])
			}
			if v, _ := cmd.Flags().GetString("date"); v != "" {
				appt.Date, err = time.Parse(time.RFC3339, v)
				if err != nil {
					return fmt.Errorf("--date must be RFC 3339: %w", err)
				}
			}
			if v, _ := cmd.Flags().GetInt("duration"); v > 0 {
				appt.Duration = v
			}
			if v, _ := cmd.Flags().GetString("type"); v != "" {
				appt.Type = v
			}
			if v, _ := cmd.Flags().GetString("notes"); v != "" {
				appt.Notes = v
			}
			if cmd.Flags().Changed("fee") {
				appt.Fee, _ = cmd.Flags().GetFloat64("fee")
			}
			updated, err := a.appts.Update(cmd.Context(), appt)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}
	updateCmd.Flags().String("date", "", "start time (RFC 3339)")
	updateCmd.Flags().Int("duration", 0, "duration in minutes")
	updateCmd.Flags().String("type", "", "appointment type")
	updateCmd.Flags().String("notes", "", "reason for the visit")
	updateCmd.Flags().Float64("fee", 0, "fee")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change an appointment's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			appt, err := a.appts.SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(appt)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.appts.Delete(cmd.Context(), args[0])
		},
	})

	return cmd
}

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Manage payments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			rows, err := a.payments.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	})

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Record a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			var req billing.RecordPaymentRequest
			req.PatientCode, _ = cmd.Flags().GetString("patient")
			req.Amount, _ = cmd.Flags().GetFloat64("amount")
			req.Method, _ = cmd.Flags().GetString("method")
			req.Description, _ = cmd.Flags().GetString("description")
			req.ApptCode, _ = cmd.Flags().GetString("appointment")
			req.TxnRef, _ = cmd.Flags().GetString("txn-ref")

			p, err := a.payments.Record(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	recordCmd.Flags().String("patient", "", "patient code (PAT-000123)")
	recordCmd.Flags().Float64("amount", 0, "amount")
	recordCmd.Flags().String("method", billing.MethodCash, "payment method")
	recordCmd.Flags().String("description", "", "description")
	recordCmd.Flags().String("appointment", "", "appointment code (APT-000123)")
	recordCmd.Flags().String("txn-ref", "", "transaction reference, required for card")
	recordCmd.MarkFlagRequired("patient")
	recordCmd.MarkFlagRequired("amount")
	cmd.AddCommand(recordCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "refund <id>",
		Short: "Refund a paid payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.payments.SetStatus(cmd.Context(), args[0], billing.StatusRefunded)
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.payments.Delete(cmd.Context(), args[0])
		},
	})

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's practice overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			appts, err := a.appts.List(cmd.Context(), scheduling.ListOptions{})
			if err != nil {
				return err
			}
			payments, err := a.payments.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(dashboard.Compute(appts, payments, time.Now()))
		},
	}
}

func mockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mock",
		Short: "Run the in-memory practice API for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)
			srv := mockapi.New(mockapi.Options{
				SessionSecret: cfg.MockSessionSecret,
				SessionTTL:    time.Duration(cfg.MockSessionTTL) * time.Second,
				Logger:        logger,
				Seed:          true,
			})
			addr := ":" + cfg.MockPort
			logger.Info().Str("addr", addr).Msg("mock practice API listening")
			return srv.Start(addr)
		},
	}
}
