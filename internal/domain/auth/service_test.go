package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

func newService(t *testing.T, h http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := transport.New(transport.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	return NewService(api), srv
}

func TestLoginDecodesUserAndStoresCookies(t *testing.T) {
	var gotBody map[string]any
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewDecoder(r.Body).Decode(&gotBody)
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "session-1", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "csrf", Value: "tok-1", Path: "/"})
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"user_id": float64(7), "full_name": "Dr. Silva", "email": "silva@clinic.lk", "role": "admin"},
			})
		case "/api/me":
			if c, err := r.Cookie("sid"); err != nil || c.Value != "session-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "7", "name": "Dr. Silva", "email": "silva@clinic.lk", "role": "admin"})
		}
	})

	u, err := svc.Login(context.Background(), LoginRequest{Email: "silva@clinic.lk", Password: "hunter2", RememberMe: true})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "7" || u.Name != "Dr. Silva" || u.Role != RoleAdmin {
		t.Errorf("login user: %+v", u)
	}
	if gotBody["email"] != "silva@clinic.lk" || gotBody["rememberMe"] != true {
		t.Errorf("login payload: %+v", gotBody)
	}

	// The session cookie from login must ride along automatically.
	me, err := svc.Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if me.ID != "7" {
		t.Errorf("me: %+v", me)
	}
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	called := false
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com"}); err == nil {
		t.Fatal("expected validation error for missing password")
	}
	if called {
		t.Error("invalid credentials must not reach the network")
	}
}

func TestMeUnauthenticated(t *testing.T) {
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "no session"}})
	})
	_, err := svc.Me(context.Background())
	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
	if apiErr.Message != "no session" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestNormalizeUserDefaults(t *testing.T) {
	u := NormalizeUser(nil)
	if u.Role != RoleDoctor {
		t.Errorf("role default = %q", u.Role)
	}
	u = NormalizeUser(map[string]any{"id": float64(3), "role": "superuser"})
	if u.ID != "3" || u.Role != RoleDoctor {
		t.Errorf("unrecognized role: %+v", u)
	}
}

func TestLogout(t *testing.T) {
	var method, path string
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"ok": true}})
	})
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if method != http.MethodPost || path != "/api/auth/logout" {
		t.Errorf("logout hit %s %s", method, path)
	}
}
