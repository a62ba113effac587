package auth

import (
	"context"
	"net/http"

	"github.com/clinicdesk/clinicdesk/internal/platform/transport"
)

type Service struct {
	api *transport.Client
}

func NewService(api *transport.Client) *Service {
	return &Service{api: api}
}

// Login exchanges credentials for session cookies. The server sets them on
// the response; the transport's jar stores them, so the returned User is the
// only state the caller needs to hold.
func (s *Service) Login(ctx context.Context, req LoginRequest) (User, error) {
	if err := req.Validate(); err != nil {
		return User{}, err
	}
	res, err := s.api.Do(ctx, http.MethodPost, "/api/auth/login", req, nil)
	if err != nil {
		return User{}, err
	}
	return decodeUser(res)
}

// Logout invalidates the session server-side; the response clears the
// cookies through the jar.
func (s *Service) Logout(ctx context.Context) error {
	res, err := s.api.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	_, err = transport.DecodeEnvelope(res)
	return err
}

// Me returns the signed-in user, or an APIError with status 401 when the
// session is gone and could not be refreshed.
func (s *Service) Me(ctx context.Context) (User, error) {
	res, err := s.api.Do(ctx, http.MethodGet, "/api/me", nil, nil)
	if err != nil {
		return User{}, err
	}
	return decodeUser(res)
}

func decodeUser(res *http.Response) (User, error) {
	var row map[string]any
	if err := transport.DecodeInto(res, &row); err != nil {
		return User{}, err
	}
	return NormalizeUser(row), nil
}
