// Package auth holds the signed-in user entity and the client operations
// against the session endpoints. Session state itself lives in cookies the
// transport's jar carries; this package never sees a token.
package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/clinicdesk/clinicdesk/pkg/coerce"
)

// Roles; anything unrecognized normalizes to RoleDoctor.
const (
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

var roles = []string{RoleDoctor, RoleAdmin}

// User is the normalized signed-in identity returned by /api/me.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NormalizeUser maps a decoded-JSON payload into a User. Total like the
// entity normalizers: nil input yields a defaulted value.
func NormalizeUser(row map[string]any) User {
	return User{
		ID:    coerce.String(row, "id", "user_id"),
		Name:  coerce.String(row, "name", "full_name"),
		Email: coerce.String(row, "email"),
		Role:  coerce.Enum(row, roles, RoleDoctor, "role"),
	}
}

// LoginRequest is the credentials payload for /api/auth/login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}
