package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	sidCookie     = "sid"
	refreshCookie = "refresh"
	csrfCookie    = "csrf"
	csrfHeader    = "x-csrf-token"
)

// sessions issues and checks the cookie trio the real backend uses: a short
// sid, a longer-lived refresh token (both HS256 JWTs), and a non-HttpOnly
// csrf cookie the client must echo in a header on mutating requests.
type sessions struct {
	secret []byte
	ttl    time.Duration
}

func newSessions(secret string, ttl time.Duration) *sessions {
	if secret == "" {
		secret = randomToken()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &sessions{secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *sessions) sign(email, use string, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   use,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *sessions) parse(token, use string) (string, bool) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject != use {
		return "", false
	}
	return claims.Email, true
}

// issue sets all three cookies. Called on login and on refresh; the csrf
// token rotates each time, which is exactly what the client's retry path
// must cope with.
func (s *sessions) issue(c echo.Context, email string) error {
	sid, err := s.sign(email, "session", s.ttl)
	if err != nil {
		return err
	}
	refresh, err := s.sign(email, "refresh", 24*time.Hour)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{Name: sidCookie, Value: sid, Path: "/", HttpOnly: true})
	c.SetCookie(&http.Cookie{Name: refreshCookie, Value: refresh, Path: "/", HttpOnly: true})
	c.SetCookie(&http.Cookie{Name: csrfCookie, Value: randomToken(), Path: "/"})
	return nil
}

func (s *sessions) clear(c echo.Context) {
	for _, name := range []string{sidCookie, refreshCookie, csrfCookie} {
		c.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

// currentEmail returns the signed-in email from a valid sid cookie.
func (s *sessions) currentEmail(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(sidCookie)
	if err != nil {
		return "", false
	}
	return s.parse(cookie.Value, "session")
}

// refreshEmail validates the refresh cookie instead of the sid.
func (s *sessions) refreshEmail(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(refreshCookie)
	if err != nil {
		return "", false
	}
	return s.parse(cookie.Value, "refresh")
}

// Auth rejects requests without a live session.
func (s *sessions) Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, ok := s.currentEmail(c)
			if !ok {
				return apiError(c, http.StatusUnauthorized, "session expired")
			}
			c.Set("email", email)
			return next(c)
		}
	}
}

// CSRF enforces the double-submit check on mutating requests.
func (s *sessions) CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			cookie, err := c.Cookie(csrfCookie)
			if err != nil || cookie.Value == "" || c.Request().Header.Get(csrfHeader) != cookie.Value {
				return apiError(c, http.StatusForbidden, "csrf token mismatch")
			}
			return next(c)
		}
	}
}

func randomToken() string {
	var b [16]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
