package transport

import (
	"net/http"
	"net/url"
)

// CredentialProvider supplies the CSRF token attached to mutating requests.
// The session cookie itself always travels via the HTTP client's cookie jar;
// only the double-submit token needs explicit handling.
type CredentialProvider interface {
	CSRFToken() string
}

// StaticToken is a fixed-token provider, mainly for tests and non-browser
// token stores.
type StaticToken string

func (s StaticToken) CSRFToken() string { return string(s) }

type cookieTokenSource struct {
	jar    http.CookieJar
	origin *url.URL
	name   string
}

// CookieToken reads the CSRF token from the named cookie stored in jar for
// the API origin. Reading through the jar (rather than caching the value)
// means a refresh-rotated token is picked up on the next request.
func CookieToken(jar http.CookieJar, origin *url.URL, name string) CredentialProvider {
	return &cookieTokenSource{jar: jar, origin: origin, name: name}
}

func (s *cookieTokenSource) CSRFToken() string {
	if s.jar == nil {
		return ""
	}
	for _, c := range s.jar.Cookies(s.origin) {
		if c.Name == s.name {
			return c.Value
		}
	}
	return ""
}
