// Package session persists the API origin's cookies between CLI invocations,
// standing in for the browser's cookie store. The jar satisfies
// http.CookieJar so the transport uses it untouched.
package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

// Jar is a cookie jar for a single API origin backed by a JSON file.
type Jar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	origin *url.URL
	path   string
	stored map[string]storedCookie
}

// Open loads the jar file for origin, creating parent directories as needed.
// A missing or unreadable file starts an empty session rather than failing;
// expired cookies are dropped on load.
func Open(path string, origin *url.URL) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &Jar{inner: inner, origin: origin, path: path, stored: make(map[string]storedCookie)}

	data, err := os.ReadFile(path)
	if err == nil {
		var cookies []storedCookie
		if json.Unmarshal(data, &cookies) == nil {
			now := time.Now()
			var live []*http.Cookie
			for _, sc := range cookies {
				if !sc.Expires.IsZero() && sc.Expires.Before(now) {
					continue
				}
				j.stored[sc.Name] = sc
				live = append(live, &http.Cookie{
					Name:     sc.Name,
					Value:    sc.Value,
					Path:     sc.Path,
					Expires:  sc.Expires,
					Secure:   sc.Secure,
					HttpOnly: sc.HTTPOnly,
				})
			}
			inner.SetCookies(origin, live)
		}
	}
	return j, nil
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// SetCookies implements http.CookieJar and flushes the origin's cookies to
// disk so the session survives the process.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)

	if u.Host != j.origin.Host {
		return
	}
	for _, c := range cookies {
		if c.MaxAge < 0 || (c.Value == "" && !c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j.stored, c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.stored[c.Name] = storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
	}
	j.flushLocked()
}

// Clear wipes the in-memory session and removes the jar file.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.inner = inner
	j.stored = make(map[string]storedCookie)
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cookie jar file: %w", err)
	}
	return nil
}

func (j *Jar) flushLocked() {
	cookies := make([]storedCookie, 0, len(j.stored))
	for _, sc := range j.stored {
		cookies = append(cookies, sc)
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return
	}
	// Session cookies are credentials; keep the file private.
	_ = os.WriteFile(j.path, data, 0o600)
}
