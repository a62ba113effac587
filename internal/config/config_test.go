package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "http://localhost:4000" {
		t.Errorf("APIURL default = %q", cfg.APIURL)
	}
	if cfg.CSRFCookie != "csrf" {
		t.Errorf("CSRFCookie default = %q", cfg.CSRFCookie)
	}
	if cfg.MockSessionTTL != 900 {
		t.Errorf("MockSessionTTL default = %d", cfg.MockSessionTTL)
	}
	if cfg.CookieJar == "" {
		t.Error("CookieJar should get a computed default")
	}
	if !cfg.IsDev() {
		t.Errorf("ENV default = %q, want development", cfg.Env)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLINIC_API_URL", "https://api.example.com")
	t.Setenv("CLINIC_COOKIE_JAR", "/tmp/jar.json")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.CookieJar != "/tmp/jar.json" {
		t.Errorf("CookieJar = %q", cfg.CookieJar)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"relative url", Config{APIURL: "localhost:4000", CSRFCookie: "csrf", MockSessionTTL: 900}, "CLINIC_API_URL"},
		{"empty cookie", Config{APIURL: "http://localhost:4000", MockSessionTTL: 900}, "CLINIC_CSRF_COOKIE"},
		{"zero ttl", Config{APIURL: "http://localhost:4000", CSRFCookie: "csrf"}, "MOCK_SESSION_TTL"},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want mention of %s", tc.name, err, tc.want)
		}
	}
}
