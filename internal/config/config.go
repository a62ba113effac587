package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	APIURL            string `mapstructure:"CLINIC_API_URL"`
	Env               string `mapstructure:"ENV"`
	CSRFCookie        string `mapstructure:"CLINIC_CSRF_COOKIE"`
	CookieJar         string `mapstructure:"CLINIC_COOKIE_JAR"`
	MockPort          string `mapstructure:"MOCK_PORT"`
	MockSessionSecret string `mapstructure:"MOCK_SESSION_SECRET"`
	MockSessionTTL    int    `mapstructure:"MOCK_SESSION_TTL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("CLINIC_API_URL", "http://localhost:4000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CLINIC_CSRF_COOKIE", "csrf")
	v.SetDefault("MOCK_PORT", "4000")
	v.SetDefault("MOCK_SESSION_TTL", 900)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("CLINIC_API_URL")
	v.BindEnv("ENV")
	v.BindEnv("CLINIC_CSRF_COOKIE")
	v.BindEnv("CLINIC_COOKIE_JAR")
	v.BindEnv("MOCK_PORT")
	v.BindEnv("MOCK_SESSION_SECRET")
	v.BindEnv("MOCK_SESSION_TTL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CookieJar == "" {
		cfg.CookieJar = defaultJarPath()
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable before any command runs.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CLINIC_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.CSRFCookie == "" {
		return fmt.Errorf("CLINIC_CSRF_COOKIE must not be empty")
	}
	if c.MockSessionTTL <= 0 {
		return fmt.Errorf("MOCK_SESSION_TTL must be a positive number of seconds, got %d", c.MockSessionTTL)
	}
	return nil
}

// defaultJarPath places the persisted session cookies under the user config
// dir, falling back to a dotfile in the working directory.
func defaultJarPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clinicdesk", "cookies.json")
	}
	return ".clinicdesk-cookies.json"
}
