package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minSecretKeyLength = 32

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
	"changeme":                                   {},
	"secret":                                     {},
}

var supportedLanguages = map[string]struct{}{
	"fa": {},
	"en": {},
}

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if err := validateSecretKey(c.Auth.SecretKey); err != nil {
		return err
	}
	if err := c.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database: DB_PATH is required")
	}
	if err := c.Uploads.validate(); err != nil {
		return fmt.Errorf("uploads: %w", err)
	}
	if err := c.Cities.validate(); err != nil {
		return fmt.Errorf("cities: %w", err)
	}
	return nil
}

func validateSecretKey(secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters (got %d)", minSecretKeyLength, len(secret))
	}
	return nil
}

func (a *AuthConfig) validate() error {
	password := a.AdminPassword
	hash := strings.TrimSpace(a.AdminPasswordHash)
	switch {
	case password == "" && hash == "":
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	case password != "" && hash != "":
		return errors.New("set only one of ADMIN_PASSWORD and ADMIN_PASSWORD_HASH")
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
	}
	if a.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be > 0 (got %s)", a.SessionTTL)
	}
	if a.LoginMaxAttempts <= 0 {
		return fmt.Errorf("login_max_attempts must be > 0 (got %d)", a.LoginMaxAttempts)
	}
	if a.LoginWindow <= 0 {
		return fmt.Errorf("login_window must be > 0 (got %s)", a.LoginWindow)
	}
	return nil
}

// AdminHash returns the configured bcrypt hash, hashing a plaintext
// ADMIN_PASSWORD when that is what was provided.
func (a *AuthConfig) AdminHash() (string, error) {
	if hash := strings.TrimSpace(a.AdminPasswordHash); hash != "" {
		return hash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(hash), nil
}

func (s *ServerConfig) validate() error {
	port, err := strconv.Atoi(strings.TrimSpace(s.Port))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", s.Port)
	}
	s.Port = strconv.Itoa(port)

	parsed, err := url.Parse(strings.TrimSpace(s.AppURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("APP_URL must be an absolute http(s) URL (got %q)", s.AppURL)
	}
	s.AppURL = strings.TrimRight(parsed.String(), "/")

	s.DefaultLanguage = strings.ToLower(strings.TrimSpace(s.DefaultLanguage))
	if _, ok := supportedLanguages[s.DefaultLanguage]; !ok {
		return fmt.Errorf("unsupported DEFAULT_LANGUAGE %q", s.DefaultLanguage)
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be > 0 (got %s)", s.ShutdownTimeout)
	}
	return nil
}

func (u *UploadsConfig) validate() error {
	if strings.TrimSpace(u.Dir) == "" {
		return errors.New("UPLOAD_DIR is required")
	}
	if u.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be > 0 (got %d)", u.MaxBytes)
	}
	if u.MaxWidth <= 0 {
		return fmt.Errorf("max_width must be > 0 (got %d)", u.MaxWidth)
	}
	if u.JPEGQuality < 1 || u.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be within 1..100 (got %d)", u.JPEGQuality)
	}
	if u.MaxPixels <= 0 {
		return fmt.Errorf("max_pixels must be > 0 (got %d)", u.MaxPixels)
	}
	return nil
}

func (c *CitiesConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("CITIES_API_URL must be an absolute http(s) URL (got %q)", c.URL)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be > 0 (got %s)", c.CacheTTL)
	}
	return nil
}
