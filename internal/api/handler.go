package api

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/terraincognita07/diabeticqr/internal/i18n"
	"github.com/terraincognita07/diabeticqr/internal/services"
	"github.com/terraincognita07/diabeticqr/internal/templates"
)

const (
	defaultSessionTTL       = 24 * time.Hour
	defaultLoginMaxAttempts = 8
	defaultLoginWindow      = 15 * time.Minute
)

// CityLister supplies the city suggestions shown on the patient form.
type CityLister interface {
	Cities() ([]services.City, error)
}

// PhotoStore persists uploaded document photos.
type PhotoStore interface {
	Save(prefix string, filename string, reader io.Reader) (string, error)
	Delete(urlPath string) error
}

type Dependencies struct {
	Patients *services.PatientService
	Auth     *services.AdminAuthService
	QRCodes  *services.QRCodeRenderer
	Cities   CityLister
	Photos   PhotoStore
	I18n     *i18n.Manager
}

type Options struct {
	SecretKey        string
	CookieSecure     bool
	SessionTTL       time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

type Handler struct {
	patients         *services.PatientService
	auth             *services.AdminAuthService
	qrCodes          *services.QRCodeRenderer
	cities           CityLister
	photos           PhotoStore
	i18n             *i18n.Manager
	secretKey        []byte
	cookies          *secureCookieCodec
	cookieSecure     bool
	sessionTTL       time.Duration
	loginMaxAttempts int
	loginWindow      time.Duration
	loginLimiter     *attemptLimiter
	templates        map[string]*template.Template
	now              func() time.Time
}

func NewHandler(deps Dependencies, options Options) (*Handler, error) {
	switch {
	case deps.Patients == nil:
		return nil, errors.New("patient service is required")
	case deps.Auth == nil:
		return nil, errors.New("admin auth service is required")
	case deps.QRCodes == nil:
		return nil, errors.New("qr code renderer is required")
	case deps.Photos == nil:
		return nil, errors.New("photo store is required")
	case deps.I18n == nil:
		return nil, errors.New("i18n manager is required")
	}

	cookies, err := newSecureCookieCodec([]byte(options.SecretKey))
	if err != nil {
		return nil, err
	}

	parsed, err := parsePageTemplates(templates.Files, newTemplateFuncMap(), pageTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	handler := &Handler{
		patients:         deps.Patients,
		auth:             deps.Auth,
		qrCodes:          deps.QRCodes,
		cities:           deps.Cities,
		photos:           deps.Photos,
		i18n:             deps.I18n,
		secretKey:        []byte(options.SecretKey),
		cookies:          cookies,
		cookieSecure:     options.CookieSecure,
		sessionTTL:       options.SessionTTL,
		loginMaxAttempts: options.LoginMaxAttempts,
		loginWindow:      options.LoginWindow,
		loginLimiter:     newAttemptLimiter(),
		templates:        parsed,
		now:              time.Now,
	}
	if handler.sessionTTL <= 0 {
		handler.sessionTTL = defaultSessionTTL
	}
	if handler.loginMaxAttempts <= 0 {
		handler.loginMaxAttempts = defaultLoginMaxAttempts
	}
	if handler.loginWindow <= 0 {
		handler.loginWindow = defaultLoginWindow
	}
	return handler, nil
}
