package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/diabeticqr/internal/api"
	"github.com/terraincognita07/diabeticqr/internal/cli"
	"github.com/terraincognita07/diabeticqr/internal/config"
	"github.com/terraincognita07/diabeticqr/internal/db"
	"github.com/terraincognita07/diabeticqr/internal/i18n"
	"github.com/terraincognita07/diabeticqr/internal/services"
	"github.com/terraincognita07/diabeticqr/internal/storage"
)

const csrfCookieName = "diabeticqr_csrf"

func main() {
	if handled, err := runCommand(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); handled {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config init failed: %v", err)
	}
	location := mustLoadLocation(cfg.Server.Timezone)
	time.Local = location

	if err := run(cfg); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// runCommand dispatches the maintenance subcommands. It reports false when
// the arguments ask for the HTTP server.
func runCommand(args []string, stdin *os.File, stdout io.Writer, stderr io.Writer) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	switch strings.TrimSpace(args[0]) {
	case "serve":
		return false, nil
	case "hash-password":
		return true, cli.RunHashPasswordCommand(stdin, stdout, stderr)
	case "check-id":
		return true, cli.RunCheckIDCommand(args[1:], stdout)
	default:
		return true, fmt.Errorf("unknown command %q (expected serve, hash-password or check-id)", args[0])
	}
}

func run(cfg *config.Config) error {
	database, err := db.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	adminHash, err := cfg.Auth.AdminHash()
	if err != nil {
		return err
	}
	if cfg.Auth.AdminPassword != "" {
		if err := services.ValidatePasswordStrength(cfg.Auth.AdminPassword); err != nil {
			log.Printf("ADMIN_PASSWORD is weak; consider `diabeticqr hash-password` with a longer passphrase")
		}
	}
	adminAuth, err := services.NewAdminAuthService(adminHash)
	if err != nil {
		return fmt.Errorf("admin auth init failed: %w", err)
	}

	photos, err := storage.NewImageStore(storage.Options{
		Dir:         cfg.Uploads.Dir,
		MaxBytes:    cfg.Uploads.MaxBytes,
		MaxWidth:    cfg.Uploads.MaxWidth,
		JPEGQuality: cfg.Uploads.JPEGQuality,
		MaxPixels:   cfg.Uploads.MaxPixels,
	})
	if err != nil {
		return fmt.Errorf("upload storage init failed: %w", err)
	}

	i18nManager, err := i18n.NewEmbeddedManager(cfg.Server.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	repositories := db.NewRepositories(database)
	handler, err := api.NewHandler(api.Dependencies{
		Patients: services.NewPatientService(repositories.Patients),
		Auth:     adminAuth,
		QRCodes:  services.NewQRCodeRenderer(cfg.Server.AppURL, services.DefaultQRCodeSize),
		Cities:   services.NewCityDirectory(cfg.Cities.URL, cfg.Cities.CacheTTL),
		Photos:   photos,
		I18n:     i18nManager,
	}, api.Options{
		SecretKey:        cfg.Auth.SecretKey,
		CookieSecure:     cfg.Server.CookieSecure,
		SessionTTL:       cfg.Auth.SessionTTL,
		LoginMaxAttempts: cfg.Auth.LoginMaxAttempts,
		LoginWindow:      cfg.Auth.LoginWindow,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "DiabeticQR",
		DisableStartupMessage: true,
		BodyLimit:             requestBodyLimit(photos.MaxBytes()),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(handler.LanguageMiddleware)
	app.Use(csrf.New(csrfMiddlewareConfig(cfg.Server.CookieSecure)))

	app.Static(storage.PublicPrefix, photos.Dir(), fiber.Static{MaxAge: 3600})
	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("DiabeticQR listening on http://0.0.0.0:%s (db: %s, tz: %s, app url: %s)", cfg.Server.Port, cfg.Database.Path, time.Local.String(), cfg.Server.AppURL)
	return app.Listen(":" + cfg.Server.Port)
}

// csrfMiddlewareConfig guards browser form posts; JSON requests are exempt.
func csrfMiddlewareConfig(cookieSecure bool) csrf.Config {
	return csrf.Config{
		KeyLookup:      "form:csrf_token",
		CookieName:     csrfCookieName,
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   cookieSecure,
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			contentType := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
			return strings.HasPrefix(contentType, fiber.MIMEApplicationJSON)
		},
	}
}

// requestBodyLimit leaves room for both document photos plus the text fields.
func requestBodyLimit(maxUploadBytes int64) int {
	const formOverhead = 1 << 20
	if maxUploadBytes <= 0 {
		return fiber.DefaultBodyLimit
	}
	return int(2*maxUploadBytes + formOverhead)
}

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}
