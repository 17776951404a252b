package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	adminRole         = "admin"
	adminSubject      = "admin"
	authCookiePurpose = "auth"
)

var errNotAuthenticated = errors.New("not authenticated")

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (handler *Handler) signSessionToken(now time.Time) (string, error) {
	claims := adminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(handler.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(handler.secretKey)
}

func (handler *Handler) setAuthCookie(c *fiber.Ctx) error {
	now := handler.now()
	token, err := handler.signSessionToken(now)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}
	sealed, err := handler.cookies.seal(authCookiePurpose, []byte(token))
	if err != nil {
		return fmt.Errorf("seal session token: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    sealed,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  now.Add(handler.sessionTTL),
	})
	return nil
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(-time.Hour),
	})
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Cookies(authCookieName))
	if raw == "" {
		return errNotAuthenticated
	}
	token, err := handler.cookies.open(authCookiePurpose, raw)
	if err != nil {
		return errNotAuthenticated
	}

	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(string(token), claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return handler.secretKey, nil
	}, jwt.WithTimeFunc(handler.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return errNotAuthenticated
	}
	if claims.Role != adminRole || claims.Subject != adminSubject {
		return errNotAuthenticated
	}
	return nil
}
