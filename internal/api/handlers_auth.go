package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

type loginInput struct {
	Password string `json:"password" form:"password"`
}

func (handler *Handler) ShowLoginPage(c *fiber.Ctx) error {
	if handler.authenticateRequest(c) == nil {
		return c.Redirect("/admin/patients", fiber.StatusSeeOther)
	}

	flash := handler.popFlashCookie(c)
	return handler.render(c, "login", fiber.Map{
		"Title":    localizedPageTitle(currentMessages(c), "login.title"),
		"ErrorKey": flash.Error,
	})
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	now := handler.now()
	limiterKey := requestLimiterKey(c)
	if handler.loginLimiter.tooManyRecent(limiterKey, now, handler.loginMaxAttempts, handler.loginWindow) {
		return handler.respondAuthError(c, fiber.StatusTooManyRequests, "error.too_many_login_attempts")
	}

	input := loginInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.respondAuthError(c, fiber.StatusBadRequest, "error.invalid_input")
	}

	if err := handler.auth.Verify(input.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordRequired):
			return handler.respondAuthError(c, fiber.StatusBadRequest, "error.password_required")
		case errors.Is(err, services.ErrInvalidCredentials):
			handler.loginLimiter.addFailure(limiterKey, now, handler.loginWindow)
			return handler.respondAuthError(c, fiber.StatusUnauthorized, "error.invalid_credentials")
		default:
			log.Printf("verify admin password: %v", err)
			return handler.respondAuthError(c, fiber.StatusInternalServerError, "error.unauthorized")
		}
	}
	handler.loginLimiter.reset(limiterKey)

	if err := handler.setAuthCookie(c); err != nil {
		log.Printf("create admin session: %v", err)
		return apiError(c, fiber.StatusInternalServerError, "error.unauthorized")
	}
	return redirectOrJSON(c, "/admin/patients")
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return redirectOrJSON(c, "/admin")
}

// respondAuthError answers API clients with JSON and sends browser form
// posts back to the login page with a flash message.
func (handler *Handler) respondAuthError(c *fiber.Ctx, status int, key string) error {
	if wantsJSON(c) {
		return apiError(c, status, key)
	}
	handler.setFlashCookie(c, FlashPayload{Error: key})
	return c.Redirect("/admin", fiber.StatusSeeOther)
}
