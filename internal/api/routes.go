package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	registerPageRoutes(app, handler)
	registerAPIRoutes(app, handler)
}

func registerPageRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	app.Get("/lang/:lang", handler.SetLanguage)

	app.Get("/", handler.ShowHome)
	app.Get("/patient/:qrCodeId", handler.ShowPublicPatient)
	app.Get("/p/:qrCodeId", handler.RedirectShortPatientLink)

	app.Get("/admin", handler.ShowLoginPage)
	app.Get("/admin/patients", handler.AuthRequired, handler.ShowPatients)
	app.Post("/admin/patients", handler.AuthRequired, handler.CreatePatientForm)
	app.Get("/admin/patients/new", handler.AuthRequired, handler.ShowNewPatientForm)
	app.Get("/admin/patients/:id", handler.AuthRequired, handler.ShowEditPatientForm)
	app.Post("/admin/patients/:id", handler.AuthRequired, handler.UpdatePatientForm)
	app.Post("/admin/patients/:id/delete", handler.AuthRequired, handler.DeletePatientForm)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)

	api.Get("/cities", handler.ListCities)

	patients := api.Group("/patients")
	patients.Get("/qr/:qrCodeId", handler.GetPublicPatient)
	patients.Get("", handler.AuthRequired, handler.ListPatients)
	patients.Post("", handler.AuthRequired, handler.CreatePatient)
	patients.Get("/:id/qr", handler.AuthRequired, handler.GetPatientQRCode)
	patients.Get("/:id", handler.AuthRequired, handler.GetPatient)
	patients.Put("/:id", handler.AuthRequired, handler.UpdatePatient)
	patients.Delete("/:id", handler.AuthRequired, handler.DeletePatient)
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
