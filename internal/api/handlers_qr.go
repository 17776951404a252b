package api

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// GetPatientQRCode returns the public link and a PNG data URL, or the PNG
// itself as a download when format=png.
func (handler *Handler) GetPatientQRCode(c *fiber.Ctx) error {
	patient, err := handler.patients.Get(c.Params("id"))
	if err != nil {
		return handler.patientAPIError(c, err, "error.qr_failed")
	}

	link := handler.qrCodes.PatientURL(patient.QRCodeID)
	if c.Query("format") == "png" {
		png, err := handler.qrCodes.PNG(link)
		if err != nil {
			log.Printf("render qr code png for %s: %v", patient.ID, err)
			return apiError(c, fiber.StatusInternalServerError, "error.qr_failed")
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="patient-%s.png"`, patient.QRCodeID))
		c.Type("png")
		return c.Send(png)
	}

	dataURL, err := handler.qrCodes.DataURL(link)
	if err != nil {
		log.Printf("render qr code for %s: %v", patient.ID, err)
		return apiError(c, fiber.StatusInternalServerError, "error.qr_failed")
	}
	return c.JSON(fiber.Map{
		"qrCode": dataURL,
		"qrUrl":  link,
	})
}
