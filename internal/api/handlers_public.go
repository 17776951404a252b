package api

import (
	"errors"
	"html/template"
	"log"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

type publicDetail struct {
	Messages map[string]string
	Label    string
	Value    string
}

// GetPublicPatient is the unauthenticated lookup behind a scanned QR code.
func (handler *Handler) GetPublicPatient(c *fiber.Ctx) error {
	patient, err := handler.patients.GetPublic(c.Params("qrCodeId"))
	if err != nil {
		return handler.patientAPIError(c, err, "error.patient_not_found")
	}
	return c.JSON(patient)
}

func (handler *Handler) ShowPublicPatient(c *fiber.Ctx) error {
	qrCodeID := strings.TrimSpace(c.Params("qrCodeId"))
	patient, err := handler.patients.GetPublic(qrCodeID)
	if errors.Is(err, services.ErrPatientNotFound) {
		return handler.renderNotFound(c, "not_found.patient_title", "not_found.patient_body")
	}
	if err != nil {
		log.Printf("load public patient %s: %v", qrCodeID, err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load patient")
	}

	messages := currentMessages(c)
	language := currentLanguage(c)
	data := fiber.Map{
		"Title":   patient.FirstName + " " + patient.LastName + " | " + translateMessage(messages, "app.title"),
		"Patient": patient,
		"Details": []publicDetail{
			{messages, "patient.field.birth_certificate_id", templateDigits(language, patient.BirthCertificateID)},
			{messages, "patient.field.birth_date", templateDigits(language, patient.BirthDate)},
			{messages, "patient.field.city", patient.City},
			{messages, "patient.field.place_of_living", patient.PlaceOfLiving},
			{messages, "patient.field.address", patient.Address},
			{messages, "patient.field.treating_physician", patient.TreatingPhysician},
		},
	}

	link, dataURL, err := handler.qrCodes.PatientQRCode(qrCodeID)
	if err != nil {
		log.Printf("render public qr code %s: %v", qrCodeID, err)
	} else {
		data["QRCode"] = template.URL(dataURL)
		data["QRURL"] = link
	}
	return handler.render(c, "public_patient", data)
}

// RedirectShortPatientLink keeps printed short links working.
func (handler *Handler) RedirectShortPatientLink(c *fiber.Ctx) error {
	return c.Redirect("/patient/"+url.PathEscape(c.Params("qrCodeId")), fiber.StatusMovedPermanently)
}
