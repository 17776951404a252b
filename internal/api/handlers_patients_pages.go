package api

import (
	"errors"
	"html/template"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/models"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

type formTextField struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Dir      string
	Messages map[string]string
	Form     map[string]string
}

var patientFormLayout = []formTextField{
	{Name: "firstName", Label: "patient.field.first_name", Type: "text", Required: true},
	{Name: "lastName", Label: "patient.field.last_name", Type: "text", Required: true},
	{Name: "nationalId", Label: "patient.field.national_id", Type: "text", Required: true, Dir: "ltr"},
	{Name: "birthCertificateId", Label: "patient.field.birth_certificate_id", Type: "text", Dir: "ltr"},
	{Name: "birthDate", Label: "patient.field.birth_date", Type: "text", Dir: "ltr"},
	{Name: "placeOfLiving", Label: "patient.field.place_of_living", Type: "text"},
	{Name: "emergencyContact", Label: "patient.field.emergency_contact", Type: "tel", Dir: "ltr"},
	{Name: "treatingPhysician", Label: "patient.field.treating_physician", Type: "text"},
	{Name: "examinationLink", Label: "patient.field.examination_link", Type: "url", Dir: "ltr"},
}

func (handler *Handler) ShowPatients(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))
	result, err := handler.patients.Search(search, c.QueryInt("page", 1), services.DefaultPatientsPerPage)
	if err != nil {
		log.Printf("search patients: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load patients")
	}

	flash := handler.popFlashCookie(c)
	totalPages := result.TotalPages()
	data := fiber.Map{
		"Title":      localizedPageTitle(currentMessages(c), "patients.title"),
		"Search":     search,
		"Patients":   result.Items,
		"TotalLabel": strconv.FormatInt(result.Total, 10),
		"PageLabel":  strconv.Itoa(result.Page),
		"PagesLabel": strconv.Itoa(totalPages),
		"PrevPage":   0,
		"NextPage":   0,
		"ErrorKey":   flash.Error,
		"SuccessKey": flash.Success,
	}
	if result.Page > 1 {
		data["PrevPage"] = result.Page - 1
	}
	if result.Page < totalPages {
		data["NextPage"] = result.Page + 1
	}
	return handler.render(c, "patients", data)
}

func (handler *Handler) ShowNewPatientForm(c *fiber.Ctx) error {
	values := patientFormValues(models.Patient{DiabetesType: models.DiabetesNone})
	return handler.renderPatientForm(c, fiber.StatusOK, nil, values, handler.popFlashCookie(c))
}

func (handler *Handler) ShowEditPatientForm(c *fiber.Ctx) error {
	patient, err := handler.patients.Get(c.Params("id"))
	if errors.Is(err, services.ErrPatientNotFound) {
		return handler.renderNotFound(c, "not_found.title", "not_found.body")
	}
	if err != nil {
		log.Printf("load patient %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load patient")
	}
	return handler.renderPatientForm(c, fiber.StatusOK, &patient, patientFormValues(patient), handler.popFlashCookie(c))
}

func (handler *Handler) CreatePatientForm(c *fiber.Ctx) error {
	input, uploaded, err := handler.parsePatientInput(c)
	if err == nil {
		var patient models.Patient
		if patient, err = handler.createPatient(input, uploaded); err == nil {
			handler.setFlashCookie(c, FlashPayload{Success: "patient.created"})
			return c.Redirect("/admin/patients/"+patient.ID, fiber.StatusSeeOther)
		}
	}

	status, key := patientErrorStatus(err, "error.create_failed")
	if status == fiber.StatusInternalServerError {
		log.Printf("create patient: %v", err)
	}
	values := overlayPatientInput(patientFormValues(models.Patient{DiabetesType: models.DiabetesNone}), input)
	return handler.renderPatientForm(c, status, nil, values, FlashPayload{Error: key})
}

func (handler *Handler) UpdatePatientForm(c *fiber.Ctx) error {
	existing, err := handler.patients.Get(c.Params("id"))
	if errors.Is(err, services.ErrPatientNotFound) {
		return handler.renderNotFound(c, "not_found.title", "not_found.body")
	}
	if err != nil {
		log.Printf("load patient %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load patient")
	}

	input, uploaded, err := handler.parsePatientInput(c)
	if err == nil {
		if _, err = handler.updatePatient(existing, input, uploaded); err == nil {
			handler.setFlashCookie(c, FlashPayload{Success: "patient.saved"})
			return c.Redirect("/admin/patients/"+existing.ID, fiber.StatusSeeOther)
		}
	}

	status, key := patientErrorStatus(err, "error.update_failed")
	if status == fiber.StatusInternalServerError {
		log.Printf("update patient %s: %v", existing.ID, err)
	}
	values := overlayPatientInput(patientFormValues(existing), input)
	return handler.renderPatientForm(c, status, &existing, values, FlashPayload{Error: key})
}

func (handler *Handler) DeletePatientForm(c *fiber.Ctx) error {
	if _, err := handler.deletePatient(c.Params("id")); err != nil {
		status, key := patientErrorStatus(err, "error.delete_failed")
		if status == fiber.StatusInternalServerError {
			log.Printf("delete patient %s: %v", c.Params("id"), err)
		}
		handler.setFlashCookie(c, FlashPayload{Error: key})
		return c.Redirect("/admin/patients", fiber.StatusSeeOther)
	}
	handler.setFlashCookie(c, FlashPayload{Success: "patient.deleted"})
	return c.Redirect("/admin/patients", fiber.StatusSeeOther)
}

func (handler *Handler) renderPatientForm(c *fiber.Ctx, status int, existing *models.Patient, values map[string]string, flash FlashPayload) error {
	messages := currentMessages(c)

	fields := make([]formTextField, 0, len(patientFormLayout))
	for _, field := range patientFormLayout {
		field.Messages = messages
		field.Form = values
		fields = append(fields, field)
	}

	data := fiber.Map{
		"Title":         localizedPageTitle(messages, "patient.new_title"),
		"Action":        "/admin/patients",
		"Form":          values,
		"TextFields":    fields,
		"Cities":        handler.formCities(),
		"BloodTypes":    models.BloodTypes,
		"DiabetesTypes": models.DiabetesTypes,
		"ErrorKey":      flash.Error,
		"SuccessKey":    flash.Success,
	}
	if existing != nil {
		data["Title"] = localizedPageTitle(messages, "patient.edit_title")
		data["Action"] = "/admin/patients/" + existing.ID
		data["Patient"] = existing

		link, dataURL, err := handler.qrCodes.PatientQRCode(existing.QRCodeID)
		if err != nil {
			log.Printf("render qr code for %s: %v", existing.ID, err)
		} else {
			data["QRCode"] = template.URL(dataURL)
			data["QRURL"] = link
		}
	}

	c.Status(status)
	return handler.render(c, "patient_form", data)
}

func patientFormValues(patient models.Patient) map[string]string {
	return map[string]string{
		"firstName":             patient.FirstName,
		"lastName":              patient.LastName,
		"nationalId":            patient.NationalID,
		"birthCertificateId":    patient.BirthCertificateID,
		"city":                  patient.City,
		"placeOfLiving":         patient.PlaceOfLiving,
		"birthDate":             patient.BirthDate,
		"address":               patient.Address,
		"bloodType":             patient.BloodType,
		"diabetesType":          patient.DiabetesType,
		"examinationLink":       patient.ExaminationLink,
		"emergencyContact":      patient.EmergencyContact,
		"treatingPhysician":     patient.TreatingPhysician,
		"notes":                 patient.Notes,
		"nationalIdPhoto":       patient.NationalIDPhoto,
		"birthCertificatePhoto": patient.BirthCertificatePhoto,
	}
}

// overlayPatientInput puts submitted text back into a form that failed
// validation. Photos keep their stored values.
func overlayPatientInput(values map[string]string, input services.PatientInput) map[string]string {
	for name, field := range patientTextFields(&input) {
		if *field != nil {
			values[name] = **field
		}
	}
	return values
}
