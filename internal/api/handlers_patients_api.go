package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/models"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

func (handler *Handler) ListPatients(c *fiber.Ctx) error {
	page, err := handler.patients.Search(
		c.Query("search"),
		c.QueryInt("page", 1),
		c.QueryInt("per_page", services.DefaultPatientsPerPage),
	)
	if err != nil {
		log.Printf("search patients: %v", err)
		return apiError(c, fiber.StatusInternalServerError, "error.search_failed")
	}
	return c.JSON(page)
}

func (handler *Handler) GetPatient(c *fiber.Ctx) error {
	patient, err := handler.patients.Get(c.Params("id"))
	if err != nil {
		return handler.patientAPIError(c, err, "error.patient_not_found")
	}
	return c.JSON(patient)
}

func (handler *Handler) CreatePatient(c *fiber.Ctx) error {
	input, uploaded, err := handler.parsePatientInput(c)
	if err != nil {
		return handler.patientAPIError(c, err, "error.upload_failed")
	}
	patient, err := handler.createPatient(input, uploaded)
	if err != nil {
		return handler.patientAPIError(c, err, "error.create_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(patient)
}

func (handler *Handler) UpdatePatient(c *fiber.Ctx) error {
	existing, err := handler.patients.Get(c.Params("id"))
	if err != nil {
		return handler.patientAPIError(c, err, "error.update_failed")
	}
	input, uploaded, err := handler.parsePatientInput(c)
	if err != nil {
		return handler.patientAPIError(c, err, "error.upload_failed")
	}
	patient, err := handler.updatePatient(existing, input, uploaded)
	if err != nil {
		return handler.patientAPIError(c, err, "error.update_failed")
	}
	return c.JSON(patient)
}

func (handler *Handler) DeletePatient(c *fiber.Ctx) error {
	if _, err := handler.deletePatient(c.Params("id")); err != nil {
		return handler.patientAPIError(c, err, "error.delete_failed")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) patientAPIError(c *fiber.Ctx, err error, fallbackKey string) error {
	status, key := patientErrorStatus(err, fallbackKey)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return apiError(c, status, key)
}

// createPatient releases freshly stored uploads again if the patient could
// not be saved.
func (handler *Handler) createPatient(input services.PatientInput, uploaded []string) (models.Patient, error) {
	patient, err := handler.patients.Create(input)
	if err != nil {
		handler.discardUploads(uploaded)
		return models.Patient{}, err
	}
	return patient, nil
}

func (handler *Handler) updatePatient(existing models.Patient, input services.PatientInput, uploaded []string) (models.Patient, error) {
	updated, err := handler.patients.Update(existing.ID, input)
	if err != nil {
		handler.discardUploads(uploaded)
		return models.Patient{}, err
	}

	handler.releaseReplacedPhotos(patientPhotos(existing), patientPhotos(updated))
	return updated, nil
}

func (handler *Handler) deletePatient(id string) (models.Patient, error) {
	deleted, err := handler.patients.Delete(id)
	if err != nil {
		return models.Patient{}, err
	}
	handler.discardUploads(patientPhotos(deleted))
	return deleted, nil
}

func patientPhotos(patient models.Patient) []string {
	photos := make([]string, 0, 2)
	for _, path := range []string{patient.NationalIDPhoto, patient.BirthCertificatePhoto} {
		if path != "" {
			photos = append(photos, path)
		}
	}
	return photos
}
