package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/services"
	"github.com/terraincognita07/diabeticqr/internal/storage"
)

type errorMapping struct {
	target error
	status int
	key    string
}

var patientErrorMappings = []errorMapping{
	{services.ErrPatientNotFound, fiber.StatusNotFound, "error.patient_not_found"},
	{services.ErrFirstNameRequired, fiber.StatusBadRequest, "error.required_fields"},
	{services.ErrLastNameRequired, fiber.StatusBadRequest, "error.required_fields"},
	{services.ErrNationalIDRequired, fiber.StatusBadRequest, "error.required_fields"},
	{services.ErrCityRequired, fiber.StatusBadRequest, "error.required_fields"},
	{services.ErrInvalidNationalID, fiber.StatusBadRequest, "error.invalid_national_id"},
	{services.ErrDuplicateNationalID, fiber.StatusConflict, "error.duplicate_national_id"},
	{services.ErrInvalidBloodType, fiber.StatusBadRequest, "error.invalid_blood_type"},
	{services.ErrInvalidDiabetesType, fiber.StatusBadRequest, "error.invalid_diabetes_type"},
	{services.ErrInvalidExaminationLink, fiber.StatusBadRequest, "error.invalid_examination_link"},
	{services.ErrInvalidPhotoPath, fiber.StatusBadRequest, "error.invalid_photo_path"},
	{storage.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge, "error.upload_too_large"},
	{storage.ErrUnsupportedUpload, fiber.StatusBadRequest, "error.upload_unsupported"},
	{storage.ErrEmptyUpload, fiber.StatusBadRequest, "error.upload_unsupported"},
	{errInvalidPatientPayload, fiber.StatusBadRequest, "error.invalid_input"},
}

// patientErrorStatus maps a service or upload error to a status and message
// key. Unknown errors become a 500 with fallbackKey.
func patientErrorStatus(err error, fallbackKey string) (int, string) {
	for _, mapping := range patientErrorMappings {
		if errors.Is(err, mapping.target) {
			return mapping.status, mapping.key
		}
	}
	return fiber.StatusInternalServerError, fallbackKey
}
