package api

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

var errInvalidPatientPayload = errors.New("invalid patient payload")

type photoField struct {
	name      string
	removeKey string
	prefix    string
	target    func(*services.PatientInput) **string
}

var photoFields = []photoField{
	{
		name:      "nationalIdPhoto",
		removeKey: "removeNationalIdPhoto",
		prefix:    "nid",
		target:    func(input *services.PatientInput) **string { return &input.NationalIDPhoto },
	},
	{
		name:      "birthCertificatePhoto",
		removeKey: "removeBirthCertificatePhoto",
		prefix:    "bc",
		target:    func(input *services.PatientInput) **string { return &input.BirthCertificatePhoto },
	},
}

// patientTextFields maps form field names to the input fields they fill.
func patientTextFields(input *services.PatientInput) map[string]**string {
	return map[string]**string{
		"firstName":          &input.FirstName,
		"lastName":           &input.LastName,
		"nationalId":         &input.NationalID,
		"birthCertificateId": &input.BirthCertificateID,
		"city":               &input.City,
		"placeOfLiving":      &input.PlaceOfLiving,
		"birthDate":          &input.BirthDate,
		"address":            &input.Address,
		"bloodType":          &input.BloodType,
		"diabetesType":       &input.DiabetesType,
		"examinationLink":    &input.ExaminationLink,
		"emergencyContact":   &input.EmergencyContact,
		"treatingPhysician":  &input.TreatingPhysician,
		"notes":              &input.Notes,
	}
}

// parsePatientInput reads a JSON, multipart or urlencoded patient body.
// Multipart photos are stored right away; the returned paths must be released
// with discardUploads if the patient is not saved. When a photo is rejected the
// text fields read so far are still returned.
func (handler *Handler) parsePatientInput(c *fiber.Ctx) (services.PatientInput, []string, error) {
	input := services.PatientInput{}

	switch {
	case sendsJSON(c):
		if err := c.BodyParser(&input); err != nil {
			return services.PatientInput{}, nil, errInvalidPatientPayload
		}
		return input, nil, nil
	case strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return services.PatientInput{}, nil, errInvalidPatientPayload
		}
		readFormValues(&input, func(name string) (string, bool) {
			values, ok := form.Value[name]
			if !ok || len(values) == 0 {
				return "", false
			}
			return values[0], true
		})
		uploaded, err := handler.storeFormPhotos(&input, form)
		if err != nil {
			handler.discardUploads(uploaded)
			return input, nil, err
		}
		return input, uploaded, nil
	default:
		args := c.Request().PostArgs()
		readFormValues(&input, func(name string) (string, bool) {
			if !args.Has(name) {
				return "", false
			}
			return string(args.Peek(name)), true
		})
		return input, nil, nil
	}
}

func readFormValues(input *services.PatientInput, lookup func(name string) (string, bool)) {
	for name, target := range patientTextFields(input) {
		if value, ok := lookup(name); ok {
			*target = &value
		}
	}
	for _, field := range photoFields {
		if value, ok := lookup(field.removeKey); ok && isChecked(value) {
			cleared := ""
			*field.target(input) = &cleared
		}
	}
}

func (handler *Handler) storeFormPhotos(input *services.PatientInput, form *multipart.Form) ([]string, error) {
	uploaded := make([]string, 0, len(photoFields))
	for _, field := range photoFields {
		headers := form.File[field.name]
		if len(headers) == 0 || headers[0] == nil || headers[0].Size == 0 {
			continue
		}

		stored, err := handler.storePhoto(field.prefix, headers[0])
		if err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, stored)
		input.UploadedPhotos = append(input.UploadedPhotos, stored)
		*field.target(input) = &stored
	}
	return uploaded, nil
}

func (handler *Handler) storePhoto(prefix string, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	return handler.photos.Save(prefix, header.Filename, file)
}

func (handler *Handler) discardUploads(paths []string) {
	for _, path := range paths {
		if err := handler.photos.Delete(path); err != nil {
			log.Printf("discard upload %s: %v", path, err)
		}
	}
}

// releaseReplacedPhotos removes stored photos that the update no longer
// references.
func (handler *Handler) releaseReplacedPhotos(before []string, after []string) {
	kept := make(map[string]struct{}, len(after))
	for _, path := range after {
		kept[path] = struct{}{}
	}
	stale := make([]string, 0, len(before))
	for _, path := range before {
		if _, ok := kept[path]; !ok && path != "" {
			stale = append(stale, path)
		}
	}
	handler.discardUploads(stale)
}
