package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/terraincognita07/diabeticqr/internal/models"
	"github.com/terraincognita07/diabeticqr/internal/nationalid"
	"github.com/terraincognita07/diabeticqr/internal/security"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound        = errors.New("patient not found")
	ErrFirstNameRequired      = errors.New("first name is required")
	ErrLastNameRequired       = errors.New("last name is required")
	ErrNationalIDRequired     = errors.New("national id is required")
	ErrCityRequired           = errors.New("city is required")
	ErrInvalidNationalID      = nationalid.ErrInvalidNationalID
	ErrDuplicateNationalID    = errors.New("national id already registered")
	ErrInvalidBloodType       = errors.New("invalid blood type")
	ErrInvalidDiabetesType    = errors.New("invalid diabetes type")
	ErrInvalidExaminationLink = errors.New("invalid examination link")
	ErrInvalidPhotoPath       = errors.New("invalid photo path")
	ErrQRCodeIDUnavailable    = errors.New("could not allocate qr code id")
)

const (
	DefaultPatientsPerPage = 20
	MaxPatientsPerPage     = 100
	maxQRCodeIDAttempts    = 5
)

type PatientRepository interface {
	Create(patient *models.Patient) error
	FindByID(id string) (models.Patient, error)
	FindByQRCodeID(qrCodeID string) (models.Patient, error)
	ExistsByQRCodeID(qrCodeID string) (bool, error)
	ExistsByNationalID(nationalID string, excludeID string) (bool, error)
	UpdateFields(id string, updates map[string]any) error
	Delete(id string) error
	Search(text string, digits string, limit int, offset int) ([]models.Patient, int64, error)
}

// PatientInput carries submitted patient fields. A nil field was not
// submitted; an empty string clears an optional field on update.
type PatientInput struct {
	FirstName             *string `json:"firstName"`
	LastName              *string `json:"lastName"`
	NationalID            *string `json:"nationalId"`
	BirthCertificateID    *string `json:"birthCertificateId"`
	City                  *string `json:"city"`
	PlaceOfLiving         *string `json:"placeOfLiving"`
	BirthDate             *string `json:"birthDate"`
	Address               *string `json:"address"`
	NationalIDPhoto       *string `json:"nationalIdPhoto"`
	BirthCertificatePhoto *string `json:"birthCertificatePhoto"`
	BloodType             *string `json:"bloodType"`
	DiabetesType          *string `json:"diabetesType"`
	ExaminationLink       *string `json:"examinationLink"`
	EmergencyContact      *string `json:"emergencyContact"`
	TreatingPhysician     *string `json:"treatingPhysician"`
	Notes                 *string `json:"notes"`

	// UploadedPhotos lists files stored for this request. Together with the
	// patient's current photos they are the only /uploads/ paths accepted.
	UploadedPhotos []string `json:"-"`
}

type PatientPage struct {
	Items   []models.Patient `json:"items"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

func (page PatientPage) TotalPages() int {
	if page.PerPage <= 0 || page.Total == 0 {
		return 1
	}
	return int((page.Total + int64(page.PerPage) - 1) / int64(page.PerPage))
}

type PatientService struct {
	patients  PatientRepository
	newQRCode func() (string, error)
}

func NewPatientService(patients PatientRepository) *PatientService {
	return &PatientService{
		patients:  patients,
		newQRCode: security.NewQRCodeID,
	}
}

func (service *PatientService) Create(input PatientInput) (models.Patient, error) {
	patient := models.Patient{DiabetesType: models.DiabetesNone}
	if err := applyPatientInput(&patient, input, true); err != nil {
		return models.Patient{}, err
	}

	if err := service.ensureNationalIDAvailable(patient.NationalID, ""); err != nil {
		return models.Patient{}, err
	}

	qrCodeID, err := service.allocateQRCodeID()
	if err != nil {
		return models.Patient{}, err
	}
	patient.ID = uuid.NewString()
	patient.QRCodeID = qrCodeID

	if err := service.patients.Create(&patient); err != nil {
		if isNationalIDConflict(err) {
			return models.Patient{}, ErrDuplicateNationalID
		}
		return models.Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return patient, nil
}

// Update applies only the submitted fields and returns the stored patient.
func (service *PatientService) Update(id string, input PatientInput) (models.Patient, error) {
	existing, err := service.Get(id)
	if err != nil {
		return models.Patient{}, err
	}

	updated := existing
	if err := applyPatientInput(&updated, input, false); err != nil {
		return models.Patient{}, err
	}
	if updated.NationalID != existing.NationalID {
		if err := service.ensureNationalIDAvailable(updated.NationalID, existing.ID); err != nil {
			return models.Patient{}, err
		}
	}

	changes := patientChanges(existing, updated)
	if len(changes) == 0 {
		return existing, nil
	}
	if err := service.patients.UpdateFields(existing.ID, changes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Patient{}, ErrPatientNotFound
		}
		if isNationalIDConflict(err) {
			return models.Patient{}, ErrDuplicateNationalID
		}
		return models.Patient{}, fmt.Errorf("update patient: %w", err)
	}
	return service.Get(existing.ID)
}

func (service *PatientService) Get(id string) (models.Patient, error) {
	patient, err := service.patients.FindByID(strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Patient{}, ErrPatientNotFound
		}
		return models.Patient{}, fmt.Errorf("load patient: %w", err)
	}
	return patient, nil
}

func (service *PatientService) GetByQRCodeID(qrCodeID string) (models.Patient, error) {
	qrCodeID = strings.TrimSpace(qrCodeID)
	if qrCodeID == "" {
		return models.Patient{}, ErrPatientNotFound
	}
	patient, err := service.patients.FindByQRCodeID(qrCodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Patient{}, ErrPatientNotFound
		}
		return models.Patient{}, fmt.Errorf("load patient by qr code: %w", err)
	}
	return patient, nil
}

func (service *PatientService) GetPublic(qrCodeID string) (models.PublicPatient, error) {
	patient, err := service.GetByQRCodeID(qrCodeID)
	if err != nil {
		return models.PublicPatient{}, err
	}
	return patient.Public(), nil
}

// Delete removes the patient and returns the deleted record so callers can
// release stored photos.
func (service *PatientService) Delete(id string) (models.Patient, error) {
	patient, err := service.Get(id)
	if err != nil {
		return models.Patient{}, err
	}
	if err := service.patients.Delete(patient.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Patient{}, ErrPatientNotFound
		}
		return models.Patient{}, fmt.Errorf("delete patient: %w", err)
	}
	return patient, nil
}

// Search pages through patients. Digits in the query are normalized so a
// Persian or Arabic national id fragment matches the stored ASCII form.
func (service *PatientService) Search(query string, page int, perPage int) (PatientPage, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPatientsPerPage
	}
	if perPage > MaxPatientsPerPage {
		perPage = MaxPatientsPerPage
	}

	patients, total, err := service.patients.Search(query, nationalid.DigitsOnly(query), perPage, (page-1)*perPage)
	if err != nil {
		return PatientPage{}, fmt.Errorf("search patients: %w", err)
	}
	return PatientPage{Items: patients, Total: total, Page: page, PerPage: perPage}, nil
}

func (service *PatientService) ensureNationalIDAvailable(nationalID string, excludeID string) error {
	exists, err := service.patients.ExistsByNationalID(nationalID, excludeID)
	if err != nil {
		return fmt.Errorf("check national id: %w", err)
	}
	if exists {
		return ErrDuplicateNationalID
	}
	return nil
}

// The existence check races with concurrent writers; the unique index on
// national_id is what finally rejects the second one.
func isNationalIDConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") && strings.Contains(message, "national_id")
}

func (service *PatientService) allocateQRCodeID() (string, error) {
	for attempt := 0; attempt < maxQRCodeIDAttempts; attempt++ {
		candidate, err := service.newQRCode()
		if err != nil {
			return "", fmt.Errorf("generate qr code id: %w", err)
		}
		exists, err := service.patients.ExistsByQRCodeID(candidate)
		if err != nil {
			return "", fmt.Errorf("check qr code id: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrQRCodeIDUnavailable
}

func applyPatientInput(patient *models.Patient, input PatientInput, creating bool) error {
	required := []struct {
		value  *string
		target *string
		err    error
	}{
		{value: input.FirstName, target: &patient.FirstName, err: ErrFirstNameRequired},
		{value: input.LastName, target: &patient.LastName, err: ErrLastNameRequired},
		{value: input.City, target: &patient.City, err: ErrCityRequired},
	}
	for _, field := range required {
		if field.value == nil {
			if creating {
				return field.err
			}
			continue
		}
		value := strings.TrimSpace(*field.value)
		if value == "" {
			return field.err
		}
		*field.target = value
	}

	if input.NationalID != nil || creating {
		raw := ""
		if input.NationalID != nil {
			raw = strings.TrimSpace(*input.NationalID)
		}
		if raw == "" {
			return ErrNationalIDRequired
		}
		normalized, err := nationalid.Normalize(raw)
		if err != nil {
			return err
		}
		patient.NationalID = normalized
	}

	optional := []struct {
		value  *string
		target *string
	}{
		{value: input.BirthCertificateID, target: &patient.BirthCertificateID},
		{value: input.PlaceOfLiving, target: &patient.PlaceOfLiving},
		{value: input.BirthDate, target: &patient.BirthDate},
		{value: input.Address, target: &patient.Address},
		{value: input.EmergencyContact, target: &patient.EmergencyContact},
		{value: input.TreatingPhysician, target: &patient.TreatingPhysician},
		{value: input.Notes, target: &patient.Notes},
	}
	for _, field := range optional {
		if field.value != nil {
			*field.target = strings.TrimSpace(*field.value)
		}
	}

	if input.BloodType != nil {
		value := strings.ToUpper(strings.TrimSpace(*input.BloodType))
		if value != "" && !models.IsBloodType(value) {
			return ErrInvalidBloodType
		}
		patient.BloodType = value
	}

	if input.DiabetesType != nil {
		value := strings.ToLower(strings.TrimSpace(*input.DiabetesType))
		if value == "" {
			value = models.DiabetesNone
		}
		if !models.IsDiabetesType(value) {
			return ErrInvalidDiabetesType
		}
		patient.DiabetesType = value
	}

	if input.ExaminationLink != nil {
		value := strings.TrimSpace(*input.ExaminationLink)
		if value != "" && !isHTTPURL(value) {
			return ErrInvalidExaminationLink
		}
		patient.ExaminationLink = value
	}

	owned := map[string]struct{}{}
	for _, path := range append([]string{patient.NationalIDPhoto, patient.BirthCertificatePhoto}, input.UploadedPhotos...) {
		if path != "" {
			owned[path] = struct{}{}
		}
	}

	photos := []struct {
		value  *string
		target *string
	}{
		{value: input.NationalIDPhoto, target: &patient.NationalIDPhoto},
		{value: input.BirthCertificatePhoto, target: &patient.BirthCertificatePhoto},
	}
	for _, photo := range photos {
		if photo.value == nil {
			continue
		}
		value := strings.TrimSpace(*photo.value)
		if value != "" && !isPhotoPath(value, owned) {
			return ErrInvalidPhotoPath
		}
		*photo.target = value
	}

	return nil
}

func patientChanges(before models.Patient, after models.Patient) map[string]any {
	changes := make(map[string]any)
	columns := []struct {
		column string
		before string
		after  string
	}{
		{"first_name", before.FirstName, after.FirstName},
		{"last_name", before.LastName, after.LastName},
		{"national_id", before.NationalID, after.NationalID},
		{"birth_certificate_id", before.BirthCertificateID, after.BirthCertificateID},
		{"city", before.City, after.City},
		{"place_of_living", before.PlaceOfLiving, after.PlaceOfLiving},
		{"birth_date", before.BirthDate, after.BirthDate},
		{"address", before.Address, after.Address},
		{"national_id_photo", before.NationalIDPhoto, after.NationalIDPhoto},
		{"birth_certificate_photo", before.BirthCertificatePhoto, after.BirthCertificatePhoto},
		{"blood_type", before.BloodType, after.BloodType},
		{"diabetes_type", before.DiabetesType, after.DiabetesType},
		{"examination_link", before.ExaminationLink, after.ExaminationLink},
		{"emergency_contact", before.EmergencyContact, after.EmergencyContact},
		{"treating_physician", before.TreatingPhysician, after.TreatingPhysician},
		{"notes", before.Notes, after.Notes},
	}
	for _, column := range columns {
		if column.before != column.after {
			changes[column.column] = column.after
		}
	}
	return changes
}

func isHTTPURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// Photos are absolute http(s) URLs or /uploads/ files the patient already
// owns or just uploaded.
func isPhotoPath(value string, owned map[string]struct{}) bool {
	if strings.HasPrefix(value, "/uploads/") {
		if strings.Contains(value, "..") {
			return false
		}
		_, ok := owned[value]
		return ok
	}
	return isHTTPURL(value)
}
