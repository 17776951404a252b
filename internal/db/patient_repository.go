package db

import (
	"strings"

	"github.com/terraincognita07/diabeticqr/internal/models"
	"gorm.io/gorm"
)

type PatientRepository struct {
	database *gorm.DB
}

func NewPatientRepository(database *gorm.DB) *PatientRepository {
	return &PatientRepository{database: database}
}

func (repo *PatientRepository) Create(patient *models.Patient) error {
	return repo.database.Create(patient).Error
}

func (repo *PatientRepository) FindByID(id string) (models.Patient, error) {
	var patient models.Patient
	if err := repo.database.Where("id = ?", id).First(&patient).Error; err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (repo *PatientRepository) FindByQRCodeID(qrCodeID string) (models.Patient, error) {
	var patient models.Patient
	if err := repo.database.Where("qr_code_id = ?", qrCodeID).First(&patient).Error; err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (repo *PatientRepository) ExistsByQRCodeID(qrCodeID string) (bool, error) {
	var count int64
	if err := repo.database.Model(&models.Patient{}).
		Where("qr_code_id = ?", qrCodeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByNationalID ignores the patient with excludeID so updates can keep
// their own identifier.
func (repo *PatientRepository) ExistsByNationalID(nationalID string, excludeID string) (bool, error) {
	query := repo.database.Model(&models.Patient{}).Where("national_id = ?", nationalID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo *PatientRepository) UpdateFields(id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	result := repo.database.Model(&models.Patient{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *PatientRepository) Delete(id string) error {
	result := repo.database.Where("id = ?", id).Delete(&models.Patient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Search matches text against names and free-form identifiers and digits
// against the canonical national id. A non-positive limit returns every match.
func (repo *PatientRepository) Search(text string, digits string, limit int, offset int) ([]models.Patient, int64, error) {
	query := repo.database.Model(&models.Patient{})

	text = strings.TrimSpace(text)
	if text != "" {
		pattern := likePattern(text)
		conditions := repo.database.
			Where("first_name LIKE ? ESCAPE '\\'", pattern).
			Or("last_name LIKE ? ESCAPE '\\'", pattern).
			Or("birth_certificate_id LIKE ? ESCAPE '\\'", pattern).
			Or("city LIKE ? ESCAPE '\\'", pattern).
			Or("qr_code_id LIKE ? ESCAPE '\\'", pattern)
		if digits != "" {
			conditions = conditions.Or("national_id LIKE ? ESCAPE '\\'", likePattern(digits))
		}
		query = query.Where(conditions)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	patients := make([]models.Patient, 0)
	listQuery := query.Order("created_at DESC, id DESC")
	if limit > 0 {
		listQuery = listQuery.Limit(limit).Offset(offset)
	}
	if err := listQuery.Find(&patients).Error; err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func likePattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + escaped + "%"
}
