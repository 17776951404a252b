package models

import "time"

const (
	DiabetesNone  = "none"
	DiabetesType1 = "type1"
	DiabetesType2 = "type2"
)

var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var DiabetesTypes = []string{DiabetesNone, DiabetesType1, DiabetesType2}

// Patient is a registered patient. Optional text fields hold "" when unset.
type Patient struct {
	ID                    string    `gorm:"primaryKey" json:"id"`
	QRCodeID              string    `gorm:"column:qr_code_id;uniqueIndex;not null" json:"qrCodeId"`
	FirstName             string    `gorm:"not null" json:"firstName"`
	LastName              string    `gorm:"not null" json:"lastName"`
	NationalID            string    `gorm:"column:national_id;uniqueIndex;not null" json:"nationalId"`
	BirthCertificateID    string    `json:"birthCertificateId"`
	City                  string    `gorm:"not null" json:"city"`
	PlaceOfLiving         string    `json:"placeOfLiving"`
	BirthDate             string    `json:"birthDate"`
	Address               string    `json:"address"`
	NationalIDPhoto       string    `gorm:"column:national_id_photo" json:"nationalIdPhoto"`
	BirthCertificatePhoto string    `json:"birthCertificatePhoto"`
	BloodType             string    `json:"bloodType"`
	DiabetesType          string    `json:"diabetesType"`
	ExaminationLink       string    `json:"examinationLink"`
	EmergencyContact      string    `json:"emergencyContact"`
	TreatingPhysician     string    `json:"treatingPhysician"`
	Notes                 string    `json:"notes"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// PublicPatient is what a QR code scanner is allowed to see.
type PublicPatient struct {
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	NationalID            string `json:"nationalId"`
	BirthCertificateID    string `json:"birthCertificateId"`
	City                  string `json:"city"`
	PlaceOfLiving         string `json:"placeOfLiving"`
	BirthDate             string `json:"birthDate"`
	Address               string `json:"address"`
	BloodType             string `json:"bloodType"`
	DiabetesType          string `json:"diabetesType"`
	ExaminationLink       string `json:"examinationLink"`
	EmergencyContact      string `json:"emergencyContact"`
	TreatingPhysician     string `json:"treatingPhysician"`
	NationalIDPhoto       string `json:"nationalIdPhoto"`
	BirthCertificatePhoto string `json:"birthCertificatePhoto"`
}

func (patient Patient) Public() PublicPatient {
	return PublicPatient{
		FirstName:             patient.FirstName,
		LastName:              patient.LastName,
		NationalID:            patient.NationalID,
		BirthCertificateID:    patient.BirthCertificateID,
		City:                  patient.City,
		PlaceOfLiving:         patient.PlaceOfLiving,
		BirthDate:             patient.BirthDate,
		Address:               patient.Address,
		BloodType:             patient.BloodType,
		DiabetesType:          patient.DiabetesType,
		ExaminationLink:       patient.ExaminationLink,
		EmergencyContact:      patient.EmergencyContact,
		TreatingPhysician:     patient.TreatingPhysician,
		NationalIDPhoto:       patient.NationalIDPhoto,
		BirthCertificatePhoto: patient.BirthCertificatePhoto,
	}
}

func (patient Patient) FullName() string {
	return patient.FirstName + " " + patient.LastName
}

func IsBloodType(value string) bool {
	return containsString(BloodTypes, value)
}

func IsDiabetesType(value string) bool {
	return containsString(DiabetesTypes, value)
}

func containsString(values []string, candidate string) bool {
	for _, value := range values {
		if value == candidate {
			return true
		}
	}
	return false
}
