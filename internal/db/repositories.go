package db

import "gorm.io/gorm"

type Repositories struct {
	Patients *PatientRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Patients: NewPatientRepository(database),
	}
}
