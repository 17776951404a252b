package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/diabeticqr/internal/models"
	"gorm.io/gorm"
)

func newPatientRepositoryForTest(t *testing.T) *PatientRepository {
	t.Helper()
	database := openSQLiteForTest(t, filepath.Join(t.TempDir(), "registry-patients.db"))
	return NewRepositories(database).Patients
}

func seedPatient(t *testing.T, repo *PatientRepository, id string, nationalID string, mutate func(*models.Patient)) models.Patient {
	t.Helper()

	patient := models.Patient{
		ID:           id,
		QRCodeID:     "qr-" + id,
		FirstName:    "First " + id,
		LastName:     "Last " + id,
		NationalID:   nationalID,
		City:         "Tehran",
		DiabetesType: models.DiabetesNone,
	}
	if mutate != nil {
		mutate(&patient)
	}
	if err := repo.Create(&patient); err != nil {
		t.Fatalf("create patient %s: %v", id, err)
	}
	return patient
}

func TestPatientRepositoryFindByIDAndQRCode(t *testing.T) {
	repo := newPatientRepositoryForTest(t)
	created := seedPatient(t, repo, "p1", "0499370899", nil)

	byID, err := repo.FindByID("p1")
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.NationalID != created.NationalID || byID.QRCodeID != created.QRCodeID {
		t.Fatalf("unexpected patient loaded by id: %+v", byID)
	}
	if byID.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	byQR, err := repo.FindByQRCodeID("qr-p1")
	if err != nil {
		t.Fatalf("find by qr code: %v", err)
	}
	if byQR.ID != "p1" {
		t.Fatalf("expected p1 by qr code, got %q", byQR.ID)
	}

	if _, err := repo.FindByID("missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestPatientRepositoryEnforcesUniqueNationalID(t *testing.T) {
	repo := newPatientRepositoryForTest(t)
	seedPatient(t, repo, "p1", "0499370899", nil)

	duplicate := models.Patient{
		ID:         "p2",
		QRCodeID:   "qr-p2",
		FirstName:  "Dup",
		LastName:   "Licate",
		NationalID: "0499370899",
		City:       "Shiraz",
	}
	if err := repo.Create(&duplicate); err == nil {
		t.Fatal("expected duplicate national id insert to fail")
	}

	exists, err := repo.ExistsByNationalID("0499370899", "")
	if err != nil {
		t.Fatalf("exists by national id: %v", err)
	}
	if !exists {
		t.Fatal("expected national id to exist")
	}

	exists, err = repo.ExistsByNationalID("0499370899", "p1")
	if err != nil {
		t.Fatalf("exists by national id excluding owner: %v", err)
	}
	if exists {
		t.Fatal("expected owner to be excluded from duplicate check")
	}
}

func TestPatientRepositoryUpdateAndDelete(t *testing.T) {
	repo := newPatientRepositoryForTest(t)
	seedPatient(t, repo, "p1", "0499370899", nil)

	if err := repo.UpdateFields("p1", map[string]any{"city": "Isfahan", "notes": ""}); err != nil {
		t.Fatalf("update fields: %v", err)
	}
	updated, err := repo.FindByID("p1")
	if err != nil {
		t.Fatalf("reload patient: %v", err)
	}
	if updated.City != "Isfahan" {
		t.Fatalf("expected city Isfahan, got %q", updated.City)
	}

	if err := repo.UpdateFields("missing", map[string]any{"city": "Yazd"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found on missing update, got %v", err)
	}

	if err := repo.Delete("p1"); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if err := repo.Delete("p1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found on second delete, got %v", err)
	}
}

func TestPatientRepositorySearch(t *testing.T) {
	repo := newPatientRepositoryForTest(t)
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	seedPatient(t, repo, "p1", "0499370899", func(p *models.Patient) {
		p.FirstName = "Sara"
		p.City = "Tehran"
		p.CreatedAt = base
	})
	seedPatient(t, repo, "p2", "0123456789", func(p *models.Patient) {
		p.FirstName = "Reza"
		p.City = "Shiraz"
		p.BirthCertificateID = "4412"
		p.CreatedAt = base.Add(time.Hour)
	})
	seedPatient(t, repo, "p3", "0012345679", func(p *models.Patient) {
		p.FirstName = "Maryam"
		p.LastName = "100%_real"
		p.City = "Tabriz"
		p.CreatedAt = base.Add(2 * time.Hour)
	})

	type patientSearch struct {
		Text   string
		Digits string
		Limit  int
		Offset int
	}

	tests := []struct {
		name   string
		search patientSearch
		want   []string
	}{
		{name: "empty lists newest first", search: patientSearch{}, want: []string{"p3", "p2", "p1"}},
		{name: "first name", search: patientSearch{Text: "sara"}, want: []string{"p1"}},
		{name: "city", search: patientSearch{Text: "Shiraz"}, want: []string{"p2"}},
		{name: "birth certificate", search: patientSearch{Text: "441"}, want: []string{"p2"}},
		{name: "qr code id", search: patientSearch{Text: "qr-p3"}, want: []string{"p3"}},
		{name: "national id digits", search: patientSearch{Text: "۰۴۹۹", Digits: "0499"}, want: []string{"p1"}},
		{name: "shared digit run", search: patientSearch{Text: "2345", Digits: "2345"}, want: []string{"p3", "p2"}},
		{name: "like wildcards are literal", search: patientSearch{Text: "%_"}, want: []string{"p3"}},
		{name: "no match", search: patientSearch{Text: "nobody"}, want: []string{}},
		{name: "paged", search: patientSearch{Limit: 1, Offset: 1}, want: []string{"p2"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			patients, total, err := repo.Search(test.search.Text, test.search.Digits, test.search.Limit, test.search.Offset)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			got := make([]string, 0, len(patients))
			for _, patient := range patients {
				got = append(got, patient.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(test.want) {
				t.Fatalf("expected %v, got %v", test.want, got)
			}
			if test.search.Limit == 0 && int(total) != len(test.want) {
				t.Fatalf("expected total %d, got %d", len(test.want), total)
			}
			if test.search.Limit > 0 && total != 3 {
				t.Fatalf("expected paged total 3, got %d", total)
			}
		})
	}
}

func TestPatientRepositoryUniqueNationalIDIndex(t *testing.T) {
	repo := newPatientRepositoryForTest(t)
	seedPatient(t, repo, "p1", "0499370899", nil)
	second := seedPatient(t, repo, "p2", "0012345679", nil)

	duplicate := models.Patient{
		ID:           "p3",
		QRCodeID:     "qr-p3",
		FirstName:    "First",
		LastName:     "Last",
		NationalID:   "0499370899",
		City:         "Tehran",
		DiabetesType: models.DiabetesNone,
	}
	err := repo.Create(&duplicate)
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint failed") || !strings.Contains(err.Error(), "national_id") {
		t.Fatalf("expected unique national_id violation on create, got %v", err)
	}

	err = repo.UpdateFields(second.ID, map[string]any{"national_id": "0499370899"})
	if err == nil || !strings.Contains(err.Error(), "national_id") {
		t.Fatalf("expected unique national_id violation on update, got %v", err)
	}
}
