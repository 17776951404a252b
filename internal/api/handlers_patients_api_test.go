package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/terraincognita07/diabeticqr/internal/models"
	"github.com/terraincognita07/diabeticqr/internal/security"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

func TestCreatePatientNormalizesNationalID(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)

	payload := validPatientPayload("۰۴۹۹-۳۷۰-۸۹۹")
	payload["bloodType"] = "o+"
	payload["diabetesType"] = "Type1"
	payload["emergencyContact"] = "۰۹۱۲۱۲۳۴۵۶۷"

	patient := env.createPatient(t, authCookie, payload)
	if patient.NationalID != "0499370899" {
		t.Fatalf("expected canonical national id, got %q", patient.NationalID)
	}
	if patient.BloodType != "O+" || patient.DiabetesType != models.DiabetesType1 {
		t.Fatalf("expected normalized enums, got %q %q", patient.BloodType, patient.DiabetesType)
	}
	if patient.ID == "" || !security.IsQRCodeID(patient.QRCodeID) {
		t.Fatalf("expected generated identifiers, got id=%q qr=%q", patient.ID, patient.QRCodeID)
	}

	stored := models.Patient{}
	if err := env.database.Where("id = ?", patient.ID).First(&stored).Error; err != nil {
		t.Fatalf("load stored patient: %v", err)
	}
	if stored.NationalID != "0499370899" {
		t.Fatalf("expected stored canonical national id, got %q", stored.NationalID)
	}
}

func TestCreatePatientValidationErrors(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)
	env.createPatient(t, authCookie, validPatientPayload("0499370899"))

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		status  int
		code    string
		message string
	}{
		{
			name:    "missing city",
			mutate:  func(p map[string]any) { delete(p, "city") },
			status:  http.StatusBadRequest,
			code:    "error.required_fields",
			message: "نام، نام خانوادگی، کد ملی و شهر الزامی هستند",
		},
		{
			name:    "bad checksum",
			mutate:  func(p map[string]any) { p["nationalId"] = "2234567899" },
			status:  http.StatusBadRequest,
			code:    "error.invalid_national_id",
			message: "کد ملی نامعتبر است. لطفاً ۱۰ رقم صحیح را وارد کنید.",
		},
		{
			name:    "repeated digits",
			mutate:  func(p map[string]any) { p["nationalId"] = "۱۱۱۱۱۱۱۱۱۱" },
			status:  http.StatusBadRequest,
			code:    "error.invalid_national_id",
			message: "کد ملی نامعتبر است. لطفاً ۱۰ رقم صحیح را وارد کنید.",
		},
		{
			name:   "duplicate after normalization",
			mutate: func(p map[string]any) { p["nationalId"] = "٠٤٩٩٣٧٠٨٩٩" },
			status: http.StatusConflict,
			code:   "error.duplicate_national_id",
		},
		{
			name:   "unknown blood type",
			mutate: func(p map[string]any) { p["bloodType"] = "C+" },
			status: http.StatusBadRequest,
			code:   "error.invalid_blood_type",
		},
		{
			name:   "script examination link",
			mutate: func(p map[string]any) { p["examinationLink"] = "javascript:alert(1)" },
			status: http.StatusBadRequest,
			code:   "error.invalid_examination_link",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := validPatientPayload("0012345679")
			test.mutate(payload)

			response := env.do(t, jsonRequest(t, http.MethodPost, "/api/patients", payload, authCookie))
			if response.StatusCode != test.status {
				t.Fatalf("expected status %d, got %d", test.status, response.StatusCode)
			}
			body := readAPIError(t, response.Body)
			if body.Code != test.code {
				t.Fatalf("expected code %q, got %+v", test.code, body)
			}
			if test.message != "" && body.Error != test.message {
				t.Fatalf("expected message %q, got %q", test.message, body.Error)
			}
		})
	}

	var count int64
	if err := env.database.Model(&models.Patient{}).Count(&count).Error; err != nil {
		t.Fatalf("count patients: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rejected creates to leave one patient, got %d", count)
	}
}

func TestCreatePatientRejectsMalformedJSON(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)

	request := jsonRequest(t, http.MethodPost, "/api/patients", nil, authCookie)
	request.Body = http.NoBody
	response := env.do(t, request)
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
	if body := readAPIError(t, response.Body); body.Code != "error.invalid_input" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestGetUpdateDeletePatient(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)

	payload := validPatientPayload("0499370899")
	payload["notes"] = "insulin twice a day"
	payload["address"] = "خیابان ولیعصر"
	created := env.createPatient(t, authCookie, payload)

	getResponse := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients/"+created.ID, nil, authCookie))
	if getResponse.StatusCode != http.StatusOK {
		t.Fatalf("expected get status 200, got %d", getResponse.StatusCode)
	}

	update := map[string]any{"city": "شیراز", "notes": "", "nationalId": "۰۰۱۲۳۴۵۶۷۹"}
	updateResponse := env.do(t, jsonRequest(t, http.MethodPut, "/api/patients/"+created.ID, update, authCookie))
	if updateResponse.StatusCode != http.StatusOK {
		t.Fatalf("expected update status 200, got %d: %s", updateResponse.StatusCode, readBody(t, updateResponse.Body))
	}
	updated := models.Patient{}
	decodeJSON(t, updateResponse.Body, &updated)
	if updated.City != "شیراز" || updated.Notes != "" || updated.NationalID != "0012345679" {
		t.Fatalf("unexpected updated patient %+v", updated)
	}
	if updated.Address != "خیابان ولیعصر" || updated.FirstName != created.FirstName {
		t.Fatalf("expected untouched fields to survive, got %+v", updated)
	}
	if updated.QRCodeID != created.QRCodeID {
		t.Fatal("expected qr code id to stay stable across updates")
	}

	clearRequired := env.do(t, jsonRequest(t, http.MethodPut, "/api/patients/"+created.ID, map[string]any{"firstName": " "}, authCookie))
	if clearRequired.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected clearing a required field to fail, got %d", clearRequired.StatusCode)
	}

	deleteResponse := env.do(t, jsonRequest(t, http.MethodDelete, "/api/patients/"+created.ID, nil, authCookie))
	if deleteResponse.StatusCode != http.StatusOK {
		t.Fatalf("expected delete status 200, got %d", deleteResponse.StatusCode)
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		response := env.do(t, jsonRequest(t, method, "/api/patients/"+created.ID, map[string]any{}, authCookie))
		if response.StatusCode != http.StatusNotFound {
			t.Fatalf("%s after delete: expected status 404, got %d", method, response.StatusCode)
		}
		if body := readAPIError(t, response.Body); body.Error != "بیمار یافت نشد" {
			t.Fatalf("%s after delete: unexpected error %+v", method, body)
		}
	}
}

func TestListPatientsSearchesAcrossDigitScripts(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)

	first := validPatientPayload("0499370899")
	first["firstName"] = "Sara"
	env.createPatient(t, authCookie, first)

	second := validPatientPayload("0012345679")
	second["firstName"] = "Reza"
	second["city"] = "Shiraz"
	env.createPatient(t, authCookie, second)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Reza", "Sara"}},
		{query: "sara", want: []string{"Sara"}},
		{query: "۰۴۹۹", want: []string{"Sara"}},
		{query: "٣٤٥", want: []string{"Reza"}},
		{query: "shiraz", want: []string{"Reza"}},
		{query: "nobody", want: []string{}},
	}

	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			target := "/api/patients?search=" + url.QueryEscape(test.query)
			response := env.do(t, jsonRequest(t, http.MethodGet, target, nil, authCookie))
			if response.StatusCode != http.StatusOK {
				t.Fatalf("expected status 200, got %d", response.StatusCode)
			}
			page := services.PatientPage{}
			decodeJSON(t, response.Body, &page)

			got := make([]string, 0, len(page.Items))
			for _, patient := range page.Items {
				got = append(got, patient.FirstName)
			}
			if fmt.Sprint(got) != fmt.Sprint(test.want) {
				t.Fatalf("expected %v, got %v", test.want, got)
			}
			if page.Total != int64(len(test.want)) {
				t.Fatalf("expected total %d, got %d", len(test.want), page.Total)
			}
		})
	}

	paged := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients?page=2&per_page=1", nil, authCookie))
	page := services.PatientPage{}
	decodeJSON(t, paged.Body, &page)
	if page.Page != 2 || page.PerPage != 1 || page.Total != 2 || len(page.Items) != 1 || page.Items[0].FirstName != "Sara" {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestPublicPatientLookupHidesInternalFields(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)

	payload := validPatientPayload("0499370899")
	payload["notes"] = "internal note"
	created := env.createPatient(t, authCookie, payload)

	response := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients/qr/"+created.QRCodeID, nil, ""))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected public status 200, got %d", response.StatusCode)
	}
	body := readBody(t, response.Body)
	if !strings.Contains(body, `"nationalId":"0499370899"`) {
		t.Fatalf("expected national id in public payload, got %s", body)
	}
	for _, hidden := range []string{"internal note", created.ID, `"notes"`, `"createdAt"`} {
		if strings.Contains(body, hidden) {
			t.Fatalf("expected public payload to hide %q, got %s", hidden, body)
		}
	}

	missing := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients/qr/unknown-code", nil, ""))
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", missing.StatusCode)
	}
}

func TestPatientQRCodeEndpoint(t *testing.T) {
	env := newRegistryTestApp(t)
	authCookie := env.login(t)
	created := env.createPatient(t, authCookie, validPatientPayload("0499370899"))

	response := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients/"+created.ID+"/qr", nil, authCookie))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	payload := map[string]string{}
	decodeJSON(t, response.Body, &payload)
	if payload["qrUrl"] != testAppURL+"/patient/"+created.QRCodeID {
		t.Fatalf("unexpected qr url %q", payload["qrUrl"])
	}
	if !strings.HasPrefix(payload["qrCode"], "data:image/png;base64,") {
		t.Fatalf("expected png data url, got %q", payload["qrCode"])
	}

	download := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients/"+created.ID+"/qr?format=png", nil, authCookie))
	if download.StatusCode != http.StatusOK {
		t.Fatalf("expected download status 200, got %d", download.StatusCode)
	}
	if contentType := download.Header.Get("Content-Type"); contentType != "image/png" {
		t.Fatalf("expected image/png, got %q", contentType)
	}
	wantDisposition := fmt.Sprintf(`attachment; filename="patient-%s.png"`, created.QRCodeID)
	if disposition := download.Header.Get("Content-Disposition"); disposition != wantDisposition {
		t.Fatalf("expected disposition %q, got %q", wantDisposition, disposition)
	}
	if body := readBody(t, download.Body); !strings.HasPrefix(body, "\x89PNG") {
		t.Fatal("expected png body")
	}

	unauthorized := env.do(t, jsonRequest(t, http.MethodGet, "/api/patients/"+created.ID+"/qr", nil, ""))
	if unauthorized.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without session, got %d", unauthorized.StatusCode)
	}
}

func TestListCities(t *testing.T) {
	env := newRegistryTestApp(t)

	response := env.do(t, jsonRequest(t, http.MethodGet, "/api/cities", nil, ""))
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}
	cities := []services.City{}
	decodeJSON(t, response.Body, &cities)
	if len(cities) != 2 || cities[0].Name != "تهران" {
		t.Fatalf("unexpected cities %+v", cities)
	}

	failing := newRegistryTestAppWithCities(t, stubCities{err: services.ErrCitiesUnavailable})
	failed := failing.do(t, jsonRequest(t, http.MethodGet, "/api/cities", nil, ""))
	if failed.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", failed.StatusCode)
	}
	if body := readAPIError(t, failed.Body); body.Error != "خطا در دریافت لیست شهرها" {
		t.Fatalf("unexpected cities error %+v", body)
	}
}
