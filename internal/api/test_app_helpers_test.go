package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/db"
	"github.com/terraincognita07/diabeticqr/internal/i18n"
	"github.com/terraincognita07/diabeticqr/internal/models"
	"github.com/terraincognita07/diabeticqr/internal/services"
	"github.com/terraincognita07/diabeticqr/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testAdminPassword = "correct horse battery staple"
	testSecretKey     = "registry-test-secret-0123456789abcdef"
	testAppURL        = "https://registry.example"
)

type stubCities struct {
	cities []services.City
	err    error
}

func (stub stubCities) Cities() ([]services.City, error) {
	return stub.cities, stub.err
}

type registryTestApp struct {
	app       *fiber.App
	handler   *Handler
	database  *gorm.DB
	uploadDir string
}

func newRegistryTestApp(t *testing.T) *registryTestApp {
	t.Helper()
	return newRegistryTestAppWithCities(t, stubCities{cities: []services.City{
		{ID: 1, Name: "تهران", Slug: "tehran"},
		{ID: 2, Name: "شیراز", Slug: "shiraz"},
	}})
}

func newRegistryTestAppWithCities(t *testing.T, cities CityLister) *registryTestApp {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "registry-api-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	auth, err := services.NewAdminAuthService(string(hash))
	if err != nil {
		t.Fatalf("init admin auth: %v", err)
	}

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	photos, err := storage.NewImageStore(storage.Options{Dir: uploadDir, MaxBytes: 1 << 20, MaxWidth: 400, JPEGQuality: 80})
	if err != nil {
		t.Fatalf("init image store: %v", err)
	}

	i18nManager, err := i18n.NewEmbeddedManager(i18n.LangFA)
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	handler, err := NewHandler(Dependencies{
		Patients: services.NewPatientService(db.NewRepositories(database).Patients),
		Auth:     auth,
		QRCodes:  services.NewQRCodeRenderer(testAppURL, 256),
		Cities:   cities,
		Photos:   photos,
		I18n:     i18nManager,
	}, Options{
		SecretKey:        testSecretKey,
		LoginMaxAttempts: 3,
		LoginWindow:      time.Minute,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	return &registryTestApp{app: app, handler: handler, database: database, uploadDir: uploadDir}
}

func (env *registryTestApp) do(t *testing.T, request *http.Request) *http.Response {
	t.Helper()

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func (env *registryTestApp) login(t *testing.T) string {
	t.Helper()

	request := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"password": testAdminPassword}, "")
	response := env.do(t, request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected login status 200, got %d", response.StatusCode)
	}

	cookie := responseCookie(response.Cookies(), authCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("auth cookie is missing in login response")
	}
	return cookie.Name + "=" + cookie.Value
}

func (env *registryTestApp) createPatient(t *testing.T, authCookie string, payload map[string]any) models.Patient {
	t.Helper()

	response := env.do(t, jsonRequest(t, http.MethodPost, "/api/patients", payload, authCookie))
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected create status 201, got %d: %s", response.StatusCode, readBody(t, response.Body))
	}
	patient := models.Patient{}
	decodeJSON(t, response.Body, &patient)
	return patient
}

func validPatientPayload(nationalID string) map[string]any {
	return map[string]any{
		"firstName":  "سارا",
		"lastName":   "محمدی",
		"nationalId": nationalID,
		"city":       "تهران",
	}
}

func jsonRequest(t *testing.T, method string, target string, payload any, cookie string) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode request payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, target, body)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}
	return request
}

func pageRequest(target string, cookie string) *http.Request {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	request.Header.Set("Accept-Language", "fa")
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}
	return request
}

type testUpload struct {
	filename string
	data     []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]testUpload, cookie string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, upload := range files {
		part, err := writer.CreateFormFile(name, upload.filename)
		if err != nil {
			t.Fatalf("create form file %s: %v", name, err)
		}
		if _, err := part.Write(upload.data); err != nil {
			t.Fatalf("write form file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, target, &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != "" {
		request.Header.Set("Cookie", cookie)
	}
	return request
}

func testPNG(t *testing.T, width int, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("encode png fixture: %v", err)
	}
	return encoded.Bytes()
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie != nil && cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func readBody(t *testing.T, body io.Reader) string {
	t.Helper()

	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(content)
}

func decodeJSON(t *testing.T, body io.Reader, target any) {
	t.Helper()

	if err := json.NewDecoder(body).Decode(target); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

type apiErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func readAPIError(t *testing.T, body io.Reader) apiErrorBody {
	t.Helper()

	payload := apiErrorBody{}
	decodeJSON(t, body, &payload)
	return payload
}

func joinCookieHeader(values ...string) string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return strings.Join(result, "; ")
}
