package api

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/i18n"
	"github.com/terraincognita07/diabeticqr/internal/models"
	"github.com/terraincognita07/diabeticqr/internal/nationalid"
)

var pageTemplates = []string{
	"home",
	"login",
	"patients",
	"patient_form",
	"public_patient",
	"not_found",
}

func newTemplateFuncMap() template.FuncMap {
	return template.FuncMap{
		"t":             translateMessage,
		"tf":            templateTranslatef,
		"digits":        templateDigits,
		"diabetesLabel": templateDiabetesLabel,
		"telHref":       templateTelHref,
	}
}

func parsePageTemplates(files fs.FS, funcMap template.FuncMap, pages []string) (map[string]*template.Template, error) {
	parsed := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("base").Funcs(funcMap).ParseFS(files, "base.html", page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", page, err)
		}
		parsed[page] = tmpl
	}
	return parsed, nil
}

func (handler *Handler) render(c *fiber.Ctx, name string, data fiber.Map) error {
	tmpl, ok := handler.templates[name]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("template not found")
	}

	var output bytes.Buffer
	if err := tmpl.ExecuteTemplate(&output, "base", handler.withTemplateDefaults(c, data)); err != nil {
		log.Printf("render %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render template")
	}
	c.Type("html", "utf-8")
	return c.Send(output.Bytes())
}

func (handler *Handler) withTemplateDefaults(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}

	messages := currentMessages(c)
	language := currentLanguage(c)
	if language == "" {
		language = handler.i18n.DefaultLanguage()
	}

	defaults := fiber.Map{
		"Messages":    messages,
		"Lang":        language,
		"Dir":         handler.i18n.Direction(language),
		"Title":       localizedPageTitle(messages, ""),
		"CurrentPath": currentPathWithQuery(c),
		"CSRFToken":   csrfToken(c),
		"IsAdmin":     isAdminRequest(c),
	}
	for key, value := range defaults {
		if _, ok := data[key]; !ok {
			data[key] = value
		}
	}
	return data
}

func templateTranslatef(messages map[string]string, key string, args ...any) string {
	return fmt.Sprintf(translateMessage(messages, key), args...)
}

// templateDigits shows digits in the script of the page language.
func templateDigits(language string, value string) string {
	if language == i18n.LangFA {
		return nationalid.ToDisplayDigits(value)
	}
	return value
}

func templateDiabetesLabel(messages map[string]string, diabetesType string) string {
	switch strings.ToLower(strings.TrimSpace(diabetesType)) {
	case models.DiabetesType1:
		return translateMessage(messages, "diabetes.type1")
	case models.DiabetesType2:
		return translateMessage(messages, "diabetes.type2")
	default:
		return translateMessage(messages, "diabetes.none")
	}
}

func templateTelHref(phone string) template.URL {
	digits := nationalid.DigitsOnly(phone)
	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		digits = "+" + digits
	}
	return template.URL("tel:" + digits)
}
