package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/diabeticqr/internal/services"
)

func (handler *Handler) ListCities(c *fiber.Ctx) error {
	if handler.cities == nil {
		return apiError(c, fiber.StatusBadGateway, "error.cities_failed")
	}
	cities, err := handler.cities.Cities()
	if err != nil {
		log.Printf("list cities: %v", err)
		return apiError(c, fiber.StatusBadGateway, "error.cities_failed")
	}
	return c.JSON(cities)
}

// formCities is best effort: the form still works with free-text cities when
// the directory is down.
func (handler *Handler) formCities() []services.City {
	if handler.cities == nil {
		return nil
	}
	cities, err := handler.cities.Cities()
	if err != nil {
		log.Printf("load cities for form: %v", err)
		return nil
	}
	return cities
}
