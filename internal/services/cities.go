package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var ErrCitiesUnavailable = errors.New("cities unavailable")

const (
	DefaultCitiesAPIURL  = "https://api.divar.ir/v8/places/cities"
	DefaultCitiesTTL     = 24 * time.Hour
	defaultCitiesTimeout = 10 * time.Second
)

type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type citiesResponse struct {
	Cities []City `json:"cities"`
}

// CityDirectory serves the upstream city list sorted in Persian order and
// keeps the last good copy when the upstream fails.
type CityDirectory struct {
	endpoint string
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cities    []City
	fetchedAt time.Time
}

func NewCityDirectory(endpoint string, ttl time.Duration) *CityDirectory {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultCitiesAPIURL
	}
	if ttl <= 0 {
		ttl = DefaultCitiesTTL
	}
	return &CityDirectory{
		endpoint: endpoint,
		ttl:      ttl,
		timeout:  defaultCitiesTimeout,
		now:      time.Now,
	}
}

func (directory *CityDirectory) Cities() ([]City, error) {
	directory.mu.Lock()
	defer directory.mu.Unlock()

	now := directory.now()
	if directory.cities != nil && now.Sub(directory.fetchedAt) < directory.ttl {
		return copyCities(directory.cities), nil
	}

	cities, err := directory.fetch()
	if err != nil {
		if directory.cities != nil {
			log.Printf("cities: serving cached list after upstream failure: %v", err)
			return copyCities(directory.cities), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCitiesUnavailable, err)
	}

	directory.cities = cities
	directory.fetchedAt = now
	return copyCities(cities), nil
}

func (directory *CityDirectory) fetch() ([]City, error) {
	agent := fiber.Get(directory.endpoint).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Timeout(directory.timeout)

	var payload citiesResponse
	status, _, errs := agent.Struct(&payload)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", status)
	}

	cities := make([]City, 0, len(payload.Cities))
	for _, city := range payload.Cities {
		city.Name = strings.TrimSpace(city.Name)
		if city.Name == "" {
			continue
		}
		cities = append(cities, city)
	}
	SortCitiesPersian(cities)
	return cities, nil
}

// SortCitiesPersian orders cities by name using Persian collation.
func SortCitiesPersian(cities []City) {
	collator := collate.New(language.Persian)
	sort.SliceStable(cities, func(i, j int) bool {
		return collator.CompareString(cities[i].Name, cities[j].Name) < 0
	})
}

func copyCities(cities []City) []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}
