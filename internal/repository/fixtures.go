package repository

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"altomayo/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/catalog.yaml
var defaultCatalog []byte

// Catalog начальный набор данных: поездки и бронирования.
type Catalog struct {
	Experiences  []model.Experience
	Reservations []model.Reservation
}

type experienceFixture struct {
	ID                  int             `yaml:"id"`
	Title               string          `yaml:"title"`
	Description         string          `yaml:"description"`
	Location            string          `yaml:"location"`
	PriceCents          int64           `yaml:"price_cents"`
	Duration            string          `yaml:"duration"`
	StartDate           string          `yaml:"start_date"`
	Images              []string        `yaml:"images"`
	Itinerary           []model.DayPlan `yaml:"itinerary"`
	Includes            []string        `yaml:"includes"`
	MinParticipants     int             `yaml:"min_participants"`
	CurrentParticipants int             `yaml:"current_participants"`
}

type reservationFixture struct {
	ID            int    `yaml:"id"`
	ExperienceID  int    `yaml:"experience_id"`
	CustomerName  string `yaml:"customer_name"`
	CustomerEmail string `yaml:"customer_email"`
	Participants  int    `yaml:"participants"`
	Status        string `yaml:"status"`
}

type catalogFixture struct {
	Experiences  []experienceFixture  `yaml:"experiences"`
	Reservations []reservationFixture `yaml:"reservations"`
}

// DefaultCatalog встроенный каталог Alto Mayo.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog читает каталог из YAML-файла; пустой путь означает встроенный каталог.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog разбирает YAML и проверяет инварианты каждой записи.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw catalogFixture
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}

	catalog := &Catalog{}
	byID := make(map[int]model.Experience, len(raw.Experiences))
	for _, f := range raw.Experiences {
		start, err := time.Parse(model.DateLayout, f.StartDate)
		if err != nil {
			return nil, fmt.Errorf("поездка %d: некорректная дата %q: %w", f.ID, f.StartDate, err)
		}
		e := model.Experience{
			ID:                  f.ID,
			Title:               f.Title,
			Description:         f.Description,
			Location:            f.Location,
			Price:               model.Money(f.PriceCents),
			Duration:            f.Duration,
			StartDate:           start,
			Images:              f.Images,
			Itinerary:           f.Itinerary,
			Includes:            f.Includes,
			MinParticipants:     f.MinParticipants,
			CurrentParticipants: f.CurrentParticipants,
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", model.ErrInvalidExperience, e.ID)
		}
		byID[e.ID] = e
		catalog.Experiences = append(catalog.Experiences, e)
	}

	for _, f := range raw.Reservations {
		e, ok := byID[f.ExperienceID]
		if !ok {
			return nil, fmt.Errorf("бронирование %d ссылается на неизвестную поездку %d", f.ID, f.ExperienceID)
		}
		status := model.ReservationStatus(f.Status)
		if status == "" {
			status = model.ReservationReserved
		}
		catalog.Reservations = append(catalog.Reservations, model.Reservation{
			ID:            f.ID,
			ExperienceID:  f.ExperienceID,
			CustomerName:  f.CustomerName,
			CustomerEmail: f.CustomerEmail,
			Participants:  f.Participants,
			TotalPrice:    e.Price.Times(f.Participants),
			Status:        status,
			Date:          e.StartDate,
			CreatedAt:     e.StartDate.AddDate(0, -1, 0),
		})
	}
	return catalog, nil
}
