package service

import (
	"context"
	"sort"
	"strings"

	"altomayo/internal/model"
)

// ExperienceFilter параметры поиска по каталогу. Пустые поля не ограничивают выборку.
type ExperienceFilter struct {
	Location string `form:"location"`
	Keyword  string `form:"q"`
	// OpenOnly только группы, которые еще набираются.
	OpenOnly bool `form:"open"`
}

// Match проверяет, подходит ли поездка под фильтр.
func (f ExperienceFilter) Match(v ExperienceView) bool {
	if f.Location != "" && !strings.EqualFold(f.Location, "any") && !strings.EqualFold(v.Location, f.Location) {
		return false
	}
	if f.OpenOnly && v.Availability.SpotsLeft == 0 {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		return strings.Contains(strings.ToLower(v.Title), kw) || strings.Contains(strings.ToLower(v.Description), kw)
	}
	return true
}

// LocationService поиск по каталогу и сводка по местам проведения.
type LocationService struct {
	catalog *CatalogService
}

// NewLocationService создает новый сервис локаций.
func NewLocationService(catalog *CatalogService) *LocationService {
	return &LocationService{catalog: catalog}
}

// SearchExperiences выполняет поиск поездок по месту и/или ключевому слову.
func (s *LocationService) SearchExperiences(ctx context.Context, f ExperienceFilter) ([]ExperienceView, error) {
	views, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	found := make([]ExperienceView, 0, len(views))
	for _, v := range views {
		if f.Match(v) {
			found = append(found, v)
		}
	}
	return found, nil
}

// Locations места проведения в алфавитном порядке.
func (s *LocationService) Locations(ctx context.Context) ([]model.Location, error) {
	views, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]*model.Location{}
	for _, v := range views {
		loc, ok := byName[v.Location]
		if !ok {
			loc = &model.Location{Name: v.Location}
			byName[v.Location] = loc
		}
		loc.Experiences++
		loc.SpotsLeft += v.Availability.SpotsLeft
	}
	locations := make([]model.Location, 0, len(byName))
	for _, loc := range byName {
		locations = append(locations, *loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })
	return locations, nil
}
