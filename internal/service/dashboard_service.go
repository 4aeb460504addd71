package service

import (
	"context"
	"fmt"

	"altomayo/internal/model"
	"altomayo/internal/repository"
)

// Stats сводные показатели панели агентства.
type Stats struct {
	TotalRevenue      model.Money `json:"totalRevenueCents"`
	ActiveExperiences int         `json:"activeExperiences"`
	TotalParticipants int         `json:"totalParticipants"`
	Locations         int         `json:"locations"`
}

// ReservationView бронирование с названием поездки.
type ReservationView struct {
	model.Reservation
	ExperienceTitle string `json:"experienceTitle"`
}

// Dashboard все данные панели агентства.
type Dashboard struct {
	Stats        Stats
	Experiences  []ExperienceView
	Reservations []ReservationView
}

// DashboardService собирает данные для панели агентства.
type DashboardService struct {
	catalog      *CatalogService
	reservations repository.ReservationRepository
}

func NewDashboardService(catalog *CatalogService, reservations repository.ReservationRepository) *DashboardService {
	return &DashboardService{catalog: catalog, reservations: reservations}
}

// Load считает показатели по текущему состоянию каталога и броней.
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	exps, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.reservations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить бронирования: %w", err)
	}

	titles := make(map[int]string, len(exps))
	locations := make(map[string]struct{})
	d := &Dashboard{Experiences: exps}
	for _, e := range exps {
		titles[e.ID] = e.Title
		locations[e.Location] = struct{}{}
		d.Stats.TotalParticipants += e.CurrentParticipants
		if e.Status != model.ExperienceCompleted {
			d.Stats.ActiveExperiences++
		}
	}
	d.Stats.Locations = len(locations)

	d.Reservations = make([]ReservationView, 0, len(recs))
	for _, r := range recs {
		d.Stats.TotalRevenue += r.TotalPrice
		title, ok := titles[r.ExperienceID]
		if !ok {
			title = fmt.Sprintf("Experience #%d", r.ExperienceID)
		}
		d.Reservations = append(d.Reservations, ReservationView{Reservation: r, ExperienceTitle: title})
	}
	return d, nil
}
