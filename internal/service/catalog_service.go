package service

import (
	"context"
	"fmt"
	"time"

	"altomayo/internal/availability"
	"altomayo/internal/model"
	"altomayo/internal/repository"
)

// ExperienceView поездка вместе с производными показателями для представлений.
type ExperienceView struct {
	model.Experience
	Availability availability.Availability `json:"availability"`
	Status       model.ExperienceStatus    `json:"status"`
}

// CatalogService содержит бизнес-логику чтения каталога поездок.
type CatalogService struct {
	repo repository.ExperienceRepository
	now  func() time.Time
}

// NewCatalogService создает новый сервис каталога.
func NewCatalogService(repo repository.ExperienceRepository) *CatalogService {
	return &CatalogService{repo: repo, now: time.Now}
}

// List возвращает все поездки с рассчитанной заполненностью.
func (s *CatalogService) List(ctx context.Context) ([]ExperienceView, error) {
	exps, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить каталог: %w", err)
	}
	views := make([]ExperienceView, 0, len(exps))
	for _, e := range exps {
		v, err := s.view(e)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Get возвращает поездку по ID или repository.ErrNotFound.
func (s *CatalogService) Get(ctx context.Context, id int) (*ExperienceView, error) {
	e, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.view(*e)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Price цена поездки за одного участника; для неизвестной поездки ноль.
func (s *CatalogService) Price(id int) model.Money {
	e, err := s.repo.FetchByID(context.Background(), id)
	if err != nil {
		return 0
	}
	return e.Price
}

func (s *CatalogService) view(e model.Experience) (ExperienceView, error) {
	a, err := availability.Of(e)
	if err != nil {
		return ExperienceView{}, fmt.Errorf("поездка %d: %w", e.ID, err)
	}
	return ExperienceView{Experience: e, Availability: a, Status: availability.Status(e, s.now())}, nil
}
