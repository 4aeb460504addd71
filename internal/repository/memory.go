package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"altomayo/internal/availability"
	"altomayo/internal/model"
)

// MemoryExperienceRepository каталог поездок в памяти процесса.
type MemoryExperienceRepository struct {
	mu    sync.RWMutex
	items map[int]model.Experience
	order []int
}

// NewMemoryExperienceRepository создает каталог из готового списка поездок.
func NewMemoryExperienceRepository(experiences []model.Experience) (*MemoryExperienceRepository, error) {
	r := &MemoryExperienceRepository{items: make(map[int]model.Experience, len(experiences))}
	for _, e := range experiences {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.items[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", model.ErrInvalidExperience, e.ID)
		}
		r.items[e.ID] = e
		r.order = append(r.order, e.ID)
	}
	return r, nil
}

// FetchAll возвращает поездки в порядке загрузки.
func (r *MemoryExperienceRepository) FetchAll(_ context.Context) ([]model.Experience, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Experience, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

// FetchByID возвращает поездку по идентификатору.
func (r *MemoryExperienceRepository) FetchByID(_ context.Context, id int) (*model.Experience, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// AddParticipants атомарно меняет число участников.
func (r *MemoryExperienceRepository) AddParticipants(_ context.Context, id int, n int) (*model.Experience, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if n > 0 && n > availability.SpotsLeft(e.MinParticipants, e.CurrentParticipants) {
		return nil, ErrCapacityExceeded
	}
	if e.CurrentParticipants+n < 0 {
		return nil, fmt.Errorf("поездка %d: число участников не может стать отрицательным", id)
	}
	e.CurrentParticipants += n
	r.items[id] = e
	return &e, nil
}

// MemoryReservationRepository бронирования в памяти процесса.
type MemoryReservationRepository struct {
	mu     sync.RWMutex
	items  map[int]model.Reservation
	nextID int
}

// NewMemoryReservationRepository создает хранилище с начальными записями.
func NewMemoryReservationRepository(seed []model.Reservation) *MemoryReservationRepository {
	r := &MemoryReservationRepository{items: make(map[int]model.Reservation, len(seed)), nextID: 1}
	for _, res := range seed {
		r.items[res.ID] = res
		if res.ID >= r.nextID {
			r.nextID = res.ID + 1
		}
	}
	return r
}

// Create сохраняет новое бронирование и возвращает его ID.
func (r *MemoryReservationRepository) Create(_ context.Context, res *model.Reservation) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.ID = r.nextID
	r.nextID++
	r.items[res.ID] = *res
	return res.ID, nil
}

// GetByID возвращает бронирование по ID.
func (r *MemoryReservationRepository) GetByID(_ context.Context, id int) (*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

// List возвращает все бронирования по возрастанию ID.
func (r *MemoryReservationRepository) List(_ context.Context) ([]model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Reservation, 0, len(r.items))
	for _, res := range r.items {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ConfirmReserved подтверждает все ожидающие брони поездки.
func (r *MemoryReservationRepository) ConfirmReserved(_ context.Context, experienceID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, res := range r.items {
		if res.ExperienceID == experienceID && res.Status == model.ReservationReserved {
			res.Status = model.ReservationConfirmed
			r.items[id] = res
			n++
		}
	}
	return n, nil
}

// UpdateStatus меняет статус бронирования при совпадении текущего статуса.
func (r *MemoryReservationRepository) UpdateStatus(_ context.Context, id int, from, to model.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	if res.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, to)
	}
	res.Status = to
	r.items[id] = res
	return nil
}
