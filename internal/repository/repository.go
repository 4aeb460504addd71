package repository

import (
	"context"
	"errors"

	"altomayo/internal/model"
)

var (
	// ErrNotFound запись с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrCapacityExceeded в поездке недостаточно свободных мест до порога подтверждения.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidTransition недопустимая смена статуса бронирования.
	ErrInvalidTransition = errors.New("invalid reservation status transition")
)

// ExperienceRepository источник данных каталога поездок.
// AddParticipants единственная операция записи: положительное n допускается только
// в пределах свободных мест, отрицательное используется для компенсации.
type ExperienceRepository interface {
	FetchAll(ctx context.Context) ([]model.Experience, error)
	FetchByID(ctx context.Context, id int) (*model.Experience, error)
	AddParticipants(ctx context.Context, id int, n int) (*model.Experience, error)
}

// ReservationRepository хранилище записей о бронированиях.
type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) (int, error)
	GetByID(ctx context.Context, id int) (*model.Reservation, error)
	List(ctx context.Context) ([]model.Reservation, error)
	// ConfirmReserved переводит все reserved-брони поездки в confirmed и возвращает их число.
	ConfirmReserved(ctx context.Context, experienceID int) (int, error)
	// UpdateStatus меняет статус только если текущий статус равен from.
	UpdateStatus(ctx context.Context, id int, from, to model.ReservationStatus) error
}
