package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"altomayo/internal/model"

	"github.com/jmoiron/sqlx"
)

// SQLReservationRepository обеспечивает доступ к данным бронирований в базе данных.
type SQLReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository создает новый репозиторий для бронирований.
func NewReservationRepository(db *sqlx.DB) *SQLReservationRepository {
	return &SQLReservationRepository{db: db}
}

// Create создает новую запись о бронировании.
func (r *SQLReservationRepository) Create(ctx context.Context, res *model.Reservation) (int, error) {
	query := r.db.Rebind(`INSERT INTO reservations
		(experience_id, customer_name, customer_email, participants, total_price_cents, status, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int
	err := r.db.QueryRowContext(ctx, query,
		res.ExperienceID, res.CustomerName, res.CustomerEmail, res.Participants,
		int64(res.TotalPrice), string(res.Status), res.Date, res.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать бронирование: %w", err)
	}
	res.ID = id
	return id, nil
}

// GetByID возвращает бронирование по ID.
func (r *SQLReservationRepository) GetByID(ctx context.Context, id int) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.GetContext(ctx, &res, r.db.Rebind("SELECT * FROM reservations WHERE id=?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении бронирования %d: %w", id, err)
	}
	return &res, nil
}

// List возвращает все бронирования по возрастанию ID.
func (r *SQLReservationRepository) List(ctx context.Context) ([]model.Reservation, error) {
	reservations := []model.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, "SELECT * FROM reservations ORDER BY id"); err != nil {
		return nil, fmt.Errorf("ошибка при получении списка бронирований: %w", err)
	}
	return reservations, nil
}

// ConfirmReserved подтверждает все ожидающие брони поездки.
func (r *SQLReservationRepository) ConfirmReserved(ctx context.Context, experienceID int) (int, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE reservations SET status=? WHERE experience_id=? AND status=?"),
		string(model.ReservationConfirmed), experienceID, string(model.ReservationReserved))
	if err != nil {
		return 0, fmt.Errorf("не удалось подтвердить бронирования: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("не удалось подтвердить бронирования: %w", err)
	}
	return int(n), nil
}

// UpdateStatus обновляет статус бронирования, если текущий статус равен from.
func (r *SQLReservationRepository) UpdateStatus(ctx context.Context, id int, from, to model.ReservationStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE reservations SET status=? WHERE id=? AND status=?"),
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("не удалось обновить статус бронирования: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
}
