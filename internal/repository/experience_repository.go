package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"altomayo/internal/model"

	"github.com/jmoiron/sqlx"
)

// SQLExperienceRepository обеспечивает доступ к каталогу поездок в базе данных.
type SQLExperienceRepository struct {
	db *sqlx.DB
}

// NewExperienceRepository создает новый репозиторий поездок.
func NewExperienceRepository(db *sqlx.DB) *SQLExperienceRepository {
	return &SQLExperienceRepository{db: db}
}

// Списки хранятся в текстовых колонках как JSON.
type experienceRow struct {
	ID                  int       `db:"id"`
	Title               string    `db:"title"`
	Description         string    `db:"description"`
	Location            string    `db:"location"`
	PriceCents          int64     `db:"price_cents"`
	Duration            string    `db:"duration"`
	StartDate           time.Time `db:"start_date"`
	Images              string    `db:"images"`
	Itinerary           string    `db:"itinerary"`
	Includes            string    `db:"includes"`
	MinParticipants     int       `db:"min_participants"`
	CurrentParticipants int       `db:"current_participants"`
}

func toExperienceRow(e model.Experience) (experienceRow, error) {
	images, err := json.Marshal(e.Images)
	if err != nil {
		return experienceRow{}, err
	}
	itinerary, err := json.Marshal(e.Itinerary)
	if err != nil {
		return experienceRow{}, err
	}
	includes, err := json.Marshal(e.Includes)
	if err != nil {
		return experienceRow{}, err
	}
	return experienceRow{
		ID:                  e.ID,
		Title:               e.Title,
		Description:         e.Description,
		Location:            e.Location,
		PriceCents:          int64(e.Price),
		Duration:            e.Duration,
		StartDate:           e.StartDate,
		Images:              string(images),
		Itinerary:           string(itinerary),
		Includes:            string(includes),
		MinParticipants:     e.MinParticipants,
		CurrentParticipants: e.CurrentParticipants,
	}, nil
}

func (row experienceRow) toModel() (model.Experience, error) {
	e := model.Experience{
		ID:                  row.ID,
		Title:               row.Title,
		Description:         row.Description,
		Location:            row.Location,
		Price:               model.Money(row.PriceCents),
		Duration:            row.Duration,
		StartDate:           row.StartDate.UTC(),
		MinParticipants:     row.MinParticipants,
		CurrentParticipants: row.CurrentParticipants,
	}
	if err := json.Unmarshal([]byte(row.Images), &e.Images); err != nil {
		return e, fmt.Errorf("поездка %d: некорректный список изображений: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Itinerary), &e.Itinerary); err != nil {
		return e, fmt.Errorf("поездка %d: некорректная программа: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Includes), &e.Includes); err != nil {
		return e, fmt.Errorf("поездка %d: некорректный список включенного: %w", row.ID, err)
	}
	return e, e.Validate()
}

// FetchAll возвращает все поездки по возрастанию ID.
func (r *SQLExperienceRepository) FetchAll(ctx context.Context) ([]model.Experience, error) {
	rows := []experienceRow{}
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM experiences ORDER BY id"); err != nil {
		return nil, fmt.Errorf("ошибка при получении списка поездок: %w", err)
	}
	experiences := make([]model.Experience, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		experiences = append(experiences, e)
	}
	return experiences, nil
}

// FetchByID получает поездку по ее идентификатору.
func (r *SQLExperienceRepository) FetchByID(ctx context.Context, id int) (*model.Experience, error) {
	var row experienceRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT * FROM experiences WHERE id=?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении поездки %d: %w", id, err)
	}
	e, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AddParticipants меняет число участников одним условным UPDATE, поэтому
// параллельные бронирования не могут превысить порог подтверждения.
func (r *SQLExperienceRepository) AddParticipants(ctx context.Context, id int, n int) (*model.Experience, error) {
	query := r.db.Rebind(`UPDATE experiences SET current_participants = current_participants + ?
		WHERE id = ? AND current_participants + ? >= 0 AND (? <= 0 OR min_participants - current_participants >= ?)`)
	res, err := r.db.ExecContext(ctx, query, n, id, n, n, n)
	if err != nil {
		return nil, fmt.Errorf("не удалось обновить число участников: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("не удалось обновить число участников: %w", err)
	}
	if affected == 0 {
		if _, err := r.FetchByID(ctx, id); err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrCapacityExceeded
		}
		return nil, fmt.Errorf("поездка %d: число участников не может стать отрицательным", id)
	}
	return r.FetchByID(ctx, id)
}
