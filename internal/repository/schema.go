package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var experiencesTable = `CREATE TABLE IF NOT EXISTS experiences (
	id                   INTEGER PRIMARY KEY,
	title                TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	location             TEXT NOT NULL DEFAULT '',
	price_cents          BIGINT NOT NULL CHECK (price_cents >= 0),
	duration             TEXT NOT NULL DEFAULT '',
	start_date           DATE NOT NULL,
	images               TEXT NOT NULL,
	itinerary            TEXT NOT NULL DEFAULT '[]',
	includes             TEXT NOT NULL DEFAULT '[]',
	min_participants     INTEGER NOT NULL CHECK (min_participants >= 1),
	current_participants INTEGER NOT NULL DEFAULT 0 CHECK (current_participants >= 0)
)`

// Отличается только автоинкрементный ключ.
var reservationsTable = map[string]string{
	"postgres": `CREATE TABLE IF NOT EXISTS reservations (
	id                SERIAL PRIMARY KEY,
	experience_id     INTEGER NOT NULL REFERENCES experiences(id),
	customer_name     TEXT NOT NULL,
	customer_email    TEXT NOT NULL,
	participants      INTEGER NOT NULL CHECK (participants >= 1),
	total_price_cents BIGINT NOT NULL,
	status            TEXT NOT NULL,
	date              DATE NOT NULL,
	created_at        TIMESTAMP NOT NULL
)`,
	"sqlite3": `CREATE TABLE IF NOT EXISTS reservations (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	experience_id     INTEGER NOT NULL REFERENCES experiences(id),
	customer_name     TEXT NOT NULL,
	customer_email    TEXT NOT NULL,
	participants      INTEGER NOT NULL CHECK (participants >= 1),
	total_price_cents BIGINT NOT NULL,
	status            TEXT NOT NULL,
	date              DATE NOT NULL,
	created_at        TIMESTAMP NOT NULL
)`,
}

// Migrate создает таблицы каталога в одной транзакции.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	reservations, ok := reservationsTable[db.DriverName()]
	if !ok {
		return fmt.Errorf("неподдерживаемый драйвер базы данных: %s", db.DriverName())
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка при инициации транзакции миграции: %w", err)
	}
	for _, stmt := range []string{experiencesTable, reservations} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("миграция завершилась ошибкой: %w", err)
		}
	}
	return tx.Commit()
}

// Seed загружает каталог в пустую базу. Существующие поездки не перезаписываются,
// бронирования добавляются только если таблица пуста.
func Seed(ctx context.Context, db *sqlx.DB, catalog *Catalog) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка при инициации транзакции: %w", err)
	}
	defer tx.Rollback()

	for _, e := range catalog.Experiences {
		row, err := toExperienceRow(e)
		if err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx, `INSERT INTO experiences
			(id, title, description, location, price_cents, duration, start_date, images, itinerary, includes, min_participants, current_participants)
			VALUES (:id, :title, :description, :location, :price_cents, :duration, :start_date, :images, :itinerary, :includes, :min_participants, :current_participants)
			ON CONFLICT (id) DO NOTHING`, row)
		if err != nil {
			return fmt.Errorf("не удалось сохранить поездку %d: %w", e.ID, err)
		}
	}

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM reservations"); err != nil {
		return fmt.Errorf("ошибка при подсчете бронирований: %w", err)
	}
	if count == 0 {
		for _, res := range catalog.Reservations {
			_, err := tx.NamedExecContext(ctx, `INSERT INTO reservations
				(experience_id, customer_name, customer_email, participants, total_price_cents, status, date, created_at)
				VALUES (:experience_id, :customer_name, :customer_email, :participants, :total_price_cents, :status, :date, :created_at)`, res)
			if err != nil {
				return fmt.Errorf("не удалось сохранить бронирование %d: %w", res.ID, err)
			}
		}
	}
	return tx.Commit()
}
