package repository

import (
	"context"
	"fmt"
	"log"

	"altomayo/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL драйвер
	_ "github.com/mattn/go-sqlite3" // SQLite драйвер
)

// Store репозитории, открытые по настройкам хранилища.
type Store struct {
	Experiences  ExperienceRepository
	Reservations ReservationRepository
	// DB nil для хранилища в памяти.
	DB *sqlx.DB
}

// Open открывает хранилище. Для SQL-драйверов выполняет миграции и,
// если включено, загружает каталог в пустую базу.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	catalog, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverMemory {
		exps, err := NewMemoryExperienceRepository(catalog.Experiences)
		if err != nil {
			return nil, err
		}
		return &Store{Experiences: exps, Reservations: NewMemoryReservationRepository(catalog.Reservations)}, nil
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Seed {
		if err := Seed(ctx, db, catalog); err != nil {
			db.Close()
			return nil, err
		}
		log.Printf("каталог загружен: %d поездок", len(catalog.Experiences))
	}
	return &Store{
		Experiences:  NewExperienceRepository(db),
		Reservations: NewReservationRepository(db),
		DB:           db,
	}, nil
}

// Close закрывает соединение с базой, если оно есть.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
