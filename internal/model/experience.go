package model

import (
	"errors"
	"fmt"
	"time"
)

// ExperienceStatus статус групповой поездки для агентства.
type ExperienceStatus string

const (
	ExperiencePending   ExperienceStatus = "pending"
	ExperienceConfirmed ExperienceStatus = "confirmed"
	ExperienceCompleted ExperienceStatus = "completed"
)

// DayPlan описывает один день программы поездки.
type DayPlan struct {
	Day        int      `json:"day" yaml:"day"`
	Activities []string `json:"activities" yaml:"activities"`
}

// Experience представляет групповую поездку, которую можно забронировать.
// Поездка гарантированно состоится, когда CurrentParticipants достигает MinParticipants.
type Experience struct {
	ID                  int       `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"` // допускается Markdown
	Location            string    `json:"location"`
	Price               Money     `json:"priceCents"` // цена за одного участника
	Duration            string    `json:"duration"`
	StartDate           time.Time `json:"startDate"`
	Images              []string  `json:"images"`
	Itinerary           []DayPlan `json:"itinerary"`
	Includes            []string  `json:"includes"`
	MinParticipants     int       `json:"minParticipants"` // порог подтверждения
	CurrentParticipants int       `json:"currentParticipants"`
}

// ErrInvalidExperience возвращается, если запись каталога нарушает инварианты.
var ErrInvalidExperience = errors.New("invalid experience")

// Validate проверяет инварианты записи каталога.
func (e *Experience) Validate() error {
	switch {
	case e.ID <= 0:
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidExperience, e.ID)
	case e.Title == "":
		return fmt.Errorf("%w %d: empty title", ErrInvalidExperience, e.ID)
	case e.MinParticipants < 1:
		return fmt.Errorf("%w %d: minParticipants must be >= 1, got %d", ErrInvalidExperience, e.ID, e.MinParticipants)
	case e.CurrentParticipants < 0:
		return fmt.Errorf("%w %d: negative currentParticipants", ErrInvalidExperience, e.ID)
	case e.Price < 0:
		return fmt.Errorf("%w %d: negative price", ErrInvalidExperience, e.ID)
	case len(e.Images) == 0:
		return fmt.Errorf("%w %d: at least one image is required", ErrInvalidExperience, e.ID)
	}
	return nil
}

// CoverImage возвращает первое изображение галереи.
func (e *Experience) CoverImage() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0]
}

// StartDateString форматирует дату начала как в каталоге (YYYY-MM-DD).
func (e *Experience) StartDateString() string {
	return e.StartDate.Format(DateLayout)
}

// DateLayout формат календарной даты, используемый во всех представлениях.
const DateLayout = "2006-01-02"
