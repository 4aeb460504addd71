// Package availability рассчитывает заполненность групповых поездок.
// Каталог, страница поездки, форма бронирования и панель агентства
// используют только эти функции и не считают места самостоятельно.
package availability

import (
	"errors"
	"math"
	"time"

	"altomayo/internal/model"
)

// ErrInvalidThreshold порог подтверждения меньше единицы (ошибка конфигурации каталога).
var ErrInvalidThreshold = errors.New("minParticipants must be at least 1")

// Availability производные показатели заполненности поездки.
type Availability struct {
	SpotsLeft int     `json:"spotsLeft"`
	FillRatio float64 `json:"fillRatio"`
	Percent   int     `json:"percent"`
	Confirmed bool    `json:"confirmed"`
}

// SpotsLeft сколько участников не хватает до подтверждения. Никогда не бывает отрицательным.
func SpotsLeft(minParticipants, currentParticipants int) int {
	if left := minParticipants - currentParticipants; left > 0 {
		return left
	}
	return 0
}

// FillRatio доля набранной группы, ограниченная отрезком [0, 1].
func FillRatio(minParticipants, currentParticipants int) (float64, error) {
	if minParticipants < 1 {
		return 0, ErrInvalidThreshold
	}
	ratio := float64(currentParticipants) / float64(minParticipants)
	return math.Max(0, math.Min(1, ratio)), nil
}

// Compute собирает все показатели по паре счетчиков.
func Compute(minParticipants, currentParticipants int) (Availability, error) {
	ratio, err := FillRatio(minParticipants, currentParticipants)
	if err != nil {
		return Availability{}, err
	}
	left := SpotsLeft(minParticipants, currentParticipants)
	return Availability{
		SpotsLeft: left,
		FillRatio: ratio,
		Percent:   int(math.Round(ratio * 100)),
		Confirmed: left == 0,
	}, nil
}

// Of показатели для записи каталога.
func Of(e model.Experience) (Availability, error) {
	return Compute(e.MinParticipants, e.CurrentParticipants)
}

// Status выводит статус поездки: завершенная, если дата начала уже прошла,
// иначе подтвержденная или ожидающая набора группы.
func Status(e model.Experience, now time.Time) model.ExperienceStatus {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, e.StartDate.Location())
	if e.StartDate.Before(today) {
		return model.ExperienceCompleted
	}
	if SpotsLeft(e.MinParticipants, e.CurrentParticipants) == 0 {
		return model.ExperienceConfirmed
	}
	return model.ExperiencePending
}
