package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_String(t *testing.T) {
	tests := []struct {
		in   Money
		want string
	}{
		{Dollars(129), "$129"},
		{Dollars(0), "$0"},
		{Money(8950), "$89.50"},
		{Money(5), "$0.05"},
		{Money(-250), "-$2.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestReservationRequest_TotalPrice(t *testing.T) {
	req := ReservationRequest{Participants: 3}
	assert.Equal(t, Dollars(387), req.TotalPrice(Dollars(129)))

	// Повторные вычисления не накапливают погрешность.
	price := Money(1999)
	for n := 1; n <= 50; n++ {
		req := ReservationRequest{Participants: n}
		assert.Equal(t, Money(1999*int64(n)), req.TotalPrice(price))
	}
}

func validExperience() Experience {
	return Experience{
		ID:                  1,
		Title:               "Alto Mayo Coffee Trail Adventure",
		Price:               Dollars(129),
		StartDate:           time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
		Images:              []string{"https://example.com/1.jpg"},
		MinParticipants:     8,
		CurrentParticipants: 5,
	}
}

func TestExperience_Validate(t *testing.T) {
	e := validExperience()
	require.NoError(t, e.Validate())

	mutations := map[string]func(*Experience){
		"zero id":           func(e *Experience) { e.ID = 0 },
		"empty title":       func(e *Experience) { e.Title = "" },
		"zero threshold":    func(e *Experience) { e.MinParticipants = 0 },
		"negative current":  func(e *Experience) { e.CurrentParticipants = -1 },
		"negative price":    func(e *Experience) { e.Price = -1 },
		"no images":         func(e *Experience) { e.Images = nil },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := validExperience()
			mutate(&e)
			assert.ErrorIs(t, e.Validate(), ErrInvalidExperience)
		})
	}
}

func TestExperience_Helpers(t *testing.T) {
	e := validExperience()
	assert.Equal(t, "2024-04-15", e.StartDateString())
	assert.Equal(t, "https://example.com/1.jpg", e.CoverImage())

	e.Images = nil
	assert.Empty(t, e.CoverImage())
}
