package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altomayo/internal/model"
)

func TestSpotsLeft_NeverNegative(t *testing.T) {
	for min := 1; min <= 12; min++ {
		for current := 0; current <= 20; current++ {
			got := SpotsLeft(min, current)
			assert.GreaterOrEqual(t, got, 0)
			if current >= min {
				assert.Equal(t, 0, got, "min=%d current=%d", min, current)
			} else {
				assert.Equal(t, min-current, got, "min=%d current=%d", min, current)
			}
		}
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		min, cur  int
		want      Availability
	}{
		{"pending", 8, 5, Availability{SpotsLeft: 3, FillRatio: 0.625, Percent: 63, Confirmed: false}},
		{"empty", 6, 0, Availability{SpotsLeft: 6, FillRatio: 0, Percent: 0, Confirmed: false}},
		{"exactly full", 6, 6, Availability{SpotsLeft: 0, FillRatio: 1, Percent: 100, Confirmed: true}},
		{"over threshold is clamped", 4, 9, Availability{SpotsLeft: 0, FillRatio: 1, Percent: 100, Confirmed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.min, tt.cur)
			require.NoError(t, err)
			assert.Equal(t, tt.want.SpotsLeft, got.SpotsLeft)
			assert.InDelta(t, tt.want.FillRatio, got.FillRatio, 1e-9)
			assert.Equal(t, tt.want.Percent, got.Percent)
			assert.Equal(t, tt.want.Confirmed, got.Confirmed)
		})
	}
}

func TestFillRatio_InvalidThreshold(t *testing.T) {
	_, err := FillRatio(0, 3)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = Of(model.Experience{MinParticipants: 0})
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestStatus(t *testing.T) {
	start := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	e := model.Experience{StartDate: start, MinParticipants: 8, CurrentParticipants: 5}

	before := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, 4, 15, 18, 0, 0, 0, time.UTC)
	after := time.Date(2024, 4, 16, 0, 0, 1, 0, time.UTC)

	assert.Equal(t, model.ExperiencePending, Status(e, before))
	assert.Equal(t, model.ExperiencePending, Status(e, sameDay))
	assert.Equal(t, model.ExperienceCompleted, Status(e, after))

	e.CurrentParticipants = 8
	assert.Equal(t, model.ExperienceConfirmed, Status(e, before))
	assert.Equal(t, model.ExperienceCompleted, Status(e, after))
}
