package reservation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altomayo/internal/model"
)

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "Sold out", MessageFor(Reject(ReasonCapacityExceeded, "Sold out")))
	assert.Equal(t, GenericFailureMessage, MessageFor(Reject(ReasonServerError, "")))
	assert.Equal(t, GenericFailureMessage, MessageFor(errors.New("dial tcp: refused")))

	wrapped := fmt.Errorf("submit: %w", Reject(ReasonNotFound, "Experience not found"))
	assert.Equal(t, "Experience not found", MessageFor(wrapped))
	assert.Equal(t, ReasonNotFound, ReasonFor(wrapped))
	assert.Equal(t, ReasonServerError, ReasonFor(context.DeadlineExceeded))
}

func TestSimulatedSubmitter(t *testing.T) {
	req := model.ReservationRequest{ExperienceID: 1, CustomerName: "Ana", CustomerEmail: "ana@example.com", Participants: 2}

	t.Run("success", func(t *testing.T) {
		s := &SimulatedSubmitter{Delay: time.Millisecond, Price: func(int) model.Money { return model.Dollars(89) }}
		ack, err := s.Submit(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, model.Dollars(178), ack.TotalPrice)
	})

	t.Run("failure", func(t *testing.T) {
		boom := errors.New("boom")
		s := &SimulatedSubmitter{Delay: time.Millisecond, FailWith: boom}
		_, err := s.Submit(context.Background(), req)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		s := &SimulatedSubmitter{Delay: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Submit(ctx, req)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSubmitterFunc(t *testing.T) {
	var got model.ReservationRequest
	s := SubmitterFunc(func(_ context.Context, req model.ReservationRequest) (Ack, error) {
		got = req
		return Ack{ReservationID: 7}, nil
	})
	ack, err := s.Submit(context.Background(), model.ReservationRequest{ExperienceID: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, ack.ReservationID)
	assert.Equal(t, 2, got.ExperienceID)
}
