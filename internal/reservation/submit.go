package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"altomayo/internal/model"
)

// Reason машиночитаемая причина отказа в бронировании.
type Reason string

const (
	ReasonCapacityExceeded    Reason = "capacity_exceeded"
	ReasonInvalidEmail        Reason = "invalid_email"
	ReasonInvalidName         Reason = "invalid_name"
	ReasonInvalidParticipants Reason = "invalid_participants"
	ReasonNotFound            Reason = "not_found"
	ReasonServerError         Reason = "server_error"
)

// GenericFailureMessage показывается, если сервис вернул ошибку без пояснения.
const GenericFailureMessage = "Something went wrong. Please try again."

// Ack подтверждение принятой заявки.
type Ack struct {
	ReservationID int         `json:"reservationId"`
	TotalPrice    model.Money `json:"totalPriceCents"`
}

// SubmitError отказ сервиса бронирования с сообщением для пользователя.
type SubmitError struct {
	Reason  Reason
	Message string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Reject конструирует отказ.
func Reject(reason Reason, message string) *SubmitError {
	return &SubmitError{Reason: reason, Message: message}
}

// MessageFor текст ошибки для баннера формы. Никогда не бывает пустым.
func MessageFor(err error) string {
	var se *SubmitError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return GenericFailureMessage
}

// ReasonFor причина отказа; ошибки без причины считаются ошибкой сервера.
func ReasonFor(err error) Reason {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonServerError
}

// Submitter принимает заявку и в итоге подтверждает ее или отказывает.
// Реализации взаимозаменяемы: имитация, локальный сервис бронирования, HTTP-клиент.
type Submitter interface {
	Submit(ctx context.Context, req model.ReservationRequest) (Ack, error)
}

// SubmitterFunc адаптер обычной функции к Submitter.
type SubmitterFunc func(ctx context.Context, req model.ReservationRequest) (Ack, error)

func (f SubmitterFunc) Submit(ctx context.Context, req model.ReservationRequest) (Ack, error) {
	return f(ctx, req)
}

// SimulatedSubmitter имитирует сетевой вызов с фиксированной задержкой.
// Без FailWith всегда завершается успешно.
type SimulatedSubmitter struct {
	Delay    time.Duration
	FailWith error
	Price    func(experienceID int) model.Money // необязательно, для суммы в подтверждении
}

// DefaultSimulatedDelay задержка имитации сетевого вызова.
const DefaultSimulatedDelay = 1500 * time.Millisecond

func (s *SimulatedSubmitter) Submit(ctx context.Context, req model.ReservationRequest) (Ack, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	case <-timer.C:
	}
	if s.FailWith != nil {
		return Ack{}, s.FailWith
	}
	ack := Ack{}
	if s.Price != nil {
		ack.TotalPrice = req.TotalPrice(s.Price(req.ExperienceID))
	}
	return ack, nil
}
