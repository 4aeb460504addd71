package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"altomayo/internal/availability"
	"altomayo/internal/metrics"
	"altomayo/internal/model"
	"altomayo/internal/notify"
	"altomayo/internal/repository"
	"altomayo/internal/reservation"
)

const notifyTimeout = 5 * time.Second

// Сообщения об отказе, которые видит пользователь.
const (
	msgExperienceNotFound = "Experience not found."
	msgNoCapacity         = "Not enough spots left for this experience."
)

// BookingService содержит бизнес-логику, связанную с бронированиями.
// Это единственный, кто меняет число участников поездки.
type BookingService struct {
	experiences  repository.ExperienceRepository
	reservations repository.ReservationRepository
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewBookingService создает новый сервис бронирований. notifier и m могут быть nil.
func NewBookingService(experiences repository.ExperienceRepository, reservations repository.ReservationRepository,
	notifier notify.Notifier, m *metrics.Metrics) *BookingService {
	return &BookingService{
		experiences:  experiences,
		reservations: reservations,
		notifier:     notifier,
		metrics:      m,
		now:          time.Now,
	}
}

// Submit принимает заявку: повторно проверяет ввод, занимает места и создает запись.
func (s *BookingService) Submit(ctx context.Context, req model.ReservationRequest) (reservation.Ack, error) {
	started := time.Now()
	ack, err := s.submit(ctx, req)
	outcome := "success"
	if err != nil {
		outcome = string(reservation.ReasonFor(err))
	}
	s.metrics.ObserveReservation(outcome, started)
	return ack, err
}

func (s *BookingService) submit(ctx context.Context, req model.ReservationRequest) (reservation.Ack, error) {
	exp, err := s.experiences.FetchByID(ctx, req.ExperienceID)
	if errors.Is(err, repository.ErrNotFound) {
		return reservation.Ack{}, reservation.Reject(reservation.ReasonNotFound, msgExperienceNotFound)
	}
	if err != nil {
		return reservation.Ack{}, fmt.Errorf("не удалось получить поездку %d: %w", req.ExperienceID, err)
	}

	if err := s.check(*exp, req); err != nil {
		return reservation.Ack{}, err
	}

	// Форма закрыта до того, как места заняты.
	if err := ctx.Err(); err != nil {
		return reservation.Ack{}, fmt.Errorf("бронирование отменено: %w", err)
	}
	updated, err := s.experiences.AddParticipants(ctx, exp.ID, req.Participants)
	if errors.Is(err, repository.ErrCapacityExceeded) {
		return reservation.Ack{}, reservation.Reject(reservation.ReasonCapacityExceeded, msgNoCapacity)
	}
	if err != nil {
		return reservation.Ack{}, fmt.Errorf("не удалось занять места: %w", err)
	}

	rec := &model.Reservation{
		ExperienceID:  exp.ID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Participants:  req.Participants,
		TotalPrice:    req.TotalPrice(exp.Price),
		Status:        model.ReservationReserved,
		Date:          exp.StartDate,
		CreatedAt:     s.now().UTC(),
	}
	if err := ctx.Err(); err != nil {
		s.release(ctx, exp.ID, req.Participants)
		return reservation.Ack{}, fmt.Errorf("бронирование отменено: %w", err)
	}
	id, err := s.reservations.Create(ctx, rec)
	if err != nil {
		s.release(ctx, exp.ID, req.Participants)
		return reservation.Ack{}, fmt.Errorf("не удалось сохранить бронирование: %w", err)
	}
	rec.ID = id

	confirmed := availability.SpotsLeft(updated.MinParticipants, updated.CurrentParticipants) == 0
	if confirmed {
		n, err := s.reservations.ConfirmReserved(ctx, exp.ID)
		if err != nil {
			log.Printf("не удалось подтвердить брони поездки %d: %v", exp.ID, err)
		} else {
			log.Printf("поездка %d набрала группу, подтверждено броней: %d", exp.ID, n)
			rec.Status = model.ReservationConfirmed
		}
	}

	s.notify(ctx, notify.Event{Reservation: *rec, Experience: *updated, GroupConfirmed: confirmed})
	return reservation.Ack{ReservationID: rec.ID, TotalPrice: rec.TotalPrice}, nil
}

// check повторяет проверки формы: запросы могут прийти и в обход нее (API, бот).
func (s *BookingService) check(exp model.Experience, req model.ReservationRequest) error {
	if errs := reservation.ValidateContact(req.CustomerName, req.CustomerEmail); len(errs) > 0 {
		if msg := errs.Field(reservation.FieldName); msg != "" {
			s.metrics.IncValidationFailure(reservation.FieldName)
			return reservation.Reject(reservation.ReasonInvalidName, msg)
		}
		s.metrics.IncValidationFailure(reservation.FieldEmail)
		return reservation.Reject(reservation.ReasonInvalidEmail, errs.Field(reservation.FieldEmail))
	}
	spots := availability.SpotsLeft(exp.MinParticipants, exp.CurrentParticipants)
	if msg := reservation.ValidateParticipants(req.Participants, spots); msg != "" {
		s.metrics.IncValidationFailure(reservation.FieldParticipants)
		if req.Participants < 1 {
			return reservation.Reject(reservation.ReasonInvalidParticipants, msg)
		}
		return reservation.Reject(reservation.ReasonCapacityExceeded, msg)
	}
	return nil
}

// release возвращает занятые места, если запись не создана.
func (s *BookingService) release(ctx context.Context, experienceID, n int) {
	if _, err := s.experiences.AddParticipants(context.WithoutCancel(ctx), experienceID, -n); err != nil {
		log.Printf("не удалось вернуть %d мест поездке %d: %v", n, experienceID, err)
	}
}

func (s *BookingService) notify(ctx context.Context, e notify.Event) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	// Ошибки уже залогированы каналами; бронирование остается в силе.
	_ = s.notifier.Notify(nctx, e)
}

// MarkPaid отмечает подтвержденное бронирование оплаченным.
func (s *BookingService) MarkPaid(ctx context.Context, reservationID int) error {
	rec, err := s.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if rec.Status != model.ReservationConfirmed {
		return fmt.Errorf("бронирование %d в статусе %s: %w", reservationID, rec.Status, repository.ErrInvalidTransition)
	}
	if err := s.reservations.UpdateStatus(ctx, reservationID, model.ReservationConfirmed, model.ReservationPaid); err != nil {
		return err
	}
	log.Printf("бронирование %d (%s) оплачено", reservationID, rec.CustomerName)
	return nil
}

// GetReservation возвращает бронирование по ID.
func (s *BookingService) GetReservation(ctx context.Context, reservationID int) (*model.Reservation, error) {
	return s.reservations.GetByID(ctx, reservationID)
}
