// Package notify рассылает уведомления о новых бронированиях.
// Ошибки доставки только логируются: бронирование уже сохранено.
package notify

import (
	"context"
	"errors"
	"log"

	"altomayo/internal/metrics"
	"altomayo/internal/model"
)

// Event новое бронирование.
type Event struct {
	Reservation model.Reservation
	Experience  model.Experience
	// GroupConfirmed это бронирование добрало группу до порога подтверждения.
	GroupConfirmed bool
}

// Notifier канал доставки уведомлений.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// Fanout отправляет событие во все каналы по очереди.
type Fanout struct {
	notifiers []Notifier
	metrics   *metrics.Metrics
}

// NewFanout собирает каналы; nil-каналы пропускаются.
func NewFanout(m *metrics.Metrics, notifiers ...Notifier) *Fanout {
	f := &Fanout{metrics: m}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

func (f *Fanout) Name() string { return "fanout" }

// Len число подключенных каналов.
func (f *Fanout) Len() int { return len(f.notifiers) }

// Notify возвращает объединенную ошибку всех каналов, которые не смогли доставить событие.
func (f *Fanout) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range f.notifiers {
		err := n.Notify(ctx, e)
		f.metrics.IncNotification(n.Name(), err)
		if err != nil {
			log.Printf("уведомление %s по брони %d не доставлено: %v", n.Name(), e.Reservation.ID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
