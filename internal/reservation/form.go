// Package reservation реализует жизненный цикл формы бронирования:
// idle → submitting → success | error, с проверкой ввода и единственной
// одновременной отправкой на каждую открытую форму.
package reservation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"altomayo/internal/model"
)

// State состояние формы бронирования.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateError      State = "error"
)

var (
	// ErrInFlight заявка уже отправляется; повторная отправка ни на что не влияет.
	ErrInFlight = errors.New("reservation submission already in flight")
	// ErrCompleted форма показывает подтверждение и ждет закрытия.
	ErrCompleted = errors.New("reservation already submitted")
	// ErrClosed форма закрыта.
	ErrClosed = errors.New("reservation form is closed")
)

// DefaultSuccessDisplay сколько показывается подтверждение до автоматического сброса формы.
const DefaultSuccessDisplay = 2 * time.Second

// Timer отложенный вызов, который можно отменить.
type Timer interface {
	Stop() bool
}

// FormConfig параметры формы. Нулевые значения заменяются значениями по умолчанию.
type FormConfig struct {
	SuccessDisplay time.Duration
	AfterFunc      func(d time.Duration, f func()) Timer
	Now            func() time.Time
}

func (c FormConfig) withDefaults() FormConfig {
	if c.SuccessDisplay <= 0 {
		c.SuccessDisplay = DefaultSuccessDisplay
	}
	if c.AfterFunc == nil {
		c.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Snapshot неизменяемый снимок формы для отображения.
type Snapshot struct {
	ID           string
	ExperienceID int
	State        State
	Input        Input
	Errors       ValidationErrors
	Message      string
	Ack          *Ack
	// Disabled все поля и кнопка отправки заблокированы.
	Disabled bool
}

// TotalPrice стоимость по текущему вводу; некорректное число участников дает ноль.
func (s Snapshot) TotalPrice(price model.Money) model.Money {
	n, err := strconv.Atoi(strings.TrimSpace(s.Input.Participants))
	if err != nil || n < 0 {
		return 0
	}
	return price.Times(n)
}

// Form одна открытая форма бронирования.
type Form struct {
	ID           string
	ExperienceID int

	submitter Submitter
	cfg       FormConfig

	mu         sync.Mutex
	state      State
	input      Input
	errs       ValidationErrors
	message    string
	ack        *Ack
	cancel     context.CancelFunc
	resetTimer Timer
	closed     bool
	touched    time.Time
}

// NewForm создает форму в состоянии idle.
func NewForm(id string, experienceID int, submitter Submitter, cfg FormConfig) *Form {
	cfg = cfg.withDefaults()
	return &Form{
		ID:           id,
		ExperienceID: experienceID,
		submitter:    submitter,
		cfg:          cfg,
		state:        StateIdle,
		input:        emptyInput(),
		touched:      cfg.Now(),
	}
}

func emptyInput() Input {
	return Input{Participants: "1"}
}

// Pending результат отправки, который еще не получен.
type Pending struct {
	form *Form
	done chan struct{}
}

// Done закрывается, когда сервис бронирования ответил.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait ждет ответа сервиса и возвращает итоговый снимок формы.
func (p *Pending) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-p.done:
		return p.form.Snapshot(), nil
	case <-ctx.Done():
		return p.form.Snapshot(), ctx.Err()
	}
}

// Submit проверяет ввод по текущим счетчикам поездки и запускает отправку.
// При ошибках проверки возвращает ValidationErrors и не меняет состояние.
// Отправка выполняется отдельно от ctx запроса; отменить ее можно через Close.
func (f *Form) Submit(ctx context.Context, exp model.Experience, in Input) (*Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	switch f.state {
	case StateSubmitting:
		return nil, ErrInFlight
	case StateSuccess:
		return nil, ErrCompleted
	}

	f.touched = f.cfg.Now()
	f.input = in
	req, errs := Validate(exp, in)
	if len(errs) > 0 {
		f.errs = errs
		return nil, errs
	}

	f.errs = nil
	f.message = ""
	f.state = StateSubmitting

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.cancel = cancel
	p := &Pending{form: f, done: make(chan struct{})}
	go f.run(subCtx, cancel, req, p.done)
	return p, nil
}

func (f *Form) run(ctx context.Context, cancel context.CancelFunc, req model.ReservationRequest, done chan struct{}) {
	ack, err := f.submitter.Submit(ctx, req)

	f.mu.Lock()
	defer close(done)
	defer f.mu.Unlock()
	defer cancel()

	// Форма закрыта во время отправки: поздний ответ отбрасывается.
	if f.closed {
		return
	}
	f.cancel = nil
	f.touched = f.cfg.Now()
	if err != nil {
		f.state = StateError
		f.message = MessageFor(err)
		return
	}
	f.state = StateSuccess
	f.ack = &ack
	f.resetTimer = f.cfg.AfterFunc(f.cfg.SuccessDisplay, f.expireSuccess)
}

func (f *Form) expireSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSuccess {
		f.reset()
	}
}

// reset возвращает форму в idle и очищает все поля. Вызывается под f.mu.
func (f *Form) reset() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
	f.state = StateIdle
	f.input = emptyInput()
	f.errs = nil
	f.message = ""
	f.ack = nil
}

// Dismiss закрывает подтверждение (форма сбрасывается) или баннер ошибки
// (поля сохраняются). Во время отправки недоступно.
func (f *Form) Dismiss() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.touched = f.cfg.Now()
	switch f.state {
	case StateSubmitting:
		return ErrInFlight
	case StateSuccess:
		f.reset()
	case StateError:
		f.state = StateIdle
		f.message = ""
	case StateIdle:
		f.errs = nil
	}
	return nil
}

// Close закрывает форму и отменяет отправку, если она идет.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
}

// Closed сообщает, закрыта ли форма.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// LastActivity время последнего действия с формой.
func (f *Form) LastActivity() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// Snapshot текущее состояние формы.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := Snapshot{
		ID:           f.ID,
		ExperienceID: f.ExperienceID,
		State:        f.state,
		Input:        f.input,
		Message:      f.message,
		Disabled:     f.state == StateSubmitting,
	}
	if len(f.errs) > 0 {
		s.Errors = make(ValidationErrors, len(f.errs))
		for k, v := range f.errs {
			s.Errors[k] = v
		}
	}
	if f.ack != nil {
		ack := *f.ack
		s.Ack = &ack
	}
	return s
}
