package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altomayo/internal/metrics"
	"altomayo/internal/model"
	"altomayo/internal/notify"
	"altomayo/internal/repository"
	"altomayo/internal/reservation"
)

var testNow = time.Date(2027, 1, 10, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return errors.New("delivery is best effort")
}

type failingReservations struct {
	repository.ReservationRepository
}

func (failingReservations) Create(context.Context, *model.Reservation) (int, error) {
	return 0, errors.New("disk full")
}

type fixture struct {
	experiences  *repository.MemoryExperienceRepository
	reservations *repository.MemoryReservationRepository
	notifier     *recordingNotifier
	metrics      *metrics.Metrics
	catalog      *CatalogService
	booking      *BookingService
	dashboard    *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := repository.DefaultCatalog()
	require.NoError(t, err)
	exps, err := repository.NewMemoryExperienceRepository(catalog.Experiences)
	require.NoError(t, err)

	f := &fixture{
		experiences:  exps,
		reservations: repository.NewMemoryReservationRepository(catalog.Reservations),
		notifier:     &recordingNotifier{},
		metrics:      metrics.New(prometheus.NewRegistry()),
	}
	f.catalog = NewCatalogService(f.experiences)
	f.catalog.now = func() time.Time { return testNow }
	f.booking = NewBookingService(f.experiences, f.reservations, f.notifier, f.metrics)
	f.booking.now = func() time.Time { return testNow }
	f.dashboard = NewDashboardService(f.catalog, f.reservations)
	return f
}

func request(expID, participants int) model.ReservationRequest {
	return model.ReservationRequest{
		ExperienceID:  expID,
		CustomerName:  "Ana Ruiz",
		CustomerEmail: "ana@example.com",
		Participants:  participants,
	}
}

func TestCatalogService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	views, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, 3, views[0].Availability.SpotsLeft)
	assert.Equal(t, 63, views[0].Availability.Percent)
	assert.Equal(t, model.ExperiencePending, views[0].Status)
	assert.Equal(t, 2, views[1].Availability.SpotsLeft)

	v, err := f.catalog.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Tingana Wildlife Reserve Expedition", v.Title)

	_, err = f.catalog.Get(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, model.Dollars(129), f.catalog.Price(1))
	assert.Equal(t, model.Money(0), f.catalog.Price(999))

	f.catalog.now = func() time.Time { return time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC) }
	v, err = f.catalog.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ExperienceCompleted, v.Status)
}

func TestBookingService_FillsGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.booking.Submit(ctx, request(1, 4))
	require.Error(t, err)
	assert.Equal(t, reservation.ReasonCapacityExceeded, reservation.ReasonFor(err))
	assert.Equal(t, "Only 3 spots left for this experience.", reservation.MessageFor(err))

	ack, err := f.booking.Submit(ctx, request(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 5, ack.ReservationID)
	assert.Equal(t, model.Dollars(387), ack.TotalPrice)

	exp, err := f.experiences.FetchByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, exp.CurrentParticipants)

	rec, err := f.reservations.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, rec.Status)
	assert.Equal(t, "2027-04-15", rec.DateString())
	assert.Equal(t, testNow, rec.CreatedAt)

	john, err := f.reservations.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, john.Status, "reserved records are promoted once the group is full")

	require.Len(t, f.notifier.events, 1)
	assert.True(t, f.notifier.events[0].GroupConfirmed)
	assert.Equal(t, 8, f.notifier.events[0].Experience.CurrentParticipants)

	_, err = f.booking.Submit(ctx, request(1, 1))
	assert.Equal(t, reservation.ReasonCapacityExceeded, reservation.ReasonFor(err))
	assert.Equal(t, "This experience has no spots left.", reservation.MessageFor(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReservationsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ReservationsTotal.WithLabelValues("capacity_exceeded")))
}

func TestBookingService_PartialReservationStaysReserved(t *testing.T) {
	f := newFixture(t)
	ack, err := f.booking.Submit(context.Background(), request(2, 1))
	require.NoError(t, err)

	rec, err := f.reservations.GetByID(context.Background(), ack.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, rec.Status)
	require.Len(t, f.notifier.events, 1)
	assert.False(t, f.notifier.events[0].GroupConfirmed)
}

func TestBookingService_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		req    model.ReservationRequest
		reason reservation.Reason
	}{
		{"unknown experience", request(999, 1), reservation.ReasonNotFound},
		{"empty name", model.ReservationRequest{ExperienceID: 1, CustomerName: " ", CustomerEmail: "a@example.com", Participants: 1}, reservation.ReasonInvalidName},
		{"bad email", model.ReservationRequest{ExperienceID: 1, CustomerName: "Ana", CustomerEmail: "ana", Participants: 1}, reservation.ReasonInvalidEmail},
		{"zero participants", request(1, 0), reservation.ReasonInvalidParticipants},
		{"over capacity", request(2, 3), reservation.ReasonCapacityExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.booking.Submit(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.reason, reservation.ReasonFor(err))
			assert.NotEmpty(t, reservation.MessageFor(err))
			assert.Empty(t, f.notifier.events)

			exp, err := f.experiences.FetchByID(context.Background(), 2)
			require.NoError(t, err)
			assert.Equal(t, 4, exp.CurrentParticipants)
		})
	}
}

func TestBookingService_ReleasesSpotsWhenRecordFails(t *testing.T) {
	f := newFixture(t)
	booking := NewBookingService(f.experiences, failingReservations{f.reservations}, nil, nil)

	_, err := booking.Submit(context.Background(), request(1, 2))
	require.Error(t, err)
	assert.Equal(t, reservation.ReasonServerError, reservation.ReasonFor(err))
	assert.Equal(t, reservation.GenericFailureMessage, reservation.MessageFor(err))

	exp, err := f.experiences.FetchByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, exp.CurrentParticipants)
}

func TestBookingService_ConcurrentSubmissionsNeverOverbook(t *testing.T) {
	f := newFixture(t)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.booking.Submit(context.Background(), request(2, 1)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, successes)
	exp, err := f.experiences.FetchByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, exp.CurrentParticipants)
}

func TestBookingService_MarkPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.booking.MarkPaid(ctx, 2))
	rec, err := f.booking.GetReservation(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPaid, rec.Status)

	assert.ErrorIs(t, f.booking.MarkPaid(ctx, 1), repository.ErrInvalidTransition)
	assert.ErrorIs(t, f.booking.MarkPaid(ctx, 2), repository.ErrInvalidTransition)
	assert.ErrorIs(t, f.booking.MarkPaid(ctx, 99), repository.ErrNotFound)
}

func TestBookingService_AsFormSubmitter(t *testing.T) {
	f := newFixture(t)
	exp, err := f.experiences.FetchByID(context.Background(), 1)
	require.NoError(t, err)

	form := reservation.NewForm("f", 1, f.booking, reservation.FormConfig{})
	p, err := form.Submit(context.Background(), *exp, reservation.Input{Name: "Ana", Email: "ana@example.com", Participants: "3"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, reservation.StateSuccess, snap.State)
	assert.Equal(t, model.Dollars(387), snap.Ack.TotalPrice)
	form.Close()
}

func TestDashboardService(t *testing.T) {
	f := newFixture(t)
	d, err := f.dashboard.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{
		TotalRevenue:      model.Dollars(1001),
		ActiveExperiences: 2,
		TotalParticipants: 9,
		Locations:         2,
	}, d.Stats)
	require.Len(t, d.Reservations, 4)
	assert.Equal(t, "Alto Mayo Coffee Trail Adventure", d.Reservations[0].ExperienceTitle)
	assert.Equal(t, "Tingana Wildlife Reserve Expedition", d.Reservations[3].ExperienceTitle)

	_, err = f.booking.Submit(context.Background(), request(2, 2))
	require.NoError(t, err)
	d, err = f.dashboard.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Dollars(1179), d.Stats.TotalRevenue)
	assert.Equal(t, 11, d.Stats.TotalParticipants)
	assert.Equal(t, model.ExperienceConfirmed, d.Experiences[1].Status)
}

func TestLocationService(t *testing.T) {
	f := newFixture(t)
	locations := NewLocationService(f.catalog)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ExperienceFilter
		want   []int
	}{
		{"no filter", ExperienceFilter{}, []int{1, 2}},
		{"any location", ExperienceFilter{Location: "Any"}, []int{1, 2}},
		{"location is case-insensitive", ExperienceFilter{Location: "rioja"}, []int{1}},
		{"keyword in title", ExperienceFilter{Keyword: "  Tingana "}, []int{2}},
		{"nothing matches", ExperienceFilter{Keyword: "glacier"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := locations.SearchExperiences(ctx, tt.filter)
			require.NoError(t, err)
			ids := []int{}
			for _, v := range views {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	// Заполненная группа пропадает из выборки открытых.
	_, err := f.booking.Submit(ctx, request(1, 3))
	require.NoError(t, err)
	views, err := locations.SearchExperiences(ctx, ExperienceFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].ID)

	locs, err := locations.Locations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Location{
		{Name: "Moyobamba", Experiences: 1, SpotsLeft: 2},
		{Name: "Rioja", Experiences: 1, SpotsLeft: 0},
	}, locs)
}

// gatedExperiences останавливает бронирование на выбранном шаге до закрытия gate.
type gatedExperiences struct {
	repository.ExperienceRepository
	stage   string
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedExperiences) wait(stage string) {
	if g.stage == stage {
		close(g.entered)
		<-g.gate
	}
}

func (g *gatedExperiences) FetchByID(ctx context.Context, id int) (*model.Experience, error) {
	g.wait("fetch")
	return g.ExperienceRepository.FetchByID(ctx, id)
}

func (g *gatedExperiences) AddParticipants(ctx context.Context, id int, n int) (*model.Experience, error) {
	exp, err := g.ExperienceRepository.AddParticipants(ctx, id, n)
	if n > 0 {
		g.wait("add")
	}
	return exp, err
}

func TestBookingService_ClosedFormTakesNoSeats(t *testing.T) {
	for _, stage := range []string{"fetch", "add"} {
		t.Run(stage, func(t *testing.T) {
			f := newFixture(t)
			gated := &gatedExperiences{
				ExperienceRepository: f.experiences,
				stage:                stage,
				entered:              make(chan struct{}),
				gate:                 make(chan struct{}),
			}
			booking := NewBookingService(gated, f.reservations, f.notifier, nil)
			ctx := context.Background()

			exp, err := f.experiences.FetchByID(ctx, 1)
			require.NoError(t, err)
			form := reservation.NewForm("form-1", exp.ID, booking, reservation.FormConfig{})
			pending, err := form.Submit(ctx, *exp, reservation.Input{Name: "Ana Ruiz", Email: "ana@example.com", Participants: "1"})
			require.NoError(t, err)

			<-gated.entered
			form.Close()
			close(gated.gate)

			waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			snap, err := pending.Wait(waitCtx)
			require.NoError(t, err)
			assert.Nil(t, snap.Ack)

			exp, err = f.experiences.FetchByID(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 5, exp.CurrentParticipants)
			list, err := f.reservations.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 4)
			assert.Empty(t, f.notifier.events)
		})
	}
}
