package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altomayo/internal/config"
	"altomayo/internal/metrics"
	"altomayo/internal/model"
)

func sampleEvent(confirmed bool) Event {
	start := time.Date(2027, 4, 15, 0, 0, 0, 0, time.UTC)
	return Event{
		Reservation: model.Reservation{
			ID:            5,
			ExperienceID:  1,
			CustomerName:  "Ana Ruiz",
			CustomerEmail: "ana@example.com",
			Participants:  3,
			TotalPrice:    model.Dollars(387),
			Status:        model.ReservationReserved,
			Date:          start,
			CreatedAt:     time.Date(2027, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		Experience: model.Experience{
			ID:                  1,
			Title:               "Alto Mayo Coffee Trail Adventure",
			Location:            "Rioja",
			Price:               model.Dollars(129),
			StartDate:           start,
			Images:              []string{"x"},
			MinParticipants:     8,
			CurrentParticipants: 7,
		},
		GroupConfirmed: confirmed,
	}
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

type fakeSES struct {
	sesiface.SESAPI
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmailWithContext(_ aws.Context, in *ses.SendEmailInput, _ ...request.Option) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, []int64{100, 200})

	require.NoError(t, n.Notify(context.Background(), sampleEvent(false)))
	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(100), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "New reservation #5")
	assert.Contains(t, sender.sent[0].Text, "$387")
	assert.Contains(t, sender.sent[0].Text, "Group: 7/8, 1 more needed")

	sender.err = errors.New("forbidden")
	assert.Error(t, n.Notify(context.Background(), sampleEvent(false)))
}

func TestAgencyText_Confirmed(t *testing.T) {
	e := sampleEvent(true)
	e.Experience.CurrentParticipants = 8
	assert.Contains(t, AgencyText(e), "minimum reached")
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifier(w)

	require.NoError(t, n.Notify(context.Background(), sampleEvent(true)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "5", string(w.msgs[0].Key))

	var got ReservationMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 1, got.ExperienceID)
	assert.Equal(t, int64(38700), got.TotalPriceCents)
	assert.Equal(t, "2027-04-15", got.Date)
	assert.Equal(t, "reserved", got.Status)
	assert.True(t, got.GroupConfirmed)
}

func TestEmailNotifier(t *testing.T) {
	svc := &fakeSES{}
	n := NewEmailNotifier(svc, "bookings@altomayo.example")

	require.NoError(t, n.Notify(context.Background(), sampleEvent(false)))
	require.Len(t, svc.inputs, 1)
	in := svc.inputs[0]
	assert.Equal(t, "ana@example.com", aws.StringValue(in.Destination.ToAddresses[0]))
	assert.Equal(t, "bookings@altomayo.example", aws.StringValue(in.Source))
	assert.Equal(t, "Your reservation: Alto Mayo Coffee Trail Adventure", aws.StringValue(in.Message.Subject.Data))
	assert.Contains(t, aws.StringValue(in.Message.Body.Text.Data), "We'll notify you when the minimum group size is reached.")

	svc.err = errors.New("throttled")
	assert.Error(t, n.Notify(context.Background(), sampleEvent(false)))
}

func TestFanout_ContinuesAfterFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	w := &fakeWriter{err: errors.New("broker unavailable")}
	svc := &fakeSES{}
	f := NewFanout(m, NewKafkaNotifier(w), nil, NewEmailNotifier(svc, "noreply@example.com"))
	assert.Equal(t, 2, f.Len())

	err := f.Notify(context.Background(), sampleEvent(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Len(t, svc.inputs, 1, "a failing channel must not stop the others")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("kafka", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("ses", "ok")))
}

func TestBuild(t *testing.T) {
	f, closers, err := Build(config.NotifyConfig{}, &fakeSender{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len(), "no chats, no channels")
	assert.Empty(t, closers)

	f, closers, err = Build(config.NotifyConfig{
		TelegramChats: []int64{1},
		Kafka:         config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: DefaultTopic},
	}, &fakeSender{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	require.Len(t, closers, 1)
	assert.NoError(t, closers[0].Close())
}
