package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// DefaultTopic топик событий бронирования.
const DefaultTopic = "altomayo.reservations"

// MessageWriter часть kafka.Writer, нужная для публикации.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter создает писателя в топик.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
}

// ReservationMessage значение сообщения в топике.
type ReservationMessage struct {
	ReservationID   int    `json:"reservationId"`
	ExperienceID    int    `json:"experienceId"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	Participants    int    `json:"participants"`
	TotalPriceCents int64  `json:"totalPriceCents"`
	Status          string `json:"status"`
	Date            string `json:"date"`
	GroupConfirmed  bool   `json:"groupConfirmed"`
	CreatedAt       string `json:"createdAt"`
}

// KafkaNotifier публикует события бронирования; ключ сообщения идентификатор брони.
type KafkaNotifier struct {
	writer MessageWriter
}

func NewKafkaNotifier(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, e Event) error {
	r := e.Reservation
	value, err := json.Marshal(ReservationMessage{
		ReservationID:   r.ID,
		ExperienceID:    r.ExperienceID,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		Participants:    r.Participants,
		TotalPriceCents: int64(r.TotalPrice),
		Status:          string(r.Status),
		Date:            r.DateString(),
		GroupConfirmed:  e.GroupConfirmed,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("не удалось сериализовать событие: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(r.ID)),
		Value: value,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("не удалось опубликовать событие: %w", err)
	}
	return nil
}
