package notify

import (
	"context"
	"fmt"
	"strings"

	"altomayo/internal/availability"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender часть tgbotapi.BotAPI, нужная для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier сообщает агентству о брони в служебные чаты.
type TelegramNotifier struct {
	bot     Sender
	chatIDs []int64
}

func NewTelegramNotifier(bot Sender, chatIDs []int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) Notify(_ context.Context, e Event) error {
	text := AgencyText(e)
	for _, chatID := range n.chatIDs {
		if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			return fmt.Errorf("не удалось отправить сообщение в чат %d: %w", chatID, err)
		}
	}
	return nil
}

// AgencyText текст уведомления для агентства.
func AgencyText(e Event) string {
	r, exp := e.Reservation, e.Experience
	var b strings.Builder
	fmt.Fprintf(&b, "New reservation #%d\n", r.ID)
	fmt.Fprintf(&b, "%s (%s)\n", exp.Title, exp.StartDateString())
	fmt.Fprintf(&b, "%s <%s>, %d participant(s), %s\n", r.CustomerName, r.CustomerEmail, r.Participants, r.TotalPrice)
	fmt.Fprintf(&b, "Group: %d/%d", exp.CurrentParticipants, exp.MinParticipants)
	if e.GroupConfirmed {
		b.WriteString(", minimum reached, experience confirmed")
	} else {
		fmt.Fprintf(&b, ", %d more needed", availability.SpotsLeft(exp.MinParticipants, exp.CurrentParticipants))
	}
	return b.String()
}
