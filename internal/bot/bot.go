// Package bot Telegram-интерфейс каталога: просмотр поездок и бронирование в диалоге.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"altomayo/internal/model"
	"altomayo/internal/repository"
	"altomayo/internal/reservation"
	"altomayo/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Префиксы данных inline-кнопок.
const (
	prefixExperience = "EXP_"
	prefixReserve    = "RESERVE_"
	dataCancel       = "CANCEL"
)

// API часть tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot обрабатывает обновления Telegram.
type Bot struct {
	api       API
	catalog   *service.CatalogService
	submitter reservation.Submitter
	dialogs   repository.DialogRepository
}

func New(api API, catalog *service.CatalogService, submitter reservation.Submitter, dialogs repository.DialogRepository) *Bot {
	return &Bot{api: api, catalog: catalog, submitter: submitter, dialogs: dialogs}
}

// Run читает обновления до отмены ctx или закрытия канала.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает одно обновление.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	// --- CallbackQuery (inline buttons) ---
	if cq := update.CallbackQuery; cq != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Printf("не удалось ответить на callback: %v", err)
		}
		chatID := cq.From.ID
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		}
		b.handleCallback(ctx, chatID, cq.Data)
		return
	}

	// --- Обычные сообщения ---
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.clear(ctx, chatID)
			b.send(tgbotapi.NewMessage(chatID, "Welcome to Alto Mayo! Join group adventures in Peru's hidden paradise.\nUse /experiences to browse upcoming trips."))
		case "experiences":
			b.listExperiences(ctx, chatID)
		case "cancel":
			b.cancel(ctx, chatID)
		default:
			b.send(tgbotapi.NewMessage(chatID, "Unknown command. Use /experiences to browse trips."))
		}
		return
	}

	b.handleText(ctx, chatID, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCallback(ctx context.Context, chatID int64, data string) {
	switch {
	// Показ деталей поездки
	case strings.HasPrefix(data, prefixExperience):
		id, err := strconv.Atoi(strings.TrimPrefix(data, prefixExperience))
		if err != nil {
			return
		}
		b.showExperience(ctx, chatID, id)

	// Начать бронирование
	case strings.HasPrefix(data, prefixReserve):
		id, err := strconv.Atoi(strings.TrimPrefix(data, prefixReserve))
		if err != nil {
			return
		}
		b.startReservation(ctx, chatID, id)

	case data == dataCancel:
		b.cancel(ctx, chatID)
	}
}

func (b *Bot) listExperiences(ctx context.Context, chatID int64) {
	views, err := b.catalog.List(ctx)
	if err != nil {
		log.Printf("не удалось получить каталог: %v", err)
		b.send(tgbotapi.NewMessage(chatID, reservation.GenericFailureMessage))
		return
	}
	if len(views) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "No experiences are available right now."))
		return
	}

	var text strings.Builder
	text.WriteString("Upcoming experiences:\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, v := range views {
		fmt.Fprintf(&text, "\n%s\n%s, %s, %s\n%d/%d participants\n",
			v.Title, v.Location, v.Duration, v.Price, v.CurrentParticipants, v.MinParticipants)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(v.Title, prefixExperience+strconv.Itoa(v.ID)),
		))
	}
	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) showExperience(ctx context.Context, chatID int64, id int) {
	v, ok := b.experience(ctx, chatID, id)
	if !ok {
		return
	}
	var text strings.Builder
	fmt.Fprintf(&text, "%s\n%s, starts %s\n%s\n\n", v.Title, v.Location, v.StartDateString(), v.Duration)
	text.WriteString(strings.TrimSpace(v.Description))
	fmt.Fprintf(&text, "\n\n%s per person\n%d/%d participants", v.Price, v.CurrentParticipants, v.MinParticipants)

	msg := tgbotapi.NewMessage(chatID, "")
	if v.Availability.Confirmed {
		text.WriteString("\nThis group is full.")
	} else {
		fmt.Fprintf(&text, "\n%d spots needed to confirm", v.Availability.SpotsLeft)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reserve Your Spot", prefixReserve+strconv.Itoa(v.ID)),
		))
	}
	msg.Text = text.String()
	b.send(msg)
}

func (b *Bot) startReservation(ctx context.Context, chatID int64, id int) {
	v, ok := b.experience(ctx, chatID, id)
	if !ok {
		return
	}
	if v.Availability.SpotsLeft == 0 {
		b.send(tgbotapi.NewMessage(chatID, "This experience has no spots left."))
		return
	}
	state := &model.DialogState{ChatID: chatID, ExperienceID: id, Step: model.DialogStepName}
	if !b.save(ctx, state) {
		return
	}
	b.ask(chatID, fmt.Sprintf("Reserving %s.\nWhat is your full name?", v.Title))
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	state, err := b.dialogs.GetState(ctx, chatID)
	if err != nil {
		log.Printf("не удалось получить диалог %d: %v", chatID, err)
		b.send(tgbotapi.NewMessage(chatID, reservation.GenericFailureMessage))
		return
	}
	if state == nil {
		b.send(tgbotapi.NewMessage(chatID, "Use /experiences to browse trips."))
		return
	}

	switch state.Step {
	case model.DialogStepName:
		if msg := reservation.ValidateContact(text, "").Field(reservation.FieldName); msg != "" {
			b.ask(chatID, msg)
			return
		}
		state.Name = text
		state.Step = model.DialogStepEmail
		if b.save(ctx, state) {
			b.ask(chatID, "What is your email address?")
		}

	case model.DialogStepEmail:
		if msg := reservation.ValidateContact(state.Name, text).Field(reservation.FieldEmail); msg != "" {
			b.ask(chatID, msg)
			return
		}
		state.Email = text
		state.Step = model.DialogStepParticipants
		if b.save(ctx, state) {
			b.ask(chatID, "How many participants?")
		}

	case model.DialogStepParticipants:
		b.submit(ctx, state, text)

	default:
		b.clear(ctx, chatID)
	}
}

func (b *Bot) submit(ctx context.Context, state *model.DialogState, participants string) {
	chatID := state.ChatID
	v, ok := b.experience(ctx, chatID, state.ExperienceID)
	if !ok {
		b.clear(ctx, chatID)
		return
	}
	req, errs := reservation.Validate(v.Experience, reservation.Input{
		Name:         state.Name,
		Email:        state.Email,
		Participants: participants,
	})
	if len(errs) > 0 {
		if msg := errs.Field(reservation.FieldParticipants); msg != "" {
			b.ask(chatID, msg)
			return
		}
		// Имя или почта перестали проходить проверку: начинаем заново.
		b.clear(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, errs.Error()))
		return
	}

	ack, err := b.submitter.Submit(ctx, req)
	if err != nil {
		b.ask(chatID, reservation.MessageFor(err)+"\nSend the number of participants to try again.")
		return
	}
	b.clear(ctx, chatID)
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Reservation Confirmed!\nReservation #%d, total %s.\nWe'll notify you when the minimum group size is reached to complete your payment.",
		ack.ReservationID, ack.TotalPrice)))
}

func (b *Bot) cancel(ctx context.Context, chatID int64) {
	b.clear(ctx, chatID)
	b.send(tgbotapi.NewMessage(chatID, "Reservation cancelled."))
}

func (b *Bot) experience(ctx context.Context, chatID int64, id int) (*service.ExperienceView, bool) {
	v, err := b.catalog.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		b.send(tgbotapi.NewMessage(chatID, "Experience not found."))
		return nil, false
	}
	if err != nil {
		log.Printf("не удалось получить поездку %d: %v", id, err)
		b.send(tgbotapi.NewMessage(chatID, reservation.GenericFailureMessage))
		return nil, false
	}
	return v, true
}

// ask задает вопрос с кнопкой отмены.
func (b *Bot) ask(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Cancel", dataCancel),
	))
	b.send(msg)
}

func (b *Bot) save(ctx context.Context, state *model.DialogState) bool {
	if err := b.dialogs.SetState(ctx, state); err != nil {
		log.Printf("не удалось сохранить диалог %d: %v", state.ChatID, err)
		b.send(tgbotapi.NewMessage(state.ChatID, reservation.GenericFailureMessage))
		return false
	}
	return true
}

func (b *Bot) clear(ctx context.Context, chatID int64) {
	if err := b.dialogs.ClearState(ctx, chatID); err != nil {
		log.Printf("не удалось удалить диалог %d: %v", chatID, err)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Printf("не удалось отправить сообщение: %v", err)
	}
}
