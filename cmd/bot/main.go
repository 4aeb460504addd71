package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"altomayo/internal/bot"
	"altomayo/internal/config"
	"altomayo/internal/notify"
	"altomayo/internal/repository"
	"altomayo/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatal("Не указан токен бота (TELEGRAM_BOT_TOKEN)")
	}
	if err := cfg.RequireSharedStorage(); err != nil {
		log.Fatalf("Бот не может работать с хранилищем %s: %v", cfg.Storage.Driver, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Не удалось открыть хранилище: %v", err)
	}
	defer store.Close()

	// Состояние диалогов: Redis, а без адреса память процесса
	var dialogs repository.DialogRepository
	if cfg.Redis.Address != "" {
		client := repository.NewRedisClient(cfg.Redis)
		defer client.Close()
		if err := repository.PingRedis(ctx, client); err != nil {
			log.Fatalf("Redis недоступен: %v", err)
		}
		dialogs = repository.NewRedisDialogRepository(client, cfg.Redis.DialogTTL)
	} else {
		log.Println("REDIS_ADDR не задан, диалоги хранятся в памяти")
		dialogs = repository.NewMemoryDialogRepository()
	}

	// Инициализация Telegram Bot API
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal("Ошибка инициализации бота:", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.Printf("Запущен бот %s", api.Self.UserName)

	notifier, closers, err := notify.Build(cfg.Notify, api, nil)
	if err != nil {
		log.Fatalf("Ошибка настройки уведомлений: %v", err)
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	catalogService := service.NewCatalogService(store.Experiences)
	bookingService := service.NewBookingService(store.Experiences, store.Reservations, notifier, nil)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	bot.New(api, catalogService, bookingService, dialogs).Run(ctx, updates)
	log.Println("Бот остановлен")
}
