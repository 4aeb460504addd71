package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"altomayo/internal/config"
	"altomayo/internal/handler"
	"altomayo/internal/metrics"
	"altomayo/internal/notify"
	"altomayo/internal/repository"
	"altomayo/internal/reservation"
	"altomayo/internal/service"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище: память или SQL с миграциями
	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Не удалось открыть хранилище: %v", err)
	}
	defer store.Close()
	log.Printf("Хранилище: %s", cfg.Storage.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Уведомления агентству и клиентам
	var tg notify.Sender
	if cfg.Telegram.BotToken != "" && len(cfg.Notify.TelegramChats) > 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatalf("Ошибка инициализации бота: %v", err)
		}
		tg = bot
	}
	notifier, closers, err := notify.Build(cfg.Notify, tg, m)
	if err != nil {
		log.Fatalf("Ошибка настройки уведомлений: %v", err)
	}
	defer closeAll(closers)

	// Инициализируем сервисы
	catalogService := service.NewCatalogService(store.Experiences)
	bookingService := service.NewBookingService(store.Experiences, store.Reservations, notifier, m)
	dashboardService := service.NewDashboardService(catalogService, store.Reservations)

	submitter, err := newSubmitter(cfg.Reservation, bookingService, catalogService)
	if err != nil {
		log.Fatalf("Ошибка настройки отправки заявок: %v", err)
	}
	forms := reservation.NewRegistry(submitter, reservation.FormConfig{SuccessDisplay: cfg.Reservation.SuccessDisplay}, cfg.Reservation.FormTTL)
	go forms.Run(ctx, cfg.Reservation.SweepInterval)

	// Создаем Handler и регистрируем маршруты
	h := handler.NewHandler(catalogService, bookingService, dashboardService, forms, m)
	tmpl, err := handler.Templates()
	if err != nil {
		log.Fatalf("Ошибка разбора шаблонов: %v", err)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.SetHTMLTemplate(tmpl)
	h.Routes(router)

	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(ctx, reg, cfg.Monitoring.PrometheusPort)
	}

	srv := &http.Server{Addr: cfg.HTTP.Address, Handler: router}
	go func() {
		log.Printf("HTTP-сервер слушает %s", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}

func newSubmitter(cfg config.ReservationConfig, booking *service.BookingService, catalog *service.CatalogService) (reservation.Submitter, error) {
	switch cfg.Submitter {
	case config.SubmitterBooking:
		return booking, nil
	case config.SubmitterSimulated:
		return &reservation.SimulatedSubmitter{Delay: cfg.SimulatedDelay, Price: catalog.Price}, nil
	case config.SubmitterHTTP:
		return reservation.NewHTTPSubmitter(cfg.ServiceURL), nil
	}
	return nil, fmt.Errorf("неизвестный способ отправки заявок %q", cfg.Submitter)
}

func serveMetrics(ctx context.Context, reg *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Printf("Метрики Prometheus на :%d/metrics", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Ошибка сервера метрик: %v", err)
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Printf("Ошибка закрытия: %v", err)
		}
	}
}
