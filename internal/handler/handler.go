package handler

import (
	"net/http"
	"strconv"
	"time"

	"altomayo/internal/metrics"
	"altomayo/internal/reservation"
	"altomayo/internal/service"

	"github.com/gin-gonic/gin"
)

// DefaultSubmitWait сколько POST формы ждет ответа сервиса перед перенаправлением.
const DefaultSubmitWait = 3 * time.Second

// Handler структурирует зависимости сервисов для обработки HTTP-запросов.
type Handler struct {
	Catalog   *service.CatalogService
	Booking   *service.BookingService
	Dashboard *service.DashboardService
	Locations *service.LocationService
	Forms     *reservation.Registry
	Metrics   *metrics.Metrics
	// SubmitWait если ответ не пришел за это время, страница формы
	// показывает состояние отправки и обновляется сама.
	SubmitWait time.Duration
}

// NewHandler создает новый Handler с внедрением зависимостей (сервисов).
func NewHandler(catalog *service.CatalogService, booking *service.BookingService, dashboard *service.DashboardService,
	forms *reservation.Registry, m *metrics.Metrics) *Handler {
	return &Handler{
		Catalog:    catalog,
		Booking:    booking,
		Dashboard:  dashboard,
		Locations:  service.NewLocationService(catalog),
		Forms:      forms,
		Metrics:    m,
		SubmitWait: DefaultSubmitWait,
	}
}

// Routes регистрирует страницы, JSON API и health-check.
// Шаблоны должны быть уже установлены через router.SetHTMLTemplate.
func (h *Handler) Routes(router *gin.Engine) {
	router.Use(h.Metrics.Middleware())

	router.GET("/", h.CatalogPage)
	router.GET("/experience/:id", h.DetailPage)
	router.POST("/experience/:id/reserve", h.OpenForm)

	forms := router.Group("/reservations/:form")
	{
		forms.GET("", h.FormPage)
		forms.POST("", h.SubmitForm)
		forms.POST("/dismiss", h.DismissForm)
		forms.POST("/close", h.CloseForm)
	}

	router.GET("/dashboard", h.DashboardPage)
	router.POST("/dashboard/reservations/:id/paid", h.MarkPaid)

	api := router.Group("/api")
	{
		api.GET("/experiences", h.ListExperiences)
		api.GET("/experiences/:id", h.GetExperience)
		api.GET("/locations", h.ListLocations)
		api.GET("/reservations", h.ListReservations)
		api.POST("/reservations", h.CreateReservation)
	}

	// Health-check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		h.notFound(c, "Page not found", "The page you are looking for does not exist.")
	})
}

// paramID разбирает положительный целочисленный идентификатор из пути.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
