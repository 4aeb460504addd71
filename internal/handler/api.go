package handler

import (
	"errors"
	"log"
	"net/http"

	"altomayo/internal/model"
	"altomayo/internal/repository"
	"altomayo/internal/reservation"
	"altomayo/internal/service"

	"github.com/gin-gonic/gin"
)

// reasonInvalidRequest тело запроса не удалось разобрать.
const reasonInvalidRequest reservation.Reason = "invalid_request"

func statusFor(reason reservation.Reason) int {
	switch reason {
	case reservation.ReasonInvalidEmail, reservation.ReasonInvalidName,
		reservation.ReasonInvalidParticipants, reasonInvalidRequest:
		return http.StatusBadRequest
	case reservation.ReasonNotFound:
		return http.StatusNotFound
	case reservation.ReasonCapacityExceeded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c *gin.Context, reason reservation.Reason, message string) {
	c.JSON(statusFor(reason), reservation.ErrorResponse{Error: reason, Message: message})
}

// ListExperiences обработчик для GET /api/experiences?location=&q=&open=.
func (h *Handler) ListExperiences(c *gin.Context) {
	var filter service.ExperienceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		jsonError(c, reasonInvalidRequest, "Invalid search parameters.")
		return
	}
	views, err := h.Locations.SearchExperiences(c.Request.Context(), filter)
	if err != nil {
		log.Printf("не удалось получить каталог: %v", err)
		jsonError(c, reservation.ReasonServerError, reservation.GenericFailureMessage)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ListLocations обработчик для GET /api/locations.
func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.Locations.Locations(c.Request.Context())
	if err != nil {
		log.Printf("не удалось получить локации: %v", err)
		jsonError(c, reservation.ReasonServerError, reservation.GenericFailureMessage)
		return
	}
	c.JSON(http.StatusOK, locations)
}

// GetExperience обработчик для GET /api/experiences/:id.
func (h *Handler) GetExperience(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		jsonError(c, reservation.ReasonNotFound, "Experience not found.")
		return
	}
	view, err := h.Catalog.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		jsonError(c, reservation.ReasonNotFound, "Experience not found.")
		return
	}
	if err != nil {
		log.Printf("не удалось получить поездку %d: %v", id, err)
		jsonError(c, reservation.ReasonServerError, reservation.GenericFailureMessage)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListReservations обработчик для GET /api/reservations.
func (h *Handler) ListReservations(c *gin.Context) {
	d, err := h.Dashboard.Load(c.Request.Context())
	if err != nil {
		log.Printf("не удалось получить бронирования: %v", err)
		jsonError(c, reservation.ReasonServerError, reservation.GenericFailureMessage)
		return
	}
	c.JSON(http.StatusOK, d.Reservations)
}

// CreateReservation обработчик для POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req model.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, reasonInvalidRequest, "Malformed reservation request.")
		return
	}
	ack, err := h.Booking.Submit(c.Request.Context(), req)
	if err != nil {
		reason := reservation.ReasonFor(err)
		if reason == reservation.ReasonServerError {
			log.Printf("не удалось принять бронирование: %v", err)
		}
		jsonError(c, reason, reservation.MessageFor(err))
		return
	}
	c.JSON(http.StatusCreated, ack)
}
