package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"altomayo/internal/model"
	"altomayo/internal/repository"
	"altomayo/internal/reservation"
	"altomayo/internal/service"

	"github.com/gin-gonic/gin"
)

// Вкладки панели агентства.
const (
	tabExperiences  = "experiences"
	tabReservations = "reservations"
)

type detailPage struct {
	Exp   *service.ExperienceView
	Image int
	Prev  int
	Next  int
}

type formPage struct {
	Exp     *service.ExperienceView
	Form    reservation.Snapshot
	Total   model.Money
	Refresh bool
}

// CatalogPage обработчик для GET / - список поездок.
func (h *Handler) CatalogPage(c *gin.Context) {
	views, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "catalog.html", gin.H{"Experiences": views})
}

// DetailPage обработчик для GET /experience/:id?image=N.
func (h *Handler) DetailPage(c *gin.Context) {
	exp, ok := h.experience(c, c.Param("id"))
	if !ok {
		return
	}
	n := len(exp.Images)
	i := clampIndex(c.Query("image"), n)
	c.HTML(http.StatusOK, "detail.html", detailPage{
		Exp:   exp,
		Image: i,
		Prev:  (i - 1 + n) % n,
		Next:  (i + 1) % n,
	})
}

// OpenForm открывает новую форму бронирования и перенаправляет на нее.
func (h *Handler) OpenForm(c *gin.Context) {
	exp, ok := h.experience(c, c.Param("id"))
	if !ok {
		return
	}
	form := h.Forms.Open(exp.ID)
	h.Metrics.SetOpenForms(h.Forms.Len())
	c.Redirect(http.StatusSeeOther, formURL(form.ID))
}

// FormPage показывает текущее состояние формы.
func (h *Handler) FormPage(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, form)
}

// SubmitForm принимает поля формы и запускает отправку заявки.
func (h *Handler) SubmitForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	exp, err := h.Catalog.Get(c.Request.Context(), form.ExperienceID)
	if err != nil {
		h.lookupError(c, err)
		return
	}

	var in reservation.Input
	if err := c.ShouldBind(&in); err != nil {
		log.Printf("не удалось разобрать форму %s: %v", form.ID, err)
		h.problem(c, http.StatusBadRequest, "Invalid reservation form", "The reservation form could not be read. Please try again.")
		return
	}

	pending, err := form.Submit(c.Request.Context(), exp.Experience, in)
	var verrs reservation.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for field := range verrs {
			h.Metrics.IncValidationFailure(field)
		}
		h.renderForm(c, http.StatusUnprocessableEntity, form)
		return
	case errors.Is(err, reservation.ErrClosed):
		h.formExpired(c)
		return
	case err != nil:
		// Отправка уже идет или завершена: просто показываем форму.
		c.Redirect(http.StatusSeeOther, formURL(form.ID))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.SubmitWait)
	defer cancel()
	_, _ = pending.Wait(ctx)
	c.Redirect(http.StatusSeeOther, formURL(form.ID))
}

// DismissForm закрывает баннер ошибки или подтверждение.
func (h *Handler) DismissForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	if err := form.Dismiss(); errors.Is(err, reservation.ErrClosed) {
		h.formExpired(c)
		return
	}
	c.Redirect(http.StatusSeeOther, formURL(form.ID))
}

// CloseForm закрывает форму и возвращает на страницу поездки.
func (h *Handler) CloseForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	h.Forms.Close(form.ID)
	h.Metrics.SetOpenForms(h.Forms.Len())
	c.Redirect(http.StatusSeeOther, "/experience/"+strconv.Itoa(form.ExperienceID))
}

// DashboardPage обработчик для GET /dashboard?tab=experiences|reservations.
func (h *Handler) DashboardPage(c *gin.Context) {
	tab := c.Query("tab")
	if tab != tabReservations {
		tab = tabExperiences
	}
	d, err := h.Dashboard.Load(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Tab":          tab,
		"Stats":        d.Stats,
		"Experiences":  d.Experiences,
		"Reservations": d.Reservations,
	})
}

// MarkPaid отмечает подтвержденное бронирование оплаченным.
func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.notFound(c, "Reservation not found", "There is no reservation with this id.")
		return
	}
	err := h.Booking.MarkPaid(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.notFound(c, "Reservation not found", "There is no reservation with this id.")
	case errors.Is(err, repository.ErrInvalidTransition):
		h.problem(c, http.StatusConflict, "Cannot mark as paid", "Only confirmed reservations can be marked as paid.")
	case err != nil:
		h.serverError(c, err)
	default:
		c.Redirect(http.StatusSeeOther, "/dashboard?tab="+tabReservations)
	}
}

func (h *Handler) renderForm(c *gin.Context, status int, form *reservation.Form) {
	exp, err := h.Catalog.Get(c.Request.Context(), form.ExperienceID)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	snap := form.Snapshot()
	c.HTML(status, "reserve.html", formPage{
		Exp:     exp,
		Form:    snap,
		Total:   snap.TotalPrice(exp.Price),
		Refresh: snap.State == reservation.StateSubmitting,
	})
}

// experience находит поездку по строковому id; при ошибке уже ответил клиенту.
func (h *Handler) experience(c *gin.Context, raw string) (*service.ExperienceView, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		h.experienceNotFound(c)
		return nil, false
	}
	exp, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, err)
		return nil, false
	}
	return exp, true
}

func (h *Handler) form(c *gin.Context) (*reservation.Form, bool) {
	form, ok := h.Forms.Get(c.Param("form"))
	if !ok {
		h.formExpired(c)
		return nil, false
	}
	return form, true
}

func (h *Handler) lookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		h.experienceNotFound(c)
		return
	}
	h.serverError(c, err)
}

func (h *Handler) experienceNotFound(c *gin.Context) {
	h.notFound(c, "Experience not found", "The experience you are looking for does not exist or is no longer available.")
}

func (h *Handler) formExpired(c *gin.Context) {
	h.notFound(c, "Reservation form expired", "This reservation form is no longer open. Please start again from the experience page.")
}

func (h *Handler) notFound(c *gin.Context, title, message string) {
	h.problem(c, http.StatusNotFound, title, message)
}

func (h *Handler) serverError(c *gin.Context, err error) {
	log.Printf("ошибка обработки %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	h.problem(c, http.StatusInternalServerError, "Something went wrong", reservation.GenericFailureMessage)
}

func (h *Handler) problem(c *gin.Context, status int, title, message string) {
	c.HTML(status, "problem.html", gin.H{"Status": status, "Title": title, "Message": message})
}

func formURL(id string) string {
	return "/reservations/" + id
}

// clampIndex приводит номер изображения к границам галереи; мусор дает 0.
func clampIndex(raw string, n int) int {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
