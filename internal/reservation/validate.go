package reservation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"altomayo/internal/availability"
	"altomayo/internal/model"

	"github.com/go-playground/validator/v10"
)

// Имена полей формы.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldParticipants = "participants"
)

// Input сырые значения полей формы в том виде, в каком их ввел пользователь.
type Input struct {
	Name         string `form:"name"`
	Email        string `form:"email"`
	Participants string `form:"participants"`
}

// ValidationErrors ошибки по полям формы.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid reservation: " + strings.Join(parts, "; ")
}

// Field сообщение для конкретного поля или пустая строка.
func (v ValidationErrors) Field(name string) string {
	return v[name]
}

type contactFields struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

var validate = validator.New()

// ValidateContact проверяет имя и адрес электронной почты.
func ValidateContact(name, email string) ValidationErrors {
	errs := ValidationErrors{}
	err := validate.Struct(contactFields{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)})
	if err == nil {
		return errs
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs[FieldEmail] = "Please enter a valid email address."
		return errs
	}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Name":
			errs[FieldName] = "Please enter your full name."
		case "Email":
			errs[FieldEmail] = "Please enter a valid email address."
		}
	}
	return errs
}

// ValidateParticipants проверяет 1 ≤ participants ≤ spotsLeft.
func ValidateParticipants(participants, spotsLeft int) string {
	if participants < 1 {
		return "At least one participant is required."
	}
	if participants > spotsLeft {
		if spotsLeft == 0 {
			return "This experience has no spots left."
		}
		return fmt.Sprintf("Only %d spots left for this experience.", spotsLeft)
	}
	return ""
}

// Validate проверяет ввод относительно текущих счетчиков поездки и
// возвращает заявку, готовую к отправке.
func Validate(exp model.Experience, in Input) (model.ReservationRequest, ValidationErrors) {
	errs := ValidateContact(in.Name, in.Email)

	participants, err := strconv.Atoi(strings.TrimSpace(in.Participants))
	if err != nil {
		errs[FieldParticipants] = "Number of participants must be a whole number."
	} else if msg := ValidateParticipants(participants, availability.SpotsLeft(exp.MinParticipants, exp.CurrentParticipants)); msg != "" {
		errs[FieldParticipants] = msg
	}

	if len(errs) > 0 {
		return model.ReservationRequest{}, errs
	}
	return model.ReservationRequest{
		ExperienceID:  exp.ID,
		CustomerName:  strings.TrimSpace(in.Name),
		CustomerEmail: strings.TrimSpace(in.Email),
		Participants:  participants,
	}, nil
}
