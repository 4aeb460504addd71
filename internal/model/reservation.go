package model

import "time"

// ReservationStatus статус записи о бронировании.
type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationPaid      ReservationStatus = "paid"
)

// ReservationRequest заявка клиента на участие в поездке.
type ReservationRequest struct {
	ExperienceID  int    `json:"experienceId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Participants  int    `json:"participants"`
}

// TotalPrice итоговая стоимость заявки: participants × price.
func (r ReservationRequest) TotalPrice(price Money) Money {
	return price.Times(r.Participants)
}

// Reservation запись о бронировании, которую видит агентство.
type Reservation struct {
	ID            int               `json:"id" db:"id"`
	ExperienceID  int               `json:"experienceId" db:"experience_id"`
	CustomerName  string            `json:"customerName" db:"customer_name"`
	CustomerEmail string            `json:"customerEmail" db:"customer_email"`
	Participants  int               `json:"participants" db:"participants"`
	TotalPrice    Money             `json:"totalPriceCents" db:"total_price_cents"`
	Status        ReservationStatus `json:"status" db:"status"`
	Date          time.Time         `json:"date" db:"date"` // дата начала поездки
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
}

// DateString форматирует дату поездки.
func (r *Reservation) DateString() string {
	return r.Date.Format(DateLayout)
}
