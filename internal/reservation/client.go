package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"altomayo/internal/model"
)

// ErrorResponse тело ответа API при отказе.
type ErrorResponse struct {
	Error   Reason `json:"error"`
	Message string `json:"message"`
}

// HTTPSubmitter отправляет заявки во внешний сервис бронирования
// (POST {BaseURL}/api/reservations).
type HTTPSubmitter struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSubmitter создает клиента с таймаутом по умолчанию.
func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, req model.ReservationRequest) (Ack, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Ack{}, fmt.Errorf("не удалось сериализовать заявку: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/reservations", bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("не удалось создать запрос: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return Ack{}, fmt.Errorf("сервис бронирования недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var ack Ack
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return Ack{}, fmt.Errorf("некорректный ответ сервиса бронирования: %w", err)
		}
		return ack, nil
	}

	var failure ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil || failure.Error == "" {
		return Ack{}, Reject(ReasonServerError, GenericFailureMessage)
	}
	if failure.Message == "" {
		failure.Message = GenericFailureMessage
	}
	return Ack{}, Reject(failure.Error, failure.Message)
}
