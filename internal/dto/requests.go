package dto

import "time"

// RegisterRequest входные данные регистрации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// LoginRequest входные данные входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest запрос обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateBookingRequest заявка на бронирование диджея.
type CreateBookingRequest struct {
	ContactName  string `json:"contact_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required"`
	EventType    string `json:"event_type"`
	EventDate    string `json:"event_date"`
	EventDetails string `json:"event_details"`
}

// ParseEventDate парсит дату события в формате RFC3339.
func (r *CreateBookingRequest) ParseEventDate() (*time.Time, error) {
	if r.EventDate == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, r.EventDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeclineQuoteRequest отклонение предложения с опциональной причиной.
type DeclineQuoteRequest struct {
	Reason string `json:"reason"`
}

// IssueQuoteRequest выставление предложения администратором.
type IssueQuoteRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	ExpiresAt   string `json:"expires_at"`
	Notes       string `json:"notes"`
}

// ParseExpiresAt парсит срок действия в формате RFC3339.
func (r *IssueQuoteRequest) ParseExpiresAt() (*time.Time, error) {
	if r.ExpiresAt == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, r.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatusRequest административный переход статуса.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}
