package dto

import (
	"time"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
)

// QuoteResponse предложение, как его видит клиент.
type QuoteResponse struct {
	ID                  int64      `json:"id"`
	Status              string     `json:"status"`
	ContactName         string     `json:"contact_name"`
	EventType           string     `json:"event_type"`
	EventDate           *time.Time `json:"event_date,omitempty"`
	QuotedAmountCents   *int64     `json:"quoted_amount_cents,omitempty"`
	TotalAmountCents    *int64     `json:"total_amount_cents,omitempty"`
	CurrentQuoteVersion int        `json:"current_quote_version"`
	QuoteExpiresAt      *time.Time `json:"quote_expires_at,omitempty"`
	IsExpired           bool       `json:"is_expired"`
	QuoteViewedAt       *time.Time `json:"quote_viewed_at,omitempty"`
	QuoteAcceptedAt     *time.Time `json:"quote_accepted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// NewQuoteResponse собирает ответ из заявки и вычисленного признака истечения.
func NewQuoteResponse(q *models.QuoteRequest, isExpired bool) QuoteResponse {
	return QuoteResponse{
		ID:                  q.ID,
		Status:              q.Status,
		ContactName:         q.ContactName,
		EventType:           q.EventType,
		EventDate:           q.EventDate,
		QuotedAmountCents:   q.QuotedAmountCents,
		TotalAmountCents:    q.TotalAmountCents,
		CurrentQuoteVersion: q.CurrentQuoteVersion,
		QuoteExpiresAt:      q.QuoteExpiresAt,
		IsExpired:           isExpired,
		QuoteViewedAt:       q.QuoteViewedAt,
		QuoteAcceptedAt:     q.QuoteAcceptedAt,
		CreatedAt:           q.CreatedAt,
	}
}

// RevisionResponse одна ревизия суммы предложения.
type RevisionResponse struct {
	Version     int       `json:"version"`
	AmountCents int64     `json:"amount_cents"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRevisionResponses конвертирует список ревизий.
func NewRevisionResponses(revisions []models.QuoteRevision) []RevisionResponse {
	out := make([]RevisionResponse, 0, len(revisions))
	for _, r := range revisions {
		out = append(out, RevisionResponse{
			Version:     r.Version,
			AmountCents: r.AmountCents,
			Notes:       r.Notes,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}

// ListResponse страница списка с общим количеством.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}
