package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuoteRequest описывает заявку на бронирование диджея и её коммерческие условия.
// Корневая сущность: события, ревизии и история статусов живут только вместе с ней.
type QuoteRequest struct {
	ID                  int64      `db:"id" json:"id"`
	UserID              *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	ContactName         string     `db:"contact_name" json:"contact_name"`
	ContactEmail        string     `db:"contact_email" json:"contact_email"`
	EventType           string     `db:"event_type" json:"event_type"`
	EventDate           *time.Time `db:"event_date" json:"event_date,omitempty"`
	EventDetails        string     `db:"event_details" json:"event_details"`
	Status              string     `db:"status" json:"status"`
	QuotedAmountCents   *int64     `db:"quoted_amount_cents" json:"quoted_amount_cents,omitempty"`
	TotalAmountCents    *int64     `db:"total_amount_cents" json:"total_amount_cents,omitempty"`
	CurrentQuoteVersion int        `db:"current_quote_version" json:"current_quote_version"`
	QuoteExpiresAt      *time.Time `db:"quote_expires_at" json:"quote_expires_at,omitempty"`
	QuoteViewedAt       *time.Time `db:"quote_viewed_at" json:"quote_viewed_at,omitempty"`
	QuoteAcceptedAt     *time.Time `db:"quote_accepted_at" json:"quote_accepted_at,omitempty"`
	AdminNotes          string     `db:"admin_notes" json:"admin_notes,omitempty"`
	ReminderSentAt      *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// IsOwnedBy проверяет принадлежность заявки пользователю.
func (q *QuoteRequest) IsOwnedBy(userID uuid.UUID) bool {
	return q.UserID != nil && *q.UserID == userID
}

// IsExpired сообщает, истёк ли срок действия предложения на момент now.
func (q *QuoteRequest) IsExpired(now time.Time) bool {
	return q.QuoteExpiresAt != nil && q.QuoteExpiresAt.Before(now)
}

// HasQuote сообщает, выставлена ли сумма предложения.
func (q *QuoteRequest) HasQuote() bool {
	return q.QuotedAmountCents != nil
}

// QuoteEvent запись аудита жизненного цикла заявки. Только вставка,
// обновления и удаления запрещены (кроме каскада с родителем).
type QuoteEvent struct {
	ID        int64           `db:"id" json:"id"`
	QuoteID   int64           `db:"quote_id" json:"quote_id"`
	EventType string          `db:"event_type" json:"event_type"`
	IPAddress string          `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string          `db:"user_agent" json:"user_agent,omitempty"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// QuoteRevision версия суммы предложения. current_quote_version заявки
// всегда указывает на существующую строку ревизии.
type QuoteRevision struct {
	ID          int64      `db:"id" json:"id"`
	QuoteID     int64      `db:"quote_id" json:"quote_id"`
	Version     int        `db:"version" json:"version"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Notes       string     `db:"notes" json:"notes,omitempty"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// OrderStatusHistory одна строка на каждый фактический переход статуса.
type OrderStatusHistory struct {
	ID             int64      `db:"id" json:"id"`
	QuoteID        int64      `db:"quote_id" json:"quote_id"`
	PreviousStatus string     `db:"previous_status" json:"previous_status"`
	NewStatus      string     `db:"new_status" json:"new_status"`
	ChangedBy      *uuid.UUID `db:"changed_by" json:"changed_by,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// BookingAttachment файл, приложенный клиентом к заявке (райдер, референсы).
type BookingAttachment struct {
	ID        int64     `db:"id" json:"id"`
	QuoteID   int64     `db:"quote_id" json:"quote_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FilePath  string    `db:"file_path" json:"file_path"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OutboxEntry уведомление, записанное в одной транзакции с переходом
// статуса и отправляемое отдельным воркером.
type OutboxEntry struct {
	ID           int64           `db:"id" json:"id"`
	QuoteID      int64           `db:"quote_id" json:"quote_id"`
	Kind         string          `db:"kind" json:"kind"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Attempts     int             `db:"attempts" json:"attempts"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	DispatchedAt *time.Time      `db:"dispatched_at" json:"dispatched_at,omitempty"`
}

// Типы уведомлений в outbox.
const (
	OutboxBookingReceived = "booking_received"
	OutboxQuoteIssued     = "quote_issued"
	OutboxQuoteAccepted   = "quote_accepted"
	OutboxQuoteDeclined   = "quote_declined"
	OutboxQuoteReminder   = "quote_reminder"
)
