package models

import "strings"

// QuoteStatus константы статусов заявки на бронирование.
const (
	StatusPending       = "pending"
	StatusSubmitted     = "submitted"
	StatusInProgress    = "in_progress"
	StatusQuoted        = "quoted"
	StatusQuoteViewed   = "quote_viewed"
	StatusQuoteAccepted = "quote_accepted"
	StatusInvoiced      = "invoiced"
	StatusPaid          = "paid"
	StatusCompleted     = "completed"
	StatusDelivered     = "delivered"
	StatusCancelled     = "cancelled"
	StatusRefunded      = "refunded"
)

// EventType константы типов событий аудита.
const (
	EventViewed         = "viewed"
	EventAccepted       = "accepted"
	EventDeclined       = "declined"
	EventExpired        = "expired"
	EventReminderSent   = "reminder_sent"
	EventPaymentStarted = "payment_started"
)

// UserRole константы ролей пользователей.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ValidQuoteStatuses список валидных статусов заявки.
var ValidQuoteStatuses = map[string]struct{}{
	StatusPending:       {},
	StatusSubmitted:     {},
	StatusInProgress:    {},
	StatusQuoted:        {},
	StatusQuoteViewed:   {},
	StatusQuoteAccepted: {},
	StatusInvoiced:      {},
	StatusPaid:          {},
	StatusCompleted:     {},
	StatusDelivered:     {},
	StatusCancelled:     {},
	StatusRefunded:      {},
}

// ValidEventTypes список валидных типов событий.
var ValidEventTypes = map[string]struct{}{
	EventViewed:         {},
	EventAccepted:       {},
	EventDeclined:       {},
	EventExpired:        {},
	EventReminderSent:   {},
	EventPaymentStarted: {},
}

// TerminalStatuses статусы, из которых переходы запрещены.
var TerminalStatuses = map[string]struct{}{
	StatusCancelled: {},
	StatusRefunded:  {},
}

// acceptedOrLater статусы, в которых повторное принятие предложения запрещено.
var acceptedOrLater = map[string]struct{}{
	StatusQuoteAccepted: {},
	StatusInvoiced:      {},
	StatusPaid:          {},
	StatusInProgress:    {},
	StatusCompleted:     {},
	StatusDelivered:     {},
}

// statusTransitions разрешённые переходы статусов.
// Регресс на более ранний статус не допускается ни для одного перехода.
var statusTransitions = map[string][]string{
	StatusPending:       {StatusSubmitted, StatusInProgress, StatusQuoted, StatusCancelled},
	StatusSubmitted:     {StatusInProgress, StatusQuoted, StatusCancelled},
	StatusInProgress:    {StatusQuoted, StatusCompleted, StatusDelivered, StatusCancelled, StatusRefunded},
	StatusQuoted:        {StatusQuoteViewed, StatusQuoteAccepted, StatusQuoted, StatusCancelled},
	StatusQuoteViewed:   {StatusQuoteAccepted, StatusQuoted, StatusCancelled},
	StatusQuoteAccepted: {StatusInvoiced, StatusCancelled, StatusRefunded},
	StatusInvoiced:      {StatusPaid, StatusCancelled, StatusRefunded},
	StatusPaid:          {StatusInProgress, StatusRefunded},
	StatusCompleted:     {StatusDelivered, StatusRefunded},
	StatusDelivered:     {StatusRefunded},
	StatusCancelled:     {},
	StatusRefunded:      {},
}

// IsValidStatus проверяет, входит ли статус в допустимый набор.
func IsValidStatus(status string) bool {
	_, ok := ValidQuoteStatuses[status]
	return ok
}

// IsTerminal проверяет, является ли статус терминальным.
func IsTerminal(status string) bool {
	_, ok := TerminalStatuses[status]
	return ok
}

// IsAcceptedOrLater сообщает, прошла ли заявка точку принятия предложения.
func IsAcceptedOrLater(status string) bool {
	_, ok := acceptedOrLater[status]
	return ok
}

// CanTransition проверяет, разрешён ли переход между статусами.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ViewTransition вычисляет статус после просмотра предложения.
// Статус меняется только из quoted: заявка, ушедшая дальше по
// жизненному циклу, назад в "просмотрено" не откатывается.
func ViewTransition(status string) (newStatus string, changed bool) {
	if status == StatusQuoted {
		return StatusQuoteViewed, true
	}
	return status, false
}

// AppendAdminNote дописывает заметку к существующим, не затирая их.
func AppendAdminNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
