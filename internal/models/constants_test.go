package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_HappyPath(t *testing.T) {
	assert.True(t, CanTransition(StatusSubmitted, StatusQuoted))
	assert.True(t, CanTransition(StatusQuoted, StatusQuoteViewed))
	assert.True(t, CanTransition(StatusQuoteViewed, StatusQuoteAccepted))
	assert.True(t, CanTransition(StatusQuoteAccepted, StatusInvoiced))
	assert.True(t, CanTransition(StatusInvoiced, StatusPaid))
	assert.True(t, CanTransition(StatusPaid, StatusInProgress))
	assert.True(t, CanTransition(StatusInProgress, StatusCompleted))
	assert.True(t, CanTransition(StatusCompleted, StatusDelivered))
}

func TestCanTransition_NoRegression(t *testing.T) {
	// Назад по жизненному циклу пути нет.
	assert.False(t, CanTransition(StatusQuoteAccepted, StatusQuoteViewed))
	assert.False(t, CanTransition(StatusQuoteViewed, StatusQuoteViewed))
	assert.False(t, CanTransition(StatusPaid, StatusQuoted))
	assert.False(t, CanTransition(StatusDelivered, StatusCompleted))
}

func TestCanTransition_TerminalStatesAbsorbing(t *testing.T) {
	for _, terminal := range []string{StatusCancelled, StatusRefunded} {
		for status := range ValidQuoteStatuses {
			assert.False(t, CanTransition(terminal, status),
				"переход из %s в %s должен быть запрещён", terminal, status)
		}
	}
}

func TestViewTransition(t *testing.T) {
	newStatus, changed := ViewTransition(StatusQuoted)
	assert.Equal(t, StatusQuoteViewed, newStatus)
	assert.True(t, changed)

	// Просмотр не откатывает более поздний статус.
	for _, status := range []string{StatusQuoteViewed, StatusQuoteAccepted, StatusInvoiced, StatusPaid, StatusCancelled} {
		newStatus, changed := ViewTransition(status)
		assert.Equal(t, status, newStatus)
		assert.False(t, changed)
	}
}

func TestIsAcceptedOrLater(t *testing.T) {
	assert.True(t, IsAcceptedOrLater(StatusQuoteAccepted))
	assert.True(t, IsAcceptedOrLater(StatusInvoiced))
	assert.True(t, IsAcceptedOrLater(StatusPaid))
	assert.True(t, IsAcceptedOrLater(StatusDelivered))

	assert.False(t, IsAcceptedOrLater(StatusQuoted))
	assert.False(t, IsAcceptedOrLater(StatusQuoteViewed))
	assert.False(t, IsAcceptedOrLater(StatusCancelled))
}

func TestAppendAdminNote(t *testing.T) {
	result := AppendAdminNote("prior note", "too expensive")
	assert.Contains(t, result, "prior note")
	assert.Contains(t, result, "too expensive")

	assert.Equal(t, "too expensive", AppendAdminNote("", "too expensive"))
	assert.Equal(t, "prior note", AppendAdminNote("prior note", ""))
	assert.Equal(t, "prior note", AppendAdminNote("prior note", "   "))
}

func TestIsValidStatus(t *testing.T) {
	for status := range ValidQuoteStatuses {
		assert.True(t, IsValidStatus(status))
	}
	assert.False(t, IsValidStatus("unknown"))
	assert.False(t, IsValidStatus(""))
}
