package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
)

// OutboxRepository описывает очередь уведомлений, заполняемую транзакциями переходов.
type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkDispatched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
}

// EmailSender отправляет письмо. Механика доставки вне зоны ответственности
// сервиса: ошибка логируется, транзакция перехода её никогда не видит.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AdminBroadcaster пушит событие администраторам в реальном времени.
type AdminBroadcaster interface {
	Broadcast(event string, data interface{})
}

// NotificationService разгребает outbox: письма + push в админку.
// Семантика at-least-once, ошибки не фатальны.
type NotificationService struct {
	outbox     OutboxRepository
	sender     EmailSender
	hub        AdminBroadcaster
	adminEmail string
	interval   time.Duration
	wakeCh     chan struct{}
}

// NewNotificationService создаёт сервис рассылки уведомлений.
func NewNotificationService(outbox OutboxRepository, sender EmailSender, hub AdminBroadcaster, adminEmail string, interval time.Duration) *NotificationService {
	return &NotificationService{
		outbox:     outbox,
		sender:     sender,
		hub:        hub,
		adminEmail: adminEmail,
		interval:   interval,
		wakeCh:     make(chan struct{}, 1),
	}
}

// Wake будит воркер без ожидания очередного тика. Неблокирующий вызов.
func (s *NotificationService) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run крутит цикл рассылки до отмены контекста.
func (s *NotificationService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wakeCh:
		}
		s.dispatchPending(ctx)
	}
}

// dispatchPending обрабатывает пачку неотправленных записей.
func (s *NotificationService) dispatchPending(ctx context.Context) {
	entries, err := s.outbox.FetchPending(ctx, 50)
	if err != nil {
		s.log().WithError(err).Error("outbox: fetch pending failed")
		return
	}

	for _, entry := range entries {
		if err := s.dispatch(ctx, entry); err != nil {
			s.log().WithFields(logrus.Fields{
				"outbox_id": entry.ID,
				"quote_id":  entry.QuoteID,
				"kind":      entry.Kind,
			}).WithError(err).Warn("outbox: dispatch failed, will retry")

			if err := s.outbox.MarkFailed(ctx, entry.ID); err != nil {
				s.log().WithError(err).Error("outbox: mark failed")
			}
			continue
		}

		if err := s.outbox.MarkDispatched(ctx, entry.ID); err != nil {
			s.log().WithError(err).Error("outbox: mark dispatched")
		}
	}
}

// dispatch отправляет одну запись: письмо и push в админку.
func (s *NotificationService) dispatch(ctx context.Context, entry models.OutboxEntry) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		payload = map[string]interface{}{}
	}

	if s.hub != nil {
		s.hub.Broadcast(entry.Kind, map[string]interface{}{
			"quote_id": entry.QuoteID,
			"payload":  payload,
		})
	}

	subject, body := s.composeEmail(entry, payload)
	if err := s.sender.Send(ctx, s.adminEmail, subject, body); err != nil {
		return err
	}
	return nil
}

func (s *NotificationService) composeEmail(entry models.OutboxEntry, payload map[string]interface{}) (string, string) {
	switch entry.Kind {
	case models.OutboxBookingReceived:
		return fmt.Sprintf("Новая заявка #%d", entry.QuoteID),
			fmt.Sprintf("Поступила заявка на бронирование #%d от %v.", entry.QuoteID, payload["contact_name"])
	case models.OutboxQuoteIssued:
		return fmt.Sprintf("Предложение по заявке #%d выставлено", entry.QuoteID),
			fmt.Sprintf("Клиенту отправлено предложение по заявке #%d (версия %v).", entry.QuoteID, payload["version"])
	case models.OutboxQuoteAccepted:
		return fmt.Sprintf("Предложение по заявке #%d принято", entry.QuoteID),
			fmt.Sprintf("Клиент принял предложение по заявке #%d.", entry.QuoteID)
	case models.OutboxQuoteDeclined:
		return fmt.Sprintf("Предложение по заявке #%d отклонено", entry.QuoteID),
			fmt.Sprintf("Клиент отклонил предложение по заявке #%d. Причина: %v", entry.QuoteID, payload["reason"])
	case models.OutboxQuoteReminder:
		return fmt.Sprintf("Напоминание по заявке #%d", entry.QuoteID),
			fmt.Sprintf("Срок предложения по заявке #%d истекает %v.", entry.QuoteID, payload["expires_at"])
	}
	return fmt.Sprintf("Уведомление по заявке #%d", entry.QuoteID), entry.Kind
}

func (s *NotificationService) log() *logrus.Logger {
	if logger.Log != nil {
		return logger.Log
	}
	return logrus.StandardLogger()
}

// LogEmailSender пишет письма в лог вместо отправки (development).
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, to, subject, _ string) error {
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email (dev mode)")
	}
	return nil
}
