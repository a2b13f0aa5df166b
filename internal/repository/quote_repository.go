package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/repository/common"
)

// QuoteRepository выполняет все переходы жизненного цикла заявки.
// Каждый переход — одна транзакция: чтение текущего статуса под
// блокировкой строки, запись статуса, события, истории и outbox.
type QuoteRepository struct {
	db *sqlx.DB
}

func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create сохраняет новую заявку на бронирование и уведомление для админа.
func (r *QuoteRepository) Create(ctx context.Context, q *models.QuoteRequest) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, q, `
			INSERT INTO quote_requests (user_id, contact_name, contact_email, event_type, event_date, event_details, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		`, q.UserID, q.ContactName, q.ContactEmail, q.EventType, q.EventDate, q.EventDetails, models.StatusSubmitted)
		if err != nil {
			return fmt.Errorf("quote repository: create %w", err)
		}

		return insertOutbox(ctx, tx, q.ID, models.OutboxBookingReceived, map[string]interface{}{
			"contact_name":  q.ContactName,
			"contact_email": q.ContactEmail,
			"event_type":    q.EventType,
		})
	})
}

// GetByID возвращает заявку по идентификатору.
func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*models.QuoteRequest, error) {
	return common.GetByID[models.QuoteRequest](ctx, r.db, "quote_requests", id, apperror.ErrQuoteNotFound)
}

// ListByUser возвращает заявки пользователя, новые первыми.
func (r *QuoteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuoteRequest, error) {
	var quotes []models.QuoteRequest
	err := r.db.SelectContext(ctx, &quotes, `
		SELECT * FROM quote_requests WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("quote repository: list by user %w", err)
	}
	return quotes, nil
}

// List возвращает страницу заявок для админки с опциональным фильтром по статусу.
func (r *QuoteRepository) List(ctx context.Context, status string, limit, offset int) ([]models.QuoteRequest, int, error) {
	var quotes []models.QuoteRequest
	var total int

	if status != "" {
		if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM quote_requests WHERE status = $1`, status); err != nil {
			return nil, 0, fmt.Errorf("quote repository: count %w", err)
		}
		err := r.db.SelectContext(ctx, &quotes, `
			SELECT * FROM quote_requests WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`, status, limit, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("quote repository: list %w", err)
		}
		return quotes, total, nil
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM quote_requests`); err != nil {
		return nil, 0, fmt.Errorf("quote repository: count %w", err)
	}
	err := r.db.SelectContext(ctx, &quotes, `
		SELECT * FROM quote_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("quote repository: list %w", err)
	}
	return quotes, total, nil
}

// ListRevisions возвращает ревизии суммы по убыванию версии.
func (r *QuoteRepository) ListRevisions(ctx context.Context, quoteID int64) ([]models.QuoteRevision, error) {
	var revisions []models.QuoteRevision
	err := r.db.SelectContext(ctx, &revisions, `
		SELECT * FROM quote_revisions WHERE quote_id = $1 ORDER BY version DESC
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("quote repository: list revisions %w", err)
	}
	return revisions, nil
}

// ListEvents возвращает журнал событий заявки для админки.
func (r *QuoteRepository) ListEvents(ctx context.Context, quoteID int64) ([]models.QuoteEvent, error) {
	var events []models.QuoteEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM quote_events WHERE quote_id = $1 ORDER BY created_at DESC
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("quote repository: list events %w", err)
	}
	return events, nil
}

// RecordView фиксирует просмотр предложения. Событие пишется при каждом
// просмотре, статус меняется только при первом просмотре из quoted.
func (r *QuoteRepository) RecordView(ctx context.Context, id int64, ip, userAgent string) (bool, error) {
	var statusChanged bool

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		q, err := lockQuote(ctx, tx, id)
		if err != nil {
			return err
		}

		meta := models.MarshalEventMetadata(models.ViewedMetadata{})
		if err := insertEvent(ctx, tx, id, models.EventViewed, ip, userAgent, meta); err != nil {
			return err
		}

		newStatus, changed := models.ViewTransition(q.Status)
		if q.QuoteViewedAt == nil {
			if _, err := tx.ExecContext(ctx, `
				UPDATE quote_requests SET quote_viewed_at = NOW(), status = $2, updated_at = NOW() WHERE id = $1
			`, id, newStatus); err != nil {
				return fmt.Errorf("quote repository: record view %w", err)
			}
			if changed {
				if err := insertHistory(ctx, tx, id, q.Status, newStatus, nil, ""); err != nil {
					return err
				}
			}
			statusChanged = changed
		}

		return nil
	})
	if err != nil {
		return false, err
	}
	return statusChanged, nil
}

// Accept атомарно принимает предложение. Предусловия перепроверяются
// под блокировкой строки: из двух конкурентных принятий выигрывает одно.
func (r *QuoteRepository) Accept(ctx context.Context, id int64, actor uuid.UUID) (*models.QuoteRequest, error) {
	var accepted *models.QuoteRequest

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		q, err := lockQuote(ctx, tx, id)
		if err != nil {
			return err
		}

		if !q.HasQuote() {
			return apperror.ErrQuoteNotIssued
		}
		if models.IsAcceptedOrLater(q.Status) {
			return apperror.ErrAlreadyAccepted
		}
		if models.IsTerminal(q.Status) {
			return apperror.New(apperror.ErrCodeBadRequest, "заявка уже закрыта")
		}
		if q.IsExpired(time.Now()) {
			return apperror.ErrQuoteExpired
		}

		var updated models.QuoteRequest
		err = tx.GetContext(ctx, &updated, `
			UPDATE quote_requests
			SET status = $2, quote_accepted_at = NOW(), total_amount_cents = quoted_amount_cents, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, id, models.StatusQuoteAccepted)
		if err != nil {
			return fmt.Errorf("quote repository: accept %w", err)
		}

		meta := models.MarshalEventMetadata(models.AcceptedMetadata{Actor: actor})
		if err := insertEvent(ctx, tx, id, models.EventAccepted, "", "", meta); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, id, q.Status, models.StatusQuoteAccepted, &actor, ""); err != nil {
			return err
		}
		if err := insertOutbox(ctx, tx, id, models.OutboxQuoteAccepted, map[string]interface{}{
			"actor":        actor.String(),
			"amount_cents": *updated.TotalAmountCents,
		}); err != nil {
			return err
		}

		accepted = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// Decline переводит заявку в cancelled из любого нетерминального статуса.
// Причина отказа дописывается к admin_notes, прежние заметки сохраняются.
func (r *QuoteRepository) Decline(ctx context.Context, id int64, actor *uuid.UUID, reason string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		q, err := lockQuote(ctx, tx, id)
		if err != nil {
			return err
		}

		if models.IsTerminal(q.Status) {
			return apperror.New(apperror.ErrCodeBadRequest, "заявка уже закрыта")
		}

		notes := models.AppendAdminNote(q.AdminNotes, reason)
		if _, err := tx.ExecContext(ctx, `
			UPDATE quote_requests SET status = $2, admin_notes = $3, updated_at = NOW() WHERE id = $1
		`, id, models.StatusCancelled, notes); err != nil {
			return fmt.Errorf("quote repository: decline %w", err)
		}

		meta := models.MarshalEventMetadata(models.DeclinedMetadata{Actor: actor, Reason: reason})
		if err := insertEvent(ctx, tx, id, models.EventDeclined, "", "", meta); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, id, q.Status, models.StatusCancelled, actor, reason); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, id, models.OutboxQuoteDeclined, map[string]interface{}{
			"reason": reason,
		})
	})
}

// IssueQuoteParams входные данные выставления предложения администратором.
type IssueQuoteParams struct {
	QuoteID     int64
	AmountCents int64
	ExpiresAt   *time.Time
	Notes       string
	CreatedBy   uuid.UUID
}

// IssueQuote выставляет (или перевыставляет) предложение: новая ревизия
// суммы, обновление заявки и уведомление клиенту — одной транзакцией.
func (r *QuoteRepository) IssueQuote(ctx context.Context, p IssueQuoteParams) (*models.QuoteRequest, error) {
	var issued *models.QuoteRequest

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		q, err := lockQuote(ctx, tx, p.QuoteID)
		if err != nil {
			return err
		}

		if models.IsAcceptedOrLater(q.Status) {
			return apperror.ErrAlreadyAccepted
		}
		if models.IsTerminal(q.Status) {
			return apperror.New(apperror.ErrCodeBadRequest, "заявка уже закрыта")
		}

		// Первая ревизия получает версию 1 (дефолт current_quote_version),
		// перевыставление — следующую версию.
		version := q.CurrentQuoteVersion
		if q.HasQuote() {
			version = q.CurrentQuoteVersion + 1
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quote_revisions (quote_id, version, amount_cents, notes, created_by)
			VALUES ($1, $2, $3, $4, $5)
		`, p.QuoteID, version, p.AmountCents, p.Notes, p.CreatedBy); err != nil {
			return fmt.Errorf("quote repository: insert revision %w", err)
		}

		var updated models.QuoteRequest
		err = tx.GetContext(ctx, &updated, `
			UPDATE quote_requests
			SET quoted_amount_cents = $2, current_quote_version = $3, quote_expires_at = $4,
			    status = $5, quote_viewed_at = NULL, reminder_sent_at = NULL, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, p.QuoteID, p.AmountCents, version, p.ExpiresAt, models.StatusQuoted)
		if err != nil {
			return fmt.Errorf("quote repository: issue quote %w", err)
		}

		if q.Status != models.StatusQuoted {
			if err := insertHistory(ctx, tx, p.QuoteID, q.Status, models.StatusQuoted, &p.CreatedBy, p.Notes); err != nil {
				return err
			}
		}
		if err := insertOutbox(ctx, tx, p.QuoteID, models.OutboxQuoteIssued, map[string]interface{}{
			"amount_cents": p.AmountCents,
			"version":      version,
		}); err != nil {
			return err
		}

		issued = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// UpdateStatus выполняет административный переход статуса по карте разрешённых переходов.
func (r *QuoteRepository) UpdateStatus(ctx context.Context, id int64, newStatus string, changedBy uuid.UUID, notes string) error {
	if !models.IsValidStatus(newStatus) {
		return apperror.New(apperror.ErrCodeValidation, "неизвестный статус")
	}

	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		q, err := lockQuote(ctx, tx, id)
		if err != nil {
			return err
		}

		if !models.CanTransition(q.Status, newStatus) {
			return apperror.New(apperror.ErrCodeBadRequest,
				fmt.Sprintf("переход %s -> %s запрещён", q.Status, newStatus))
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE quote_requests SET status = $2, updated_at = NOW() WHERE id = $1
		`, id, newStatus); err != nil {
			return fmt.Errorf("quote repository: update status %w", err)
		}

		return insertHistory(ctx, tx, id, q.Status, newStatus, &changedBy, notes)
	})
}

// SweepExpired пишет событие expired для просроченных предложений.
// Статус не трогаем: истечение окончательно проверяется при принятии.
func (r *QuoteRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT q.id FROM quote_requests q
		WHERE q.quote_expires_at IS NOT NULL AND q.quote_expires_at < $1
		  AND q.status IN ($2, $3)
		  AND NOT EXISTS (
			SELECT 1 FROM quote_events e WHERE e.quote_id = q.id AND e.event_type = $4
		  )
	`, now, models.StatusQuoted, models.StatusQuoteViewed, models.EventExpired)
	if err != nil {
		return 0, fmt.Errorf("quote repository: sweep expired select %w", err)
	}

	for _, id := range ids {
		err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
			q, err := lockQuote(ctx, tx, id)
			if err != nil {
				return err
			}
			meta := models.MarshalEventMetadata(models.ExpiredMetadata{ExpiredAt: q.QuoteExpiresAt.Format(time.RFC3339)})
			return insertEvent(ctx, tx, id, models.EventExpired, "", "", meta)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// SweepReminders отправляет напоминание по предложениям, истекающим в
// ближайшее окно. Не более одного напоминания на ревизию.
func (r *QuoteRepository) SweepReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM quote_requests
		WHERE quote_expires_at IS NOT NULL
		  AND quote_expires_at > $1 AND quote_expires_at < $2
		  AND status IN ($3, $4)
		  AND reminder_sent_at IS NULL
	`, now, now.Add(lead), models.StatusQuoted, models.StatusQuoteViewed)
	if err != nil {
		return 0, fmt.Errorf("quote repository: sweep reminders select %w", err)
	}

	for _, id := range ids {
		err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
			q, err := lockQuote(ctx, tx, id)
			if err != nil {
				return err
			}
			if q.ReminderSentAt != nil {
				return nil
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE quote_requests SET reminder_sent_at = NOW() WHERE id = $1
			`, id); err != nil {
				return fmt.Errorf("quote repository: mark reminder %w", err)
			}
			meta := models.MarshalEventMetadata(models.ReminderMetadata{ExpiresAt: q.QuoteExpiresAt.Format(time.RFC3339)})
			if err := insertEvent(ctx, tx, id, models.EventReminderSent, "", "", meta); err != nil {
				return err
			}
			return insertOutbox(ctx, tx, id, models.OutboxQuoteReminder, map[string]interface{}{
				"expires_at": q.QuoteExpiresAt.Format(time.RFC3339),
			})
		})
		if err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// lockQuote читает заявку под блокировкой строки внутри транзакции.
func lockQuote(ctx context.Context, tx *sqlx.Tx, id int64) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	err := tx.GetContext(ctx, &q, `SELECT * FROM quote_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("quote repository: lock quote %w", err)
	}
	return &q, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, quoteID int64, eventType, ip, userAgent string, metadata json.RawMessage) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO quote_events (quote_id, event_type, ip_address, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, quoteID, eventType, ip, userAgent, metadata)
	if err != nil {
		return fmt.Errorf("quote repository: insert event %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, quoteID int64, previous, next string, changedBy *uuid.UUID, notes string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (quote_id, previous_status, new_status, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, quoteID, previous, next, changedBy, notes)
	if err != nil {
		return fmt.Errorf("quote repository: insert history %w", err)
	}
	return nil
}

func insertOutbox(ctx context.Context, tx *sqlx.Tx, quoteID int64, kind string, payload map[string]interface{}) error {
	raw, _ := json.Marshal(payload)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO notification_outbox (quote_id, kind, payload)
		VALUES ($1, $2, $3)
	`, quoteID, kind, raw)
	if err != nil {
		return fmt.Errorf("quote repository: insert outbox %w", err)
	}
	return nil
}
