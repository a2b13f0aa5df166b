package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
)

// OutboxRepository выдаёт воркеру неотправленные уведомления.
// Записи создаются только внутри транзакций переходов (см. QuoteRepository).
type OutboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// FetchPending возвращает пачку неотправленных записей, старые первыми.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	var entries []models.OutboxEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM notification_outbox
		WHERE dispatched_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox repository: fetch pending %w", err)
	}
	return entries, nil
}

// MarkDispatched отмечает запись отправленной.
func (r *OutboxRepository) MarkDispatched(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notification_outbox SET dispatched_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("outbox repository: mark dispatched %w", err)
	}
	return nil
}

// MarkFailed увеличивает счётчик попыток, запись останется в очереди.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notification_outbox SET attempts = attempts + 1 WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("outbox repository: mark failed %w", err)
	}
	return nil
}
