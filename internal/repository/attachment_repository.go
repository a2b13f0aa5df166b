package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
)

type AttachmentRepository struct {
	db *sqlx.DB
}

func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create сохраняет метаданные загруженного файла.
func (r *AttachmentRepository) Create(ctx context.Context, a *models.BookingAttachment) error {
	err := r.db.GetContext(ctx, a, `
		INSERT INTO booking_attachments (quote_id, file_name, file_path, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, a.QuoteID, a.FileName, a.FilePath, a.MimeType, a.SizeBytes)
	if err != nil {
		return fmt.Errorf("attachment repository: create %w", err)
	}
	return nil
}

// ListByQuote возвращает файлы заявки.
func (r *AttachmentRepository) ListByQuote(ctx context.Context, quoteID int64) ([]models.BookingAttachment, error) {
	var attachments []models.BookingAttachment
	err := r.db.SelectContext(ctx, &attachments, `
		SELECT * FROM booking_attachments WHERE quote_id = $1 ORDER BY created_at ASC
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("attachment repository: list %w", err)
	}
	return attachments, nil
}
