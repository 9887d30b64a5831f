package repository

import (
	"context"

	"dealership_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// CreateAttachmentParams contains parameters for creating an attachment record.
type CreateAttachmentParams struct {
	LeadID      uuid.UUID
	Category    domain.AttachmentCategory
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  *uuid.UUID
}

// AddAttachment inserts the attachment and bumps the lead version, since a
// new category can change readiness.
func (r *Repository) AddAttachment(ctx context.Context, params CreateAttachmentParams) (domain.Attachment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Attachment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := touch(ctx, tx, params.LeadID); err != nil {
		return domain.Attachment{}, err
	}

	var att domain.Attachment
	var category string
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_attachments (lead_id, category, file_key, file_name, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, category, file_key, file_name, content_type, size_bytes, created_at
	`, params.LeadID, string(params.Category), params.FileKey, params.FileName, params.ContentType, params.SizeBytes, params.UploadedBy).Scan(
		&att.ID, &category, &att.FileKey, &att.FileName, &att.ContentType, &att.SizeBytes, &att.CreatedAt,
	)
	if err != nil {
		return domain.Attachment{}, err
	}
	att.Category = domain.AttachmentCategory(category)

	if err := tx.Commit(ctx); err != nil {
		return domain.Attachment{}, err
	}
	return att, nil
}

func (r *Repository) attachmentsFor(ctx context.Context, q querier, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.Attachment, error) {
	out := make(map[uuid.UUID][]domain.Attachment, len(leadIDs))
	if len(leadIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT lead_id, id, category, file_key, file_name, content_type, size_bytes, created_at
		FROM lead_attachments
		WHERE lead_id = ANY($1)
		ORDER BY created_at ASC
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var leadID uuid.UUID
		var att domain.Attachment
		var category string
		if err := rows.Scan(&leadID, &att.ID, &category, &att.FileKey, &att.FileName, &att.ContentType, &att.SizeBytes, &att.CreatedAt); err != nil {
			return nil, err
		}
		att.Category = domain.AttachmentCategory(category)
		out[leadID] = append(out[leadID], att)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
