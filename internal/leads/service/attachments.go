package service

import (
	"context"
	"fmt"
	"io"

	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/repository"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// UploadAttachment describes one file sent for a lead.
type UploadAttachment struct {
	Category    domain.AttachmentCategory
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentWithURL is a stored attachment plus a short-lived download link.
type AttachmentWithURL struct {
	domain.Attachment
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// UploadAttachment stores the file and records it against the lead under
// its category. The category feeds the readiness checklists.
func (s *Service) UploadAttachment(ctx context.Context, actorID, id uuid.UUID, in UploadAttachment) (AttachmentWithURL, error) {
	if s.storage == nil {
		return AttachmentWithURL{}, apperr.BadRequest("file storage is not configured")
	}
	if err := s.storage.ValidateContentType(in.ContentType); err != nil {
		return AttachmentWithURL{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(in.Size); err != nil {
		return AttachmentWithURL{}, apperr.Validation(err.Error())
	}

	lead, err := s.Get(ctx, id)
	if err != nil {
		return AttachmentWithURL{}, err
	}

	folder := fmt.Sprintf("leads/%s/%s", lead.ID, in.Category)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, in.FileName, in.ContentType, in.Body, in.Size)
	if err != nil {
		return AttachmentWithURL{}, err
	}

	att, err := s.repo.AddAttachment(ctx, repository.CreateAttachmentParams{
		LeadID:      lead.ID,
		Category:    in.Category,
		FileKey:     fileKey,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		SizeBytes:   in.Size,
		UploadedBy:  actorRef(actorID),
	})
	if err != nil {
		if delErr := s.storage.DeleteObject(context.WithoutCancel(ctx), s.bucket, fileKey); delErr != nil {
			s.log.WithContext(ctx).Error("failed to remove orphaned attachment", "fileKey", fileKey, "error", delErr)
		}
		return AttachmentWithURL{}, s.mapErr(id, err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.AttachmentUploaded{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       lead.ID,
			AttachmentID: att.ID,
			Category:     string(att.Category),
		})
	}

	out := AttachmentWithURL{Attachment: att}
	if url, err := s.storage.GenerateDownloadURL(ctx, s.bucket, fileKey); err == nil {
		out.DownloadURL = url.URL
	}
	return out, nil
}
