package services

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"realtime-chat/internal/models"
)

// Presigner produces time-limited download URLs for stored objects
type Presigner interface {
	PresignGet(ctx context.Context, objectName string, expiry time.Duration) (*url.URL, error)
}

// AttachmentService turns stored attachment paths into URLs clients can fetch
type AttachmentService struct {
	presigner Presigner
	expiry    time.Duration
	log       *slog.Logger
}

func NewAttachmentService(presigner Presigner, expiry time.Duration, log *slog.Logger) *AttachmentService {
	return &AttachmentService{presigner: presigner, expiry: expiry, log: log}
}

// SignAttachments returns a copy of attachments with object paths replaced by
// presigned URLs. Absolute URLs and paths that fail to sign are left as stored.
func (s *AttachmentService) SignAttachments(ctx context.Context, attachments []models.Attachment) []models.Attachment {
	out := make([]models.Attachment, len(attachments))
	for i, a := range attachments {
		out[i] = a
		if isAbsoluteURL(a.FilePath) {
			continue
		}
		u, err := s.presigner.PresignGet(ctx, strings.TrimPrefix(a.FilePath, "/"), s.expiry)
		if err != nil {
			s.log.Warn("Failed to sign attachment", "attachmentID", a.ID, "path", a.FilePath, "error", err)
			continue
		}
		out[i].FilePath = u.String()
	}
	return out
}

func isAbsoluteURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.Scheme != "" && u.Host != ""
}
