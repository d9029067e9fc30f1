package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"realtime-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	fail   map[string]bool
	expiry time.Duration
}

func (f *fakePresigner) PresignGet(_ context.Context, objectName string, expiry time.Duration) (*url.URL, error) {
	f.expiry = expiry
	if f.fail[objectName] {
		return nil, errors.New("presign failed")
	}
	return url.Parse("https://minio.local/attachments/" + objectName + "?X-Amz-Signature=abc")
}

func TestAttachmentService_SignAttachments(t *testing.T) {
	presigner := &fakePresigner{fail: map[string]bool{"broken.bin": true}}
	svc := NewAttachmentService(presigner, 15*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	in := []models.Attachment{
		{ID: 1, FilePath: "/images/cat.png"},
		{ID: 2, FilePath: "https://cdn.example/already.png"},
		{ID: 3, FilePath: "broken.bin"},
	}

	out := svc.SignAttachments(context.Background(), in)

	require.Len(t, out, 3)
	assert.Equal(t, "https://minio.local/attachments/images/cat.png?X-Amz-Signature=abc", out[0].FilePath)
	assert.Equal(t, "https://cdn.example/already.png", out[1].FilePath)
	assert.Equal(t, "broken.bin", out[2].FilePath)
	assert.Equal(t, 15*time.Minute, presigner.expiry)
	// input is not modified
	assert.Equal(t, "/images/cat.png", in[0].FilePath)
}
