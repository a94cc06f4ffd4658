package linq

import (
	"context"
	"net/http"
	"time"
)

// UploadRequest describes a file the partner wants to attach to a message.
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Upload holds the pre-signed URL the file must be PUT to.
type Upload struct {
	AttachmentID  string            `json:"attachment_id"`
	UploadURL     string            `json:"upload_url"`
	UploadHeaders map[string]string `json:"upload_headers,omitempty"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

// Attachment is a stored file that can be referenced from a message part.
type Attachment struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	Status      string     `json:"status,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// AttachmentsService handles communication with the attachment related methods.
type AttachmentsService struct {
	client *Client
}

// RequestUpload reserves an attachment and returns where to upload its bytes.
func (s *AttachmentsService) RequestUpload(ctx context.Context, body *UploadRequest, opts ...RequestOption) (*Upload, error) {
	return do[Upload](ctx, s.client, &Request{
		Method: http.MethodPost,
		Path:   "/v3/attachments",
		Body:   body,
	}, opts)
}

// Get fetches an attachment by its ID.
func (s *AttachmentsService) Get(ctx context.Context, attachmentID string, opts ...RequestOption) (*Attachment, error) {
	return do[Attachment](ctx, s.client, &Request{
		Method:     http.MethodGet,
		Path:       "/v3/attachments/{attachmentId}",
		PathParams: map[string]any{"attachmentId": attachmentID},
	}, opts)
}
