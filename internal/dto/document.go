package dto

import (
	"io"
	"time"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// UploadDocumentInput is a parsed multipart upload.
type UploadDocumentInput struct {
	Nama     string
	Tipe     models.DocumentType
	MimeType string
	Size     int64
	Body     io.Reader
}

// DocumentLink is a signed, expiring download URL.
type DocumentLink struct {
	DocumentID string    `json:"document_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}
