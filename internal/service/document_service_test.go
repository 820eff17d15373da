package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/storage"
)

type memDocuments struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func (m *memDocuments) Create(ctx context.Context, d *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.CreatedAt = time.Now().UTC()
	copy := *d
	m.docs[d.ID] = &copy
	return nil
}

func (m *memDocuments) FindByID(ctx context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *d
	return &copy, nil
}

func (m *memDocuments) ListByProposal(ctx context.Context, proposalID string) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.docs {
		if d.ProposalID == proposalID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDocuments) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.docs, id)
	return nil
}

func newDocumentFixture(t *testing.T) (*workflowFixture, *DocumentService, *memDocuments) {
	t.Helper()
	f := newWorkflowFixture(t)
	blobs, err := storage.NewLocalStorage(t.TempDir(), 64)
	require.NoError(t, err)
	docs := &memDocuments{docs: make(map[string]*models.Document)}
	svc := NewDocumentService(docs, f.store, blobs, storage.NewSignedURLSigner("secret", time.Minute), f.dir, DocumentConfig{
		APIPrefix:        "/api/v1/",
		MaxFileSize:      64,
		AllowedMimeTypes: []string{"application/pdf"},
	}, nil)
	return f, svc, docs
}

func pdfUpload(body string) dto.UploadDocumentInput {
	return dto.UploadDocumentInput{
		Nama:     "../proposal.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(body)),
		Body:     strings.NewReader(body),
	}
}

func TestDocumentUploadLinkAndOpen(t *testing.T) {
	f, svc, _ := newDocumentFixture(t)
	ctx := context.Background()
	id := f.draft(t, 7_500_000, "u-m1")
	member := workflow.Actor{UserID: "u-m1", Role: models.RoleMahasiswa, Active: true}

	doc, err := svc.Upload(ctx, id, pdfUpload("%PDF-1.4"), member, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "proposal.pdf", doc.Nama)
	assert.Equal(t, models.DocumentTypeProposal, doc.Tipe)
	assert.EqualValues(t, 8, doc.Ukuran)
	assert.True(t, strings.HasPrefix(doc.StorageKey, id+"/"))

	link, err := svc.Link(ctx, doc.ID, f.chair)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "/api/v1/documents/download/"))

	token := strings.TrimPrefix(link.URL, "/api/v1/documents/download/")
	opened, file, err := svc.Open(ctx, token)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, doc.ID, opened.ID)

	_, _, err = svc.Open(ctx, token+"x")
	assert.True(t, appErrors.IsForbidden(err))
}

func TestDocumentUploadValidation(t *testing.T) {
	f, svc, docs := newDocumentFixture(t)
	ctx := context.Background()
	id := f.draft(t, 7_500_000)

	in := pdfUpload("x")
	in.MimeType = "application/x-msdownload"
	_, err := svc.Upload(ctx, id, in, f.chair, RequestMeta{})
	require.True(t, appErrors.IsValidation(err))
	assert.Contains(t, appErrors.FromError(err).Fields, "file")

	// Declared size lies; the storage limit still applies.
	in = pdfUpload(strings.Repeat("a", 100))
	in.Size = 10
	_, err = svc.Upload(ctx, id, in, f.chair, RequestMeta{})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Upload(ctx, id, pdfUpload("x"), f.outsider, RequestMeta{})
	assert.True(t, appErrors.IsNotFound(err))
	assert.Empty(t, docs.docs)
}

func TestDocumentAttachNotGatedByStatus(t *testing.T) {
	f, svc, docs := newDocumentFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	doc, err := svc.Upload(ctx, id, pdfUpload("report"), f.chair, RequestMeta{})
	require.NoError(t, err)

	err = svc.Delete(ctx, doc.ID, f.reviewer, RequestMeta{})
	assert.True(t, appErrors.IsForbidden(err))

	require.NoError(t, svc.Delete(ctx, doc.ID, f.chair, RequestMeta{}))
	assert.Empty(t, docs.docs)
	assert.Contains(t, f.dir.auditActions(), models.AuditActionDocumentDelete)
}
