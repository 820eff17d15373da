package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/storage"
)

type documentStore interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	ListByProposal(ctx context.Context, proposalID string) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

type blobStore interface {
	Put(key string, r io.Reader) (int64, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type linkSigner interface {
	Sign(documentID, key string) (string, time.Time, error)
	Verify(token string) (storage.DownloadToken, error)
}

// DocumentConfig limits uploads and shapes download links.
type DocumentConfig struct {
	APIPrefix        string
	MaxFileSize      int64
	AllowedMimeTypes []string
}

// DocumentService attaches files to proposals. Attachments are not gated by
// the proposal status; only team membership or ADMIN is required.
type DocumentService struct {
	store     documentStore
	proposals proposalReader
	blobs     blobStore
	signer    linkSigner
	audit     auditWriter
	cfg       DocumentConfig
	allowed   map[string]struct{}
	logger    *zap.Logger
}

func NewDocumentService(store documentStore, proposals proposalReader, blobs blobStore, signer linkSigner, audit auditWriter, cfg DocumentConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMimeTypes))
	for _, m := range cfg.AllowedMimeTypes {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			allowed[m] = struct{}{}
		}
	}
	return &DocumentService{
		store:     store,
		proposals: proposals,
		blobs:     blobs,
		signer:    signer,
		audit:     audit,
		cfg:       cfg,
		allowed:   allowed,
		logger:    logger,
	}
}

// Upload stores the file and its metadata. The file is removed again when
// the metadata insert fails.
func (s *DocumentService) Upload(ctx context.Context, proposalID string, in dto.UploadDocumentInput, actor workflow.Actor, meta RequestMeta) (*models.Document, error) {
	loaded, err := loadVisible(ctx, s.proposals, proposalID, actor)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionAttachDocument, loaded.Resource); err != nil {
		return nil, err
	}
	if err := s.checkUpload(&in); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:         uuid.NewString(),
		ProposalID: proposalID,
		Nama:       in.Nama,
		Tipe:       in.Tipe,
		MimeType:   in.MimeType,
		UploadedBy: actor.UserID,
	}
	doc.StorageKey = filepath.ToSlash(filepath.Join(proposalID, doc.ID+extensionFor(in.Nama, in.MimeType)))

	size, err := s.blobs.Put(doc.StorageKey, in.Body)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid document", map[string]string{
				"file": fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize),
			})
		}
		return nil, appErrors.Internal(err, "failed to store document")
	}
	doc.Ukuran = size
	if err := s.store.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(doc.StorageKey); delErr != nil {
			s.logger.Warn("failed to remove orphaned document", zap.String("key", doc.StorageKey), zap.Error(delErr))
		}
		return nil, appErrors.Internal(err, "failed to save document")
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionDocumentUpload, Resource: "documents", ResourceID: doc.ID,
		New: map[string]interface{}{"proposal_id": proposalID, "nama": doc.Nama, "tipe": doc.Tipe, "ukuran": doc.Ukuran},
	}, meta)
	return doc, nil
}

// List returns the attachments of a visible proposal.
func (s *DocumentService) List(ctx context.Context, proposalID string, actor workflow.Actor) ([]models.Document, error) {
	if _, err := loadVisible(ctx, s.proposals, proposalID, actor); err != nil {
		return nil, err
	}
	docs, err := s.store.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// Link issues a signed, expiring download URL for anyone who can see the proposal.
func (s *DocumentService) Link(ctx context.Context, documentID string, actor workflow.Actor) (*dto.DocumentLink, error) {
	doc, _, err := s.loadDocument(ctx, documentID, actor)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Sign(doc.ID, doc.StorageKey)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	return &dto.DocumentLink{
		DocumentID: doc.ID,
		URL:        fmt.Sprintf("%s/documents/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt:  expiresAt,
	}, nil
}

// Open resolves a download token. The token alone authorizes the download.
func (s *DocumentService) Open(ctx context.Context, token string) (*models.Document, *os.File, error) {
	payload, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	doc, err := s.store.FindByID(ctx, payload.DocumentID)
	if err != nil {
		return nil, nil, lookupError(err, "document not found", "failed to load document")
	}
	if doc.StorageKey != payload.Key {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.blobs.Open(doc.StorageKey)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to open document")
	}
	return doc, file, nil
}

// Delete removes the metadata row and then the file.
func (s *DocumentService) Delete(ctx context.Context, documentID string, actor workflow.Actor, meta RequestMeta) error {
	doc, loaded, err := s.loadDocument(ctx, documentID, actor)
	if err != nil {
		return err
	}
	if err := workflow.Authorize(actor, workflow.ActionRemoveDocument, loaded.Resource); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.ID); err != nil {
		return lookupError(err, "document not found", "failed to delete document")
	}
	if err := s.blobs.Delete(doc.StorageKey); err != nil {
		s.logger.Warn("failed to remove document file", zap.String("key", doc.StorageKey), zap.Error(err))
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionDocumentDelete, Resource: "documents", ResourceID: doc.ID,
		Old: map[string]interface{}{"proposal_id": doc.ProposalID, "nama": doc.Nama},
	}, meta)
	return nil
}

func (s *DocumentService) loadDocument(ctx context.Context, documentID string, actor workflow.Actor) (*models.Document, *loadedProposal, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, lookupError(err, "document not found", "failed to load document")
	}
	loaded, err := loadVisible(ctx, s.proposals, doc.ProposalID, actor)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, err
	}
	return doc, loaded, nil
}

func (s *DocumentService) checkUpload(in *dto.UploadDocumentInput) error {
	fields := make(map[string]string)
	in.Nama = strings.TrimSpace(filepath.Base(in.Nama))
	if in.Nama == "" || in.Nama == "." {
		fields["nama"] = "file name is required"
	}
	if in.Tipe == "" {
		in.Tipe = models.DocumentTypeProposal
	}
	if !in.Tipe.Valid() {
		fields["tipe"] = "must be one of PROPOSAL, LAPORAN_KEMAJUAN, LAPORAN_AKHIR, LAINNYA"
	}
	mediaType, _, err := mime.ParseMediaType(in.MimeType)
	if err != nil {
		fields["file"] = "unknown content type"
	} else {
		in.MimeType = strings.ToLower(mediaType)
		if _, ok := s.allowed[in.MimeType]; len(s.allowed) > 0 && !ok {
			fields["file"] = fmt.Sprintf("content type %s is not allowed", in.MimeType)
		}
	}
	if s.cfg.MaxFileSize > 0 && in.Size > s.cfg.MaxFileSize {
		fields["file"] = fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize)
	}
	if in.Body == nil {
		fields["file"] = "file is required"
	}
	if len(fields) > 0 {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid document", fields)
	}
	return nil
}

func extensionFor(name, mimeType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && len(ext) <= 8 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
