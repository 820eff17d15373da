package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/middleware"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, proposalID string, in dto.UploadDocumentInput, actor workflow.Actor, meta service.RequestMeta) (*models.Document, error)
	List(ctx context.Context, proposalID string, actor workflow.Actor) ([]models.Document, error)
	Link(ctx context.Context, documentID string, actor workflow.Actor) (*dto.DocumentLink, error)
	Open(ctx context.Context, token string) (*models.Document, *os.File, error)
	Delete(ctx context.Context, documentID string, actor workflow.Actor, meta service.RequestMeta) error
}

// DocumentHandler exposes proposal attachments.
type DocumentHandler struct {
	service documentService
}

func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Upload godoc
// @Summary Upload document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Proposal ID"
// @Param tipe formData string false "PROPOSAL, LAPORAN_KEMAJUAN, LAPORAN_AKHIR or LAINNYA"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proposals/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid document", map[string]string{"file": "file is required"}))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to open file"))
		return
	}
	defer src.Close() //nolint:errcheck

	in := dto.UploadDocumentInput{
		Nama:     fileHeader.Filename,
		Tipe:     models.DocumentType(strings.ToUpper(strings.TrimSpace(c.PostForm("tipe")))),
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Body:     src,
	}
	doc, err := h.service.Upload(c.Request.Context(), c.Param("id"), in, actorFromContext(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.service.List(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Link godoc
// @Summary Issue download link
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/link [get]
func (h *DocumentHandler) Link(c *gin.Context) {
	link, err := h.service.Link(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download document
// @Description The signed token authorizes the download
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /documents/download/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, file, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Set(middleware.AuditResourceKey, doc.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Nama))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, doc.Ukuran, doc.MimeType, file, nil)
}

// Delete godoc
// @Summary Delete document
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
