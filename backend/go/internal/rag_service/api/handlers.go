package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"DocChat/backend/go/internal/identity"
	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/service"
	"DocChat/backend/go/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const (
	pdfMIME   = "application/pdf"
	formField = "pdf"

	maxFileNameBytes = 255
	// multipartOverhead is the allowance for boundaries and part headers on top of the file.
	multipartOverhead = 1 << 20
)

// DocumentService is the service behind the document endpoints.
type DocumentService interface {
	Upload(ctx context.Context, fileName string, data []byte) (*models.UploadRecord, error)
	Ask(ctx context.Context, question string) (*service.Answer, error)
	ListUploads(ctx context.Context) ([]models.UploadRecord, error)
}

// Handler holds the document and question endpoints.
type Handler struct {
	service        DocumentService
	maxUploadBytes int64
	log            *logger.Logger
}

// NewHandler creates a new Handler. Uploads larger than maxUploadBytes are rejected.
func NewHandler(s DocumentService, maxUploadBytes int64, log *logger.Logger) *Handler {
	return &Handler{service: s, maxUploadBytes: maxUploadBytes, log: log}
}

// Upload accepts one PDF in the multipart field "pdf".
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fh, err := c.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "a PDF file is required in field \"pdf\""})
		return
	}
	if fh.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, pdfMIME) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only PDF files are accepted"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the uploaded file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the uploaded file"})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	if !mimetype.Detect(data).Is(pdfMIME) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only PDF files are accepted"})
		return
	}

	rec, err := h.service.Upload(c.Request.Context(), sanitizeFileName(fh.Filename), data)
	if err != nil {
		h.writeError(c, "upload", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// AskRequest is the body of POST /ask. The owner is always taken from the token.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers a question from the caller's documents.
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	ans, err := h.service.Ask(c.Request.Context(), req.Question)
	if err != nil {
		h.writeError(c, "ask", err)
		return
	}
	c.JSON(http.StatusOK, ans)
}

// ListUploads lists the caller's uploads.
func (h *Handler) ListUploads(c *gin.Context) {
	records, err := h.service.ListUploads(c.Request.Context())
	if err != nil {
		h.writeError(c, "list uploads", err)
		return
	}
	if records == nil {
		records = []models.UploadRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"uploads": records})
}

// writeError maps a failure to a status code. Details other than validation messages
// stay in the log.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	status, msg := http.StatusInternalServerError, "something went wrong, please try again later"
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, errs.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrExtraction):
		status, msg = http.StatusUnprocessableEntity, "could not extract text from the PDF"
	case errs.IsDependency(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status, msg = http.StatusServiceUnavailable, "the service is temporarily unavailable, please try again"
	}

	log := h.log.WithError(models.ErrorInfo{Message: err.Error(), Type: errs.KindOf(err).String(), StatusCode: status})
	if id, idErr := identity.FromContext(c.Request.Context()); idErr == nil {
		log = log.WithUser(id.ID)
	}
	if status >= http.StatusInternalServerError {
		log.Error(op + " failed")
	} else {
		log.Info(op + " rejected")
	}
	c.JSON(status, gin.H{"error": msg})
}

// sanitizeFileName keeps the base name of a client-supplied file name.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || strings.TrimSpace(name) == "" {
		return "document.pdf"
	}
	if len(name) > maxFileNameBytes {
		// keep the tail (extension included) and start on a rune boundary
		start := len(name) - maxFileNameBytes
		for start < len(name) && !utf8.RuneStart(name[start]) {
			start++
		}
		name = name[start:]
	}
	return name
}
