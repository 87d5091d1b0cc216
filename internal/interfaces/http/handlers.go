package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/export"
	"github.com/garyjia/fatura-reader/internal/pipeline"
	"github.com/garyjia/fatura-reader/internal/session"
)

const (
	uploadField     = "files"
	contentTypePDF  = "application/pdf"
	contentTypeZip  = "application/zip"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// BatchProcessor runs uploaded invoices through the pipeline
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, uploads []pipeline.Upload) *pipeline.BatchResult
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	processor   BatchProcessor
	exporter    *export.Exporter
	sessions    *session.Store
	auth        *Authenticator
	archiveName string
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	processor BatchProcessor,
	exporter *export.Exporter,
	sessions *session.Store,
	auth *Authenticator,
	archiveName string,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		processor:   processor,
		exporter:    exporter,
		sessions:    sessions,
		auth:        auth,
		archiveName: archiveName,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token of a new session
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Login handles POST /api/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "username and password are required",
		})
		return
	}

	token, expiresAt, err := h.auth.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, ErrLoginDisabled):
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: err.Error()})
		return
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "Usuário ou senha inválidos"})
		return
	case err != nil:
		h.logger.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "login failed"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		},
	})
}

// UploadInvoices handles POST /api/invoices. Every file in the "files" field
// is processed; a batch with at least one success replaces the session's
// previous results.
func (h *Handlers) UploadInvoices(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid multipart form"})
		return
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "no files uploaded"})
		return
	}

	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			h.logger.Error("Failed to read upload", zap.String("file", fh.Filename), zap.Error(err))
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read " + fh.Filename})
			return
		}
		uploads = append(uploads, pipeline.Upload{Name: fh.Filename, Data: data})
	}

	result := h.processor.ProcessBatch(c.Request.Context(), uploads)

	if len(result.Results) == 0 {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Data:    result,
			Error:   "no invoice could be processed",
		})
		return
	}

	if err := h.sessions.Replace(sessionID(c), result.Results); err != nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "session expired"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: sess.Results})
}

// ClearInvoices handles DELETE /api/invoices. The session stays open.
func (h *Handlers) ClearInvoices(c *gin.Context) {
	if err := h.sessions.Clear(sessionID(c)); err != nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "session expired"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DownloadReport handles GET /api/invoices/:name/report
func (h *Handlers) DownloadReport(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	name := c.Param("name")
	for _, res := range sess.Results {
		if res.Filename == name {
			attachment(c, name+".pdf", contentTypePDF, res.PDF)
			return
		}
	}

	c.JSON(http.StatusNotFound, Response{Success: false, Error: "invoice not found"})
}

// DownloadArchive handles GET /api/archive
func (h *Handlers) DownloadArchive(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	data, err := h.exporter.Archive(sess.Results)
	if !h.exportOK(c, err) {
		return
	}
	attachment(c, h.archiveName, contentTypeZip, data)
}

// DownloadSummary handles GET /api/summary
func (h *Handlers) DownloadSummary(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	data, err := h.exporter.Workbook(sess.Results)
	if !h.exportOK(c, err) {
		return
	}
	attachment(c, export.SummaryName, contentTypeXLSX, data)
}

// Logout handles DELETE /api/session
func (h *Handlers) Logout(c *gin.Context) {
	h.sessions.Delete(sessionID(c))
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.Get(sessionID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "session expired"})
		return nil, false
	}
	return sess, true
}

func (h *Handlers) exportOK(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, export.ErrNothingToExport):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed"})
	}
	return false
}

func sessionID(c *gin.Context) string {
	return c.GetString(ContextKeySessionID)
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
