package files

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

type Handler struct {
	storage Storage
	logger  *zap.Logger
}

func NewHandler(storage Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{storage: storage, logger: logger.Named("files")}
}

// Register attaches the file routes. The group must already require a tenant.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.upload)
	rg.GET("/*path", h.download)
	rg.DELETE("/*path", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(apperr.NewValidationError(apperr.Failure{Property: "File", Message: "File is required."}))
		return
	}
	if fh.Size > MaxFileSize {
		_ = c.Error(invalid("File exceeds the 10MB limit."))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	p, err := h.storage.Save(c.Request.Context(), f, fh.Filename, c.PostForm("folder"))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("file uploaded", zap.String("path", p), zap.Int64("size", fh.Size))
	c.JSON(http.StatusCreated, gin.H{"path": p})
}

func (h *Handler) download(c *gin.Context) {
	rc, info, err := h.storage.Open(c.Request.Context(), c.Param("path"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}

func (h *Handler) delete(c *gin.Context) {
	p := c.Param("path")
	if err := h.storage.Delete(c.Request.Context(), p); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("file deleted", zap.String("path", p))
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, ErrInvalidPath):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file path"})
	default:
		_ = c.Error(err)
	}
}
