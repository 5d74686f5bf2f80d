package handlers

import (
	"context"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/auth"
	"clinic-pos/internal/config"
	"clinic-pos/internal/middleware"
	"clinic-pos/internal/models"
	"clinic-pos/internal/reporting"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileStore persists uploaded images and hands back their public paths.
type FileStore interface {
	Save(dir, suggestedName string, r io.Reader) (string, error)
	Delete(path string) error
	Exists(path string) bool
}

// Assistant answers free-form admin questions about the shop.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Handler carries the dependencies shared by every endpoint.
type Handler struct {
	db        *gorm.DB
	store     FileStore
	log       *zap.Logger
	tokens    *auth.Tokens
	reports   *reporting.Service
	assistant Assistant
	cfg       config.Config
}

// New wires a Handler. assistant may be nil when no AI key is configured.
func New(db *gorm.DB, store FileStore, log *zap.Logger, tokens *auth.Tokens, assistant Assistant, cfg config.Config) *Handler {
	return &Handler{
		db:        db,
		store:     store,
		log:       log,
		tokens:    tokens,
		reports:   reporting.NewService(db),
		assistant: assistant,
		cfg:       cfg,
	}
}

// --- RESPONSES ---

// Pagination accompanies every list response.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func respond(c *gin.Context, status int, data any, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func respondList(c *gin.Context, data any, p Pagination) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": p,
	})
}

// fail writes the error envelope. Unclassified errors are logged and hidden.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = apperror.NotFound("Record not found")
	}
	status := apperror.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.Error(err),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.String("path", c.FullPath()),
		)
		msg = "Internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"request_id": middleware.RequestIDFrom(c),
	})
}

// --- REQUEST HELPERS ---

const (
	defaultLimit = 10
	maxLimit     = 100
)

type page struct {
	Page  int
	Limit int
}

func (p page) Offset() int { return (p.Page - 1) * p.Limit }

func (p page) Of(total int64) Pagination {
	return Pagination{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// parsePage reads ?page and ?limit, falling back to page 1 of 10.
func parsePage(c *gin.Context) page {
	p := page{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.Limit = min(n, maxLimit)
	}
	return p
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
}

func principal(c *gin.Context) auth.Principal {
	p, _ := middleware.CurrentUser(c)
	return p
}

// --- IMAGES ---

// saveImages stores uploads under dir. On failure the files already written
// are removed again.
func (h *Handler) saveImages(c *gin.Context, dir string, files []*multipart.FileHeader) ([]string, error) {
	maxBytes := h.cfg.MaxUploadMB << 20
	var saved []string
	for _, fh := range files {
		if maxBytes > 0 && fh.Size > maxBytes {
			h.removeFiles(c, saved)
			return nil, apperror.Validation("%s is larger than %d MB", fh.Filename, h.cfg.MaxUploadMB)
		}
		path, err := h.saveOne(dir, fh)
		if err != nil {
			h.removeFiles(c, saved)
			return nil, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

func (h *Handler) saveOne(dir string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.store.Save(dir, fh.Filename, f)
}

// removeFiles deletes stored images. Failures are logged and swallowed.
func (h *Handler) removeFiles(c *gin.Context, paths []string) {
	for _, p := range paths {
		if err := h.store.Delete(p); err != nil {
			h.log.Warn("could not delete image",
				zap.String("path", p),
				zap.Error(err),
				zap.String("request_id", middleware.RequestIDFrom(c)),
			)
		}
	}
}

// uploadedFiles returns the files sent under key, if the body is multipart.
func uploadedFiles(c *gin.Context, key string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[key]
}

// reconcileImages works out the image list after an update: kept paths of
// the current list (all of them when keep is nil) followed by new uploads.
// It returns the new list and the paths that dropped out.
func reconcileImages(current models.ImageList, keep []string, added int) (models.ImageList, []string, error) {
	kept := current
	if keep != nil {
		kept = models.ImageList{}
		for _, p := range keep {
			if current.Contains(p) && !kept.Contains(p) {
				kept = append(kept, p)
			}
		}
	}
	if len(kept)+added > models.MaxImages {
		return nil, nil, apperror.Validation("a record can hold at most %d images", models.MaxImages)
	}
	return kept, current.Removed(kept), nil
}
