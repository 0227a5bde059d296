// Package upload receives badge/certificate assets and stores them through a
// pluggable backend (local static dir or S3).
package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/achievement-space/core/internal/config"
	"github.com/achievement-space/core/internal/models"
	"github.com/achievement-space/core/internal/modules/achievement/form"
	"github.com/achievement-space/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadError is a rejected upload; Message is safe to return verbatim.
type UploadError struct{ Message string }

func (e *UploadError) Error() string { return e.Message }

type Service struct {
	db      *gorm.DB
	storage Storage
	folder  string
	maxSize int64
	log     *zap.Logger
}

func NewService(db *gorm.DB, storage Storage, cfg config.UploadConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      db,
		storage: storage,
		folder:  cfg.Folder,
		maxSize: int64(cfg.MaxSizeMB) << 20,
		log:     log,
	}
}

// Save validates the incoming file, stores it and records a pending file
// reference row keyed by the logical upload key.
func (s *Service) Save(ctx context.Context, header *multipart.FileHeader, key string) (form.UploadedAsset, error) {
	mime := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		return form.UploadedAsset{}, &UploadError{Message: form.MsgImageTypeNotSupported}
	}
	if s.maxSize > 0 && header.Size > s.maxSize {
		return form.UploadedAsset{}, &UploadError{
			Message: fmt.Sprintf("file exceeds the %d MB limit", s.maxSize>>20),
		}
	}

	src, err := header.Open()
	if err != nil {
		return form.UploadedAsset{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return form.UploadedAsset{}, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	fileName := uuid.New().String() + ext
	filePath := s.folder + "/" + fileName

	if err := s.storage.Put(ctx, filePath, data, mime); err != nil {
		return form.UploadedAsset{}, err
	}

	host := s.storage.Host()
	asset := form.UploadedAsset{
		Host:             host,
		FullPath:         host + "/" + filePath,
		FilePath:         filePath,
		FileName:         fileName,
		MIME:             mime,
		Folder:           s.folder,
		OriginalFileName: header.Filename,
	}

	ref := models.FileReferenceModel{
		FileURL:          asset.FullPath,
		FileName:         fileName,
		OriginalFileName: header.Filename,
		MIME:             mime,
		UploadKey:        key,
		Status:           "pending",
	}
	if err := s.db.Create(&ref).Error; err != nil {
		return form.UploadedAsset{}, err
	}

	s.log.Info("file uploaded",
		zap.String("path", filePath),
		zap.String("key", key),
		zap.Int64("size", header.Size),
	)
	return asset, nil
}

// Claim marks the file references behind the given URLs as owned by an
// entity, so the orphan sweep skips them.
func (s *Service) Claim(refType, refID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	return s.db.Model(&models.FileReferenceModel{}).
		Where("file_url IN ?", urls).
		Updates(map[string]interface{}{
			"status":   "active",
			"ref_type": refType,
			"ref_id":   refID,
		}).Error
}

// Orphans lists pending references not claimed by any entity.
func (s *Service) Orphans() ([]models.FileReferenceModel, error) {
	var refs []models.FileReferenceModel
	err := s.db.Where("status = ?", "pending").Order("created_at ASC").Find(&refs).Error
	return refs, err
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	key := strings.TrimSpace(c.PostForm("key"))
	if key == "" {
		response.BadRequest(c, "key is required")
		return
	}

	asset, err := h.svc.Save(c.Request.Context(), header, key)
	if err != nil {
		if uerr, ok := err.(*UploadError); ok {
			response.BadRequest(c, uerr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, asset)
}
