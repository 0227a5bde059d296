// Package certificate is the CMS module for certificate templates: the
// badge fields plus a type, positioned content overlays and a safe zone.
package certificate

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/achievement-space/core/internal/middleware"
	"github.com/achievement-space/core/internal/models"
	"github.com/achievement-space/core/internal/modules/achievement/content"
	"github.com/achievement-space/core/internal/modules/achievement/form"
	"github.com/achievement-space/core/internal/pkg/pagination"
	"github.com/achievement-space/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ValidationError carries the field message rejected payloads answer with.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

type CreateCertificateDTO struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	CertificateType string            `json:"certificate_type"`
	ImageURL        string            `json:"image_url"`
	Accessibility   string            `json:"accessibility"`
	Contents        content.List      `json:"contents"`
	SafeZone        *content.SafeZone `json:"safe_zone"`
}

type UpdateCertificateDTO struct {
	Title           *string           `json:"title"`
	Description     *string           `json:"description"`
	CertificateType *string           `json:"certificate_type"`
	ImageURL        *string           `json:"image_url"`
	Accessibility   *string           `json:"accessibility"`
	Contents        content.List      `json:"contents"`
	SafeZone        *content.SafeZone `json:"safe_zone"`
}

type certificateResponse struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	CertificateType   string           `json:"certificate_type"`
	ImageURL          string           `json:"image_url"`
	Accessibility     string           `json:"accessibility"`
	Contents          content.List     `json:"contents"`
	SafeZone          content.SafeZone `json:"safe_zone"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	CreatedByID       string           `json:"created_by_id,omitempty"`
	CreatedByFullName string           `json:"created_by_full_name,omitempty"`
	IsDelete          bool             `json:"is_delete"`
}

func toResponse(ct *models.CertificateModel) certificateResponse {
	contents := ct.Contents
	if contents == nil {
		contents = content.List{}
	}
	return certificateResponse{
		ID:                ct.ID,
		Title:             ct.Title,
		Description:       ct.Description,
		CertificateType:   ct.CertificateType,
		ImageURL:          ct.ImageURL,
		Accessibility:     ct.Accessibility,
		Contents:          contents,
		SafeZone:          ct.SafeZone,
		CreatedAt:         ct.CreatedAt,
		UpdatedAt:         ct.UpdatedAt,
		CreatedByID:       ct.CreatedByID,
		CreatedByFullName: ct.CreatedByFullName,
		IsDelete:          ct.DeletedAt.Valid,
	}
}

func validateContents(list content.List) error {
	if list == nil {
		return nil
	}
	if err := list.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if list.HasPendingFiles() {
		return &ValidationError{Message: "contents must reference uploaded assets"}
	}
	return nil
}

func validateCreate(dto *CreateCertificateDTO) error {
	if dto.Title == "" {
		return &ValidationError{Message: form.MsgTitleRequired}
	}
	if utf8.RuneCountInString(dto.Title) > 255 {
		return &ValidationError{Message: form.MsgTitleTooLong}
	}
	if dto.Description == "" {
		return &ValidationError{Message: form.MsgDescriptionRequired}
	}
	if utf8.RuneCountInString(dto.Description) > 1000 {
		return &ValidationError{Message: form.MsgDescriptionTooLong}
	}
	if dto.CertificateType == "" {
		return &ValidationError{Message: form.MsgCertificateTypeNeeded}
	}
	if dto.ImageURL == "" {
		return &ValidationError{Message: form.MsgImageRequired}
	}
	if err := validateContents(dto.Contents); err != nil {
		return err
	}
	if dto.SafeZone != nil {
		if err := dto.SafeZone.Validate(); err != nil {
			return &ValidationError{Message: err.Error()}
		}
	}
	return nil
}

func validateUpdate(dto *UpdateCertificateDTO) error {
	if dto.Title != nil {
		if *dto.Title == "" {
			return &ValidationError{Message: form.MsgTitleRequired}
		}
		if utf8.RuneCountInString(*dto.Title) > 255 {
			return &ValidationError{Message: form.MsgTitleTooLong}
		}
	}
	if dto.Description != nil {
		if *dto.Description == "" {
			return &ValidationError{Message: form.MsgDescriptionRequired}
		}
		if utf8.RuneCountInString(*dto.Description) > 1000 {
			return &ValidationError{Message: form.MsgDescriptionTooLong}
		}
	}
	if dto.CertificateType != nil && *dto.CertificateType == "" {
		return &ValidationError{Message: form.MsgCertificateTypeNeeded}
	}
	if dto.ImageURL != nil && *dto.ImageURL == "" {
		return &ValidationError{Message: form.MsgImageRequired}
	}
	if err := validateContents(dto.Contents); err != nil {
		return err
	}
	if dto.SafeZone != nil {
		if err := dto.SafeZone.Validate(); err != nil {
			return &ValidationError{Message: err.Error()}
		}
	}
	return nil
}

// AssetClaimer marks uploaded files as owned by a saved entity so the
// orphan sweep skips them. The upload service implements it.
type AssetClaimer interface {
	Claim(refType, refID string, urls []string) error
}

// assetURLs collects every uploaded file a certificate references: the
// background image plus the values of image-kind content items.
func assetURLs(imageURL string, contents content.List) []string {
	urls := make([]string, 0, 1+len(contents))
	if imageURL != "" {
		urls = append(urls, imageURL)
	}
	for _, it := range contents {
		if it.Type().Kind() == content.KindImage && it.Value() != "" {
			urls = append(urls, it.Value())
		}
	}
	return urls
}

// ListFilter narrows and orders the certificate list. Zero values mean
// "no constraint"; Sort falls back to created_at descending.
type ListFilter struct {
	CertificateType []string
	Accessibility   []string
	CreatedFrom     time.Time
	CreatedTo       time.Time
	Sort            string
	Order           string
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

func (f ListFilter) orderClause() string {
	col, ok := sortColumns[f.Sort]
	if !ok {
		col = "created_at"
	}
	if strings.EqualFold(f.Order, "asc") {
		return col + " ASC"
	}
	return col + " DESC"
}

func (f ListFilter) apply(tx *gorm.DB) *gorm.DB {
	if len(f.CertificateType) > 0 {
		tx = tx.Where("certificate_type IN ?", f.CertificateType)
	}
	if len(f.Accessibility) > 0 {
		tx = tx.Where("accessibility IN ?", f.Accessibility)
	}
	if !f.CreatedFrom.IsZero() {
		tx = tx.Where("created_at >= ?", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		tx = tx.Where("created_at <= ?", f.CreatedTo)
	}
	return tx.Order(f.orderClause())
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates.
func parseTimeParam(v string) time.Time {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t
	}
	return time.Time{}
}

func filterFromContext(c *gin.Context) ListFilter {
	return ListFilter{
		CertificateType: c.QueryArray("certificate_type"),
		Accessibility:   c.QueryArray("accessibility"),
		CreatedFrom:     parseTimeParam(c.Query("created_from")),
		CreatedTo:       parseTimeParam(c.Query("created_to")),
		Sort:            c.Query("sort"),
		Order:           c.Query("order"),
	}
}

type Service struct {
	db     *gorm.DB
	assets AssetClaimer
	log    *zap.Logger
}

func NewService(db *gorm.DB, assets AssetClaimer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, assets: assets, log: log}
}

// claimAssets is bookkeeping; a failed claim leaves the file pending and
// never fails the request that referenced it.
func (s *Service) claimAssets(id string, urls []string) {
	if s.assets == nil || len(urls) == 0 {
		return
	}
	if err := s.assets.Claim("certificate", id, urls); err != nil {
		s.log.Warn("asset claim failed", zap.String("certificate_id", id), zap.Error(err))
	}
}

func (s *Service) List(q pagination.Query, f ListFilter) ([]models.CertificateModel, response.Pagination, error) {
	tx := f.apply(s.db.Model(&models.CertificateModel{}))
	var items []models.CertificateModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) GetByID(id string) (*models.CertificateModel, error) {
	var ct models.CertificateModel
	if err := s.db.First(&ct, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ct, nil
}

func (s *Service) Create(dto *CreateCertificateDTO, createdByID, createdByName string) (*models.CertificateModel, error) {
	if err := validateCreate(dto); err != nil {
		return nil, err
	}
	accessibility := dto.Accessibility
	if accessibility == "" {
		accessibility = models.AccessibilityPublic
	}
	zone := content.DefaultSafeZone()
	if dto.SafeZone != nil {
		zone = *dto.SafeZone
	}
	contents := dto.Contents
	if contents == nil {
		contents = content.List{}
	}
	ct := models.CertificateModel{
		Title:           dto.Title,
		Description:     dto.Description,
		CertificateType: dto.CertificateType,
		ImageURL:        dto.ImageURL,
		Accessibility:   accessibility,
		Contents:        contents,
		SafeZone:        zone,
	}
	ct.CreatedByID = createdByID
	ct.CreatedByFullName = createdByName
	if err := s.db.Create(&ct).Error; err != nil {
		return nil, err
	}
	s.claimAssets(ct.ID, assetURLs(ct.ImageURL, ct.Contents))
	s.log.Info("certificate created",
		zap.String("id", ct.ID),
		zap.String("type", ct.CertificateType),
	)
	return &ct, nil
}

func (s *Service) Update(id string, dto *UpdateCertificateDTO) (*models.CertificateModel, error) {
	if err := validateUpdate(dto); err != nil {
		return nil, err
	}
	ct, err := s.GetByID(id)
	if err != nil || ct == nil {
		return ct, err
	}
	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.CertificateType != nil {
		updates["certificate_type"] = *dto.CertificateType
	}
	if dto.ImageURL != nil {
		updates["image_url"] = *dto.ImageURL
	}
	if dto.Accessibility != nil {
		updates["accessibility"] = *dto.Accessibility
	}
	if dto.Contents != nil {
		updates["contents"] = dto.Contents
	}
	if dto.SafeZone != nil {
		updates["safe_zone"] = *dto.SafeZone
	}
	if len(updates) == 0 {
		return ct, nil
	}
	if err := s.db.Model(ct).Updates(updates).Error; err != nil {
		return nil, err
	}
	if dto.ImageURL != nil || dto.Contents != nil {
		var image string
		if dto.ImageURL != nil {
			image = *dto.ImageURL
		}
		s.claimAssets(id, assetURLs(image, dto.Contents))
	}
	return s.GetByID(id)
}

func (s *Service) Delete(id string) error {
	res := s.db.Delete(&models.CertificateModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/certificates")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.List(q, filterFromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]certificateResponse, len(items))
	for i, ct := range items {
		out[i] = toResponse(&ct)
	}
	response.Paged(c, out, pag)
}

func (h *Handler) get(c *gin.Context) {
	ct, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if ct == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(ct))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCertificateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ct, err := h.svc.Create(&dto, middleware.CurrentUserID(c), middleware.CurrentFullName(c))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(ct))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateCertificateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ct, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	if ct == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(ct))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
