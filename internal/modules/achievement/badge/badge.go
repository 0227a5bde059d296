// Package badge is the CMS module for badge definitions.
package badge

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/achievement-space/core/internal/middleware"
	"github.com/achievement-space/core/internal/models"
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

type CreateBadgeDTO struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	Accessibility string `json:"accessibility"`
}

type UpdateBadgeDTO struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
	Accessibility *string `json:"accessibility"`
}

type badgeResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ImageURL          string    `json:"image_url"`
	Accessibility     string    `json:"accessibility"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CreatedByID       string    `json:"created_by_id,omitempty"`
	CreatedByFullName string    `json:"created_by_full_name,omitempty"`
	IsDelete          bool      `json:"is_delete"`
}

func toResponse(b *models.BadgeModel) badgeResponse {
	return badgeResponse{
		ID:                b.ID,
		Title:             b.Title,
		Description:       b.Description,
		ImageURL:          b.ImageURL,
		Accessibility:     b.Accessibility,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		CreatedByID:       b.CreatedByID,
		CreatedByFullName: b.CreatedByFullName,
		IsDelete:          b.DeletedAt.Valid,
	}
}

func validateCreate(dto *CreateBadgeDTO) error {
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
	if dto.ImageURL == "" {
		return &ValidationError{Message: form.MsgImageRequired}
	}
	return nil
}

func validateUpdate(dto *UpdateBadgeDTO) error {
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
	if dto.ImageURL != nil && *dto.ImageURL == "" {
		return &ValidationError{Message: form.MsgImageRequired}
	}
	return nil
}

// AssetClaimer marks uploaded files as owned by a saved entity so the
// orphan sweep skips them. The upload service implements it.
type AssetClaimer interface {
	Claim(refType, refID string, urls []string) error
}

// ListFilter narrows and orders the badge list. Zero values mean "no
// constraint"; Sort falls back to created_at descending.
type ListFilter struct {
	Accessibility []string
	CreatedFrom   time.Time
	CreatedTo     time.Time
	Sort          string
	Order         string
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

// orderClause maps the requested sort onto a whitelisted column.
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
		Accessibility: c.QueryArray("accessibility"),
		CreatedFrom:   parseTimeParam(c.Query("created_from")),
		CreatedTo:     parseTimeParam(c.Query("created_to")),
		Sort:          c.Query("sort"),
		Order:         c.Query("order"),
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
	if err := s.assets.Claim("badge", id, urls); err != nil {
		s.log.Warn("asset claim failed", zap.String("badge_id", id), zap.Error(err))
	}
}

func (s *Service) List(q pagination.Query, f ListFilter) ([]models.BadgeModel, response.Pagination, error) {
	tx := f.apply(s.db.Model(&models.BadgeModel{}))
	var items []models.BadgeModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) GetByID(id string) (*models.BadgeModel, error) {
	var b models.BadgeModel
	if err := s.db.First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *Service) Create(dto *CreateBadgeDTO, createdByID, createdByName string) (*models.BadgeModel, error) {
	if err := validateCreate(dto); err != nil {
		return nil, err
	}
	accessibility := dto.Accessibility
	if accessibility == "" {
		accessibility = models.AccessibilityPublic
	}
	b := models.BadgeModel{
		Title:         dto.Title,
		Description:   dto.Description,
		ImageURL:      dto.ImageURL,
		Accessibility: accessibility,
	}
	b.CreatedByID = createdByID
	b.CreatedByFullName = createdByName
	if err := s.db.Create(&b).Error; err != nil {
		return nil, err
	}
	s.claimAssets(b.ID, []string{b.ImageURL})
	s.log.Info("badge created", zap.String("id", b.ID), zap.String("title", b.Title))
	return &b, nil
}

func (s *Service) Update(id string, dto *UpdateBadgeDTO) (*models.BadgeModel, error) {
	if err := validateUpdate(dto); err != nil {
		return nil, err
	}
	b, err := s.GetByID(id)
	if err != nil || b == nil {
		return b, err
	}
	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.ImageURL != nil {
		updates["image_url"] = *dto.ImageURL
	}
	if dto.Accessibility != nil {
		updates["accessibility"] = *dto.Accessibility
	}
	if len(updates) == 0 {
		return b, nil
	}
	if err := s.db.Model(b).Updates(updates).Error; err != nil {
		return nil, err
	}
	if dto.ImageURL != nil {
		s.claimAssets(id, []string{*dto.ImageURL})
	}
	return s.GetByID(id)
}

func (s *Service) Delete(id string) error {
	res := s.db.Delete(&models.BadgeModel{}, "id = ?", id)
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
	g := rg.Group("/badges")
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
	out := make([]badgeResponse, len(items))
	for i, b := range items {
		out[i] = toResponse(&b)
	}
	response.Paged(c, out, pag)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(b))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateBadgeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.svc.Create(&dto, middleware.CurrentUserID(c), middleware.CurrentFullName(c))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(b))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateBadgeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(b))
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
