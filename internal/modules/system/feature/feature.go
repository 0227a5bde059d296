// Package feature manages remote feature flags stored in the options table,
// with a short-lived Redis cache in front. The route gate consults the
// "achievement" flag before letting CMS navigation through.
package feature

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achievement-space/core/internal/config"
	"github.com/achievement-space/core/internal/models"
	"github.com/achievement-space/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FlagAchievement gates the whole achievement CMS surface.
const FlagAchievement = "achievement"

const (
	optionPrefix = "feature:"
	cachePrefix  = "achievement:feature:"
	cacheTTL     = 30 * time.Second
)

// Flag is one feature flag with its effective value.
type Flag struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type Service struct {
	db  *gorm.DB
	rdb *redis.Client
	cfg *config.AppConfig
	log *zap.Logger
}

func NewService(db *gorm.DB, rdb *redis.Client, cfg *config.AppConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, rdb: rdb, cfg: cfg, log: log}
}

// Enabled resolves a flag: Redis cache, then options table, then the static
// config value. Lookup failures fall back to the static config so a cache or
// database outage cannot flip features off.
func (s *Service) Enabled(ctx context.Context, name string) bool {
	cacheKey := cachePrefix + name
	if s.rdb != nil {
		if val, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return val == "1"
		}
	}

	enabled, found, err := s.lookup(name)
	if err != nil {
		s.log.Warn("feature flag lookup failed", zap.String("name", name), zap.Error(err))
		return s.cfg.FeatureEnabled(name)
	}
	if !found {
		enabled = s.cfg.FeatureEnabled(name)
	}

	if s.rdb != nil {
		val := "0"
		if enabled {
			val = "1"
		}
		s.rdb.Set(ctx, cacheKey, val, cacheTTL)
	}
	return enabled
}

func (s *Service) lookup(name string) (enabled, found bool, err error) {
	var opt models.OptionModel
	err = s.db.Where("name = ?", optionPrefix+name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	v, parseErr := strconv.ParseBool(opt.Value)
	if parseErr != nil {
		return false, false, fmt.Errorf("flag %q has invalid value %q", name, opt.Value)
	}
	return v, true, nil
}

// Set upserts a flag and invalidates its cache entry.
func (s *Service) Set(ctx context.Context, name string, enabled bool) error {
	opt := models.OptionModel{
		Name:  optionPrefix + name,
		Value: strconv.FormatBool(enabled),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&opt).Error
	if err != nil {
		return err
	}

	if s.rdb != nil {
		s.rdb.Del(ctx, cachePrefix+name)
	}
	s.log.Info("feature flag updated", zap.String("name", name), zap.Bool("enabled", enabled))
	return nil
}

// List returns all persisted flags.
func (s *Service) List() ([]Flag, error) {
	var opts []models.OptionModel
	err := s.db.Where("name LIKE ?", optionPrefix+"%").Order("name ASC").Find(&opts).Error
	if err != nil {
		return nil, err
	}
	flags := make([]Flag, 0, len(opts))
	for _, opt := range opts {
		v, parseErr := strconv.ParseBool(opt.Value)
		if parseErr != nil {
			continue
		}
		flags = append(flags, Flag{
			Name:    strings.TrimPrefix(opt.Name, optionPrefix),
			Enabled: v,
		})
	}
	return flags, nil
}

type updateFlagDTO struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/features")
	g.GET("", h.list)
	g.GET("/:name", h.get)
	g.PUT("/:name", h.update)
}

func (h *Handler) list(c *gin.Context) {
	flags, err := h.svc.List()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, flags)
}

func (h *Handler) get(c *gin.Context) {
	name := c.Param("name")
	response.OK(c, Flag{
		Name:    name,
		Enabled: h.svc.Enabled(c.Request.Context(), name),
	})
}

func (h *Handler) update(c *gin.Context) {
	var dto updateFlagDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	name := c.Param("name")
	if err := h.svc.Set(c.Request.Context(), name, *dto.Enabled); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, Flag{Name: name, Enabled: *dto.Enabled})
}
