package app

import (
	"time"

	"github.com/achievement-space/core/internal/middleware"
	"github.com/achievement-space/core/internal/modules/achievement/badge"
	"github.com/achievement-space/core/internal/modules/achievement/certificate"
	"github.com/achievement-space/core/internal/modules/achievement/upload"
	"github.com/achievement-space/core/internal/modules/system/feature"
	"github.com/achievement-space/core/internal/modules/system/health"
	pkgredis "github.com/achievement-space/core/internal/pkg/redis"
	"github.com/achievement-space/core/internal/pkg/response"
	"github.com/achievement-space/core/internal/routegate"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	featureSvc := feature.NewService(db, rc.Raw(), a.cfg, a.logger)
	featureEnabled := func(c *gin.Context, name string) bool {
		return featureSvc.Enabled(c.Request.Context(), name)
	}

	uploadSvc := upload.NewService(db, a.newStorage(), a.cfg.Upload, a.logger)
	badgeSvc := badge.NewService(db, uploadSvc, a.logger)
	certSvc := certificate.NewService(db, uploadSvc, a.logger)

	api := r.Group(a.cfg.BasePath)
	api.Use(middleware.OptionalAuth())
	api.Use(middleware.HTTPCache(rc.Raw(), middleware.HTTPCacheOptions{
		TTL:     15 * time.Second,
		Disable: a.cfg.IsDev(),
	}))

	health.NewHandler(db, rc.Raw()).RegisterRoutes(api)

	// Uploads require auth but no feature gate: assets outlive flag flips.
	authed := api.Group("", middleware.Auth())
	upload.NewHandler(uploadSvc).RegisterRoutes(authed)
	feature.NewHandler(featureSvc).RegisterRoutes(authed)

	// CMS surface sits behind the achievement gate.
	cms := api.Group("/cms",
		middleware.Gate(feature.FlagAchievement, routegate.AllowAll(), featureEnabled),
		middleware.Auth(),
	)
	badge.NewHandler(badgeSvc).RegisterRoutes(cms)
	certificate.NewHandler(certSvc).RegisterRoutes(cms)

	// Locally stored uploads are served from the static dir.
	r.Static("/static", a.cfg.StaticDir())
}
