package app

import (
	"fmt"

	"github.com/achievement-space/core/internal/modules/achievement/upload"
)

// newStorage selects the upload backend from config.
func (a *App) newStorage() upload.Storage {
	host := a.cfg.Upload.ImageHost
	if a.cfg.Upload.Backend == "s3" {
		return upload.NewS3Storage(a.cfg.S3, host)
	}
	if host == "" {
		host = fmt.Sprintf("http://localhost:%d/static", a.cfg.Port)
	}
	return upload.NewLocalStorage(a.cfg.StaticDir(), host)
}
