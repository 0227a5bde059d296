package middleware

import (
	"net/http"

	"github.com/achievement-space/core/internal/pkg/response"
	"github.com/achievement-space/core/internal/routegate"
	"github.com/gin-gonic/gin"
)

// FeatureChecker reports whether a named feature is currently enabled.
type FeatureChecker func(c *gin.Context, name string) bool

// Gate adapts the route gate decision to gin. Abort maps to 404 so a
// disabled feature is indistinguishable from a missing one, Deny403 to 403,
// and RedirectToLogin to a temporary redirect.
func Gate(feature string, meta routegate.RBACMeta, enabled FeatureChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := routegate.Evaluate(routegate.Request{
			FeatureEnabled: enabled(c, feature),
			Meta:           meta,
			Authenticated:  IsAuthenticated(c),
			Grants:         CurrentPermissions(c),
			TargetPath:     c.Request.URL.Path,
		})

		switch result.Decision {
		case routegate.Abort:
			response.NotFound(c)
		case routegate.Deny403:
			response.Forbidden(c, "Not Authorized")
		case routegate.RedirectToLogin:
			c.Redirect(http.StatusTemporaryRedirect, result.Location)
			c.Abort()
		default:
			c.Next()
		}
	}
}
