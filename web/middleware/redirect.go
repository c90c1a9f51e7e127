package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LegacyRedirects maps old paths to their current location.
var LegacyRedirects = map[string]string{
	"/login":    "/auth/login",
	"/register": "/auth/login",
}

// RedirectMiddleware permanently redirects GET requests on an old path prefix
// to the new one, keeping the rest of the path and the query.
func RedirectMiddleware(redirects map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		for from, to := range redirects {
			if path == from || strings.HasPrefix(path, from+"/") {
				newPath := to + path[len(from):]
				if c.Request.URL.RawQuery != "" {
					newPath += "?" + c.Request.URL.RawQuery
				}
				c.Redirect(http.StatusMovedPermanently, newPath)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
