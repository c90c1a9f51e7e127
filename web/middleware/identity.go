// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"errors"
	"net/http"

	"github.com/inkwell-blog/inkwell/web/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
)

// UserKey is the gin context key of the logged in *model.User.
const UserKey = "user"

// CurrentUserMiddleware loads the session's user for the layout. If the user
// cannot be fetched the session is dropped and the client is sent to login.
func CurrentUserMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.CurrentUser(c.Request.Context(), c.Request)
		var forced *service.ForcedLogoutError
		if errors.As(err, &forced) {
			http.SetCookie(c.Writer, forced.Logout.Cookie)
			c.Redirect(http.StatusSeeOther, forced.Logout.Location)
			c.Abort()
			return
		}
		if user != nil {
			c.Set(UserKey, user)
		}
		c.Next()
	}
}

// RequestCounter counts every request that reaches the router.
func RequestCounter(counter *atomic.Int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		counter.Inc()
		c.Next()
	}
}
