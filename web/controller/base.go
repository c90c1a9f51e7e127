// Package controller holds the HTTP handlers of the blog.
package controller

import (
	"github.com/inkwell-blog/inkwell/web/locale"
	"github.com/inkwell-blog/inkwell/web/service"

	"github.com/gin-gonic/gin"
)

// BaseController carries what every controller needs to know about the visitor.
type BaseController struct {
	auth *service.AuthService
}

// identity is the user id of the request's session, if any.
func (a *BaseController) identity(c *gin.Context) (string, bool) {
	return a.auth.CurrentUserID(c.Request)
}

// I18nWeb retrieves a message translated for the request's language.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.Web(c, name, params...)
}
