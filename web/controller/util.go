package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/web/entity"
	"github.com/inkwell-blog/inkwell/web/locale"
	"github.com/inkwell-blog/inkwell/web/middleware"
	"github.com/inkwell-blog/inkwell/web/service"
	"github.com/inkwell-blog/inkwell/web/session"

	"github.com/gin-gonic/gin"
)

// jsonMsg sends a JSON response with a message and error status.
func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

// jsonMsgObj sends a JSON response with a message, object, and error status.
func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		m.Msg = msg
	} else {
		m.Msg = msg + " (" + err.Error() + ")"
		logger.Warning(msg+": ", err)
	}
	c.JSON(http.StatusOK, m)
}

// pureJsonMsg sends a JSON message response with a custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string, obj any) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
		Obj:     obj,
	})
}

// html renders a template with the layout data every page needs.
func html(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["title"]; !ok {
		data["title"] = I18nWeb(c, title)
	}
	data["lang"] = locale.Lang(c)
	data["request_uri"] = c.Request.RequestURI
	data["user"] = currentUser(c)
	data["flashes"] = session.Flashes(c)
	c.HTML(status, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":  config.GetVersion(),
		"app_name": config.GetName(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// render answers with JSON for API clients and with the template otherwise.
func render(c *gin.Context, status int, name string, title string, data gin.H, obj any) {
	if wantsJSON(c) {
		pureJsonMsg(c, status, status < http.StatusBadRequest, "", obj)
		return
	}
	html(c, status, name, title, data)
}

// renderAction re-displays a rejected form.
func renderAction(c *gin.Context, status int, name string, title string, action *entity.ActionData, data gin.H) {
	if wantsJSON(c) {
		c.JSON(status, action)
		return
	}
	if data == nil {
		data = gin.H{}
	}
	data["action"] = action
	html(c, status, name, title, data)
}

// errorPage renders a localized error message.
func errorPage(c *gin.Context, status int, key string, params ...string) {
	msg := I18nWeb(c, key, params...)
	if wantsJSON(c) {
		pureJsonMsg(c, status, false, msg, nil)
		return
	}
	html(c, status, "error.html", "unexpected", gin.H{
		"status":  status,
		"message": msg,
	})
}

// sendRedirect applies a redirect directive from the auth service.
func sendRedirect(c *gin.Context, r *service.Redirect) {
	if r.Cookie != nil {
		http.SetCookie(c.Writer, r.Cookie)
	}
	c.Redirect(http.StatusSeeOther, r.Location)
}

// handleError maps service errors to responses.
func handleError(c *gin.Context, err error) {
	var forced *service.ForcedLogoutError
	var unauth *service.UnauthenticatedError
	switch {
	case errors.As(err, &forced):
		sendRedirect(c, forced.Logout)
	case errors.As(err, &unauth):
		if wantsJSON(c) {
			c.Header("Location", unauth.Location())
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "auth.loginRequired"), gin.H{"location": unauth.Location()})
			return
		}
		c.Redirect(http.StatusSeeOther, unauth.Location())
	case errors.Is(err, service.ErrForbidden):
		errorPage(c, http.StatusForbidden, "post.forbidden")
	case errors.Is(err, service.ErrNotFound):
		errorPage(c, http.StatusNotFound, "post.notFound", "ID=="+c.Param("id"))
	case errors.Is(err, service.ErrTooManyAttempts):
		errorPage(c, http.StatusTooManyRequests, "auth.tooManyAttempts")
	default:
		logger.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		errorPage(c, http.StatusInternalServerError, "unexpected")
	}
}

// localizeFields translates the message keys of a validation error.
func localizeFields(c *gin.Context, verr *service.ValidationError) map[string]string {
	out := make(map[string]string, len(verr.Fields))
	for field, key := range verr.Fields {
		out[field] = I18nWeb(c, key)
	}
	return out
}

func currentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(middleware.UserKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(c *gin.Context) bool {
	return isAjax(c) || strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON)
}

// isAjax checks if the request is an AJAX request.
func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}
