package controller

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/web/entity"
	"github.com/inkwell-blog/inkwell/web/service"

	"github.com/gin-gonic/gin"
)

const (
	loginTypeLogin    = "login"
	loginTypeRegister = "register"
)

// LoginForm is the login/register submission. Pointer fields stay nil when
// the field was not sent at all.
type LoginForm struct {
	LoginType  *string `json:"loginType" form:"loginType"`
	Username   *string `json:"username" form:"username"`
	Password   *string `json:"password" form:"password"`
	RedirectTo string  `json:"redirectTo" form:"redirectTo"`
}

// AuthController handles login, registration and logout.
type AuthController struct {
	BaseController

	limiter *service.LoginLimiter
}

func NewAuthController(g *gin.RouterGroup, auth *service.AuthService, limiter *service.LoginLimiter) *AuthController {
	a := &AuthController{
		BaseController: BaseController{auth: auth},
		limiter:        limiter,
	}
	a.initRouter(g)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup) {
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)
}

func (a *AuthController) loginPage(c *gin.Context) {
	html(c, http.StatusOK, "login.html", "pages.login.title", gin.H{
		"action": &entity.ActionData{
			Fields: map[string]string{
				"loginType":  loginTypeLogin,
				"redirectTo": c.Query("redirectTo"),
			},
		},
	})
}

func (a *AuthController) badRequest(c *gin.Context, status int, action *entity.ActionData) {
	renderAction(c, status, "login.html", "pages.login.title", action, nil)
}

func (a *AuthController) login(c *gin.Context) {
	ip := c.ClientIP()
	if retryAfter := a.limiter.Check(ip); retryAfter > 0 {
		c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(retryAfter.Seconds())), 10))
		minutes := strconv.FormatInt(int64(math.Ceil(retryAfter.Minutes())), 10)
		a.badRequest(c, http.StatusTooManyRequests, &entity.ActionData{
			FormError: I18nWeb(c, "auth.tooManyAttempts", "Minutes=="+minutes),
		})
		return
	}

	var form LoginForm
	if err := c.ShouldBind(&form); err != nil || form.LoginType == nil || form.Username == nil || form.Password == nil {
		a.badRequest(c, http.StatusBadRequest, &entity.ActionData{
			FormError: I18nWeb(c, "auth.invalidForm"),
		})
		return
	}

	username, password := *form.Username, *form.Password
	action := &entity.ActionData{
		Fields: map[string]string{
			"loginType":  *form.LoginType,
			"username":   username,
			"redirectTo": form.RedirectTo,
		},
	}

	var verr *service.ValidationError
	if err := service.ValidateCredentials(username, password); errors.As(err, &verr) {
		action.FieldErrors = localizeFields(c, verr)
		a.badRequest(c, http.StatusBadRequest, action)
		return
	}

	switch *form.LoginType {
	case loginTypeLogin:
		user, err := a.auth.Login(c.Request.Context(), username, password)
		if errors.Is(err, service.ErrNotFound) {
			remaining := a.limiter.RecordFailure(ip)
			logger.Warningf("failed login for %q from %s, %d attempts left", username, ip, remaining)
			action.FormError = I18nWeb(c, "auth.invalidCredentials")
			a.badRequest(c, http.StatusBadRequest, action)
			return
		} else if err != nil {
			handleError(c, err)
			return
		}
		a.limiter.Reset(ip)
		logger.Infof("user %s logged in from %s", user.Id, ip)
		a.startSession(c, user.Id, form.RedirectTo)

	case loginTypeRegister:
		user, err := a.auth.Register(c.Request.Context(), username, password)
		if errors.Is(err, service.ErrConflict) {
			action.FormError = I18nWeb(c, "auth.usernameTaken", "Username=="+username)
			a.badRequest(c, http.StatusBadRequest, action)
			return
		} else if errors.As(err, &verr) {
			action.FieldErrors = localizeFields(c, verr)
			a.badRequest(c, http.StatusBadRequest, action)
			return
		} else if err != nil {
			handleError(c, err)
			return
		}
		a.startSession(c, user.Id, form.RedirectTo)

	default:
		action.FormError = I18nWeb(c, "auth.invalidLoginType")
		a.badRequest(c, http.StatusBadRequest, action)
	}
}

func (a *AuthController) startSession(c *gin.Context, userID, redirectTo string) {
	redirect, err := a.auth.CreateSession(userID, redirectTo)
	if err != nil {
		handleError(c, err)
		return
	}
	sendRedirect(c, redirect)
}

func (a *AuthController) logout(c *gin.Context) {
	if userID, ok := a.identity(c); ok {
		logger.Infof("user %s logged out", userID)
	}
	sendRedirect(c, a.auth.Logout(c.Request))
}
