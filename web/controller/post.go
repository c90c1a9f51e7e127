package controller

import (
	"errors"
	"net/http"

	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/web/entity"
	"github.com/inkwell-blog/inkwell/web/service"
	"github.com/inkwell-blog/inkwell/web/session"

	"github.com/gin-gonic/gin"
)

// PostForm mirrors service.PostInput but tells missing fields from empty ones.
type PostForm struct {
	Title *string `json:"title" form:"title"`
	Body  *string `json:"body" form:"body"`
}

// PostController serves the post list, detail, creation and deletion.
type PostController struct {
	BaseController

	posts *service.PostService
}

func NewPostController(g *gin.RouterGroup, auth *service.AuthService, posts *service.PostService) *PostController {
	a := &PostController{
		BaseController: BaseController{auth: auth},
		posts:          posts,
	}
	a.initRouter(g)
	return a
}

func (a *PostController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.list)
	g.GET("/new", a.newPage)
	g.POST("/new", a.create)
	g.GET("/:id", a.show)
	g.POST("/:id", a.action)
	g.DELETE("/:id", a.delete)
}

func (a *PostController) list(c *gin.Context) {
	posts, err := a.posts.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	render(c, http.StatusOK, "posts.html", "pages.posts.title", gin.H{"posts": posts}, posts)
}

func (a *PostController) newPage(c *gin.Context) {
	if _, ok := a.identity(c); !ok {
		errorPage(c, http.StatusUnauthorized, "auth.loginRequired")
		return
	}
	html(c, http.StatusOK, "new_post.html", "pages.posts.newTitle", gin.H{
		"action": &entity.ActionData{},
	})
}

func (a *PostController) create(c *gin.Context) {
	userID, err := a.auth.RequireUserID(c.Request, "")
	if err != nil {
		handleError(c, err)
		return
	}

	var form PostForm
	if err := c.ShouldBind(&form); err != nil || form.Title == nil || form.Body == nil {
		renderAction(c, http.StatusBadRequest, "new_post.html", "pages.posts.newTitle", &entity.ActionData{
			FormError: I18nWeb(c, "post.invalidForm"),
		}, nil)
		return
	}

	in := service.PostInput{Title: *form.Title, Body: *form.Body}
	post, err := a.posts.Create(c.Request.Context(), userID, in)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		renderAction(c, http.StatusBadRequest, "new_post.html", "pages.posts.newTitle", &entity.ActionData{
			FieldErrors: localizeFields(c, verr),
			Fields:      map[string]string{"title": in.Title, "body": in.Body},
		}, nil)
		return
	} else if err != nil {
		handleError(c, err)
		return
	}

	session.AddFlash(c, I18nWeb(c, "post.created"))
	c.Redirect(http.StatusSeeOther, "/posts/"+post.Id)
}

func (a *PostController) show(c *gin.Context) {
	post, err := a.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	view := a.view(c, post)
	render(c, http.StatusOK, "post.html", "", gin.H{"post": view, "title": post.Title}, view)
}

func (a *PostController) view(c *gin.Context, post *model.Post) *entity.PostView {
	identity, ok := a.identity(c)
	return &entity.PostView{
		Id:        post.Id,
		Title:     post.Title,
		Body:      post.Body,
		UserId:    post.UserId,
		CreatedAt: post.CreatedAt,
		IsOwner:   service.IsOwner(identity, ok, post),
	}
}

// action dispatches form posts that emulate other methods.
func (a *PostController) action(c *gin.Context) {
	if c.PostForm("_method") == "delete" {
		a.delete(c)
		return
	}
	errorPage(c, http.StatusMethodNotAllowed, "auth.invalidForm")
}

func (a *PostController) delete(c *gin.Context) {
	id := c.Param("id")
	userID, err := a.auth.RequireUserID(c.Request, "")
	if err != nil {
		handleError(c, err)
		return
	}

	err = a.posts.Delete(c.Request.Context(), userID, true, id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		errorPage(c, http.StatusNotFound, "post.cantDeleteMissing")
		return
	case err != nil:
		handleError(c, err)
		return
	}

	msg := I18nWeb(c, "post.deleted")
	if wantsJSON(c) {
		jsonMsg(c, msg, nil)
		return
	}
	session.AddFlash(c, msg)
	c.Redirect(http.StatusSeeOther, "/posts")
}
