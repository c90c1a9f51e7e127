package controller

import (
	"net/http"

	"github.com/inkwell-blog/inkwell/config"

	"github.com/gin-gonic/gin"
)

// IndexController serves the welcome page.
type IndexController struct {
	BaseController
}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
}

func (a *IndexController) index(c *gin.Context) {
	render(c, http.StatusOK, "index.html", "welcome", nil, gin.H{
		"name":    config.GetName(),
		"version": config.GetVersion(),
	})
}
