package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/util/common"
	"github.com/inkwell-blog/inkwell/web/entity"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/atomic"
)

// Pinger is anything /healthz should probe besides the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports liveness and a few runtime figures.
type HealthController struct {
	startTime time.Time
	requests  *atomic.Int64
	cache     Pinger
}

func NewHealthController(g *gin.RouterGroup, startTime time.Time, requests *atomic.Int64, cache Pinger) *HealthController {
	a := &HealthController{
		startTime: startTime,
		requests:  requests,
		cache:     cache,
	}
	a.initRouter(g)
	return a
}

func (a *HealthController) initRouter(g *gin.RouterGroup) {
	g.GET("/healthz", a.health)
}

func (a *HealthController) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := &entity.HealthStatus{
		Status:   "ok",
		Name:     config.GetName(),
		Version:  config.GetVersion(),
		Uptime:   uint64(time.Since(a.startTime).Seconds()),
		Requests: a.requests.Load(),
		Database: "ok",
		Cache:    "disabled",
	}

	if err := pingDB(ctx); err != nil {
		logger.Warning("health: database ping failed:", err)
		status.Status = "degraded"
		status.Database = "error"
	}
	if a.cache != nil {
		status.Cache = "ok"
		if err := a.cache.Ping(ctx); err != nil {
			logger.Warning("health: cache ping failed:", err)
			status.Status = "degraded"
			status.Cache = "error"
		}
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status.Mem = entity.MemInfo{
			Current: memInfo.Used,
			Total:   memInfo.Total,
			Human:   common.FormatBytes(memInfo.Used) + " / " + common.FormatBytes(memInfo.Total),
		}
	} else {
		logger.Debug("health: get virtual memory failed:", err)
	}

	// ?logs=N attaches the newest buffered warnings and errors.
	if n, err := strconv.Atoi(c.Query("logs")); err == nil && n > 0 {
		status.Logs = logger.GetLogs(min(n, 100), "warn")
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func pingDB(ctx context.Context) error {
	db := database.GetDB()
	if db == nil {
		return database.ErrNotInitialized
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
