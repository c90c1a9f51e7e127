// Package web wires the blog together: router, templates, services, the
// listener and the background jobs.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/util/common"
	"github.com/inkwell-blog/inkwell/util/crypto"
	"github.com/inkwell-blog/inkwell/web/cache"
	"github.com/inkwell-blog/inkwell/web/controller"
	"github.com/inkwell-blog/inkwell/web/job"
	"github.com/inkwell-blog/inkwell/web/locale"
	"github.com/inkwell-blog/inkwell/web/middleware"
	"github.com/inkwell-blog/inkwell/web/network"
	"github.com/inkwell-blog/inkwell/web/service"
	"github.com/inkwell-blog/inkwell/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/atomic"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

// wrapAssetsFileInfo pins ModTime so embedded assets get a stable Last-Modified.
type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server is the blog's HTTP server with its services and scheduled jobs.
type Server struct {
	cfg *config.Config

	httpServer *http.Server
	listener   net.Listener

	codec   *session.Codec
	auth    *service.AuthService
	posts   *service.PostService
	limiter *service.LoginLimiter
	cache   *cache.Client

	requests *atomic.Int64
	cron     *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server for cfg. The database must be initialized before Start.
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		requests: atomic.NewInt64(0),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// initServices builds the codec and services. A missing session secret is
// reported here, before anything listens.
func (s *Server) initServices() error {
	codec, err := session.NewCodec(s.cfg)
	if err != nil {
		return err
	}
	s.codec = codec

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return err
	}

	var recent service.RecentCache
	if s.cache != nil {
		recent = cache.NewPostCache(s.cache)
	}

	users := database.NewUserRepository(database.GetDB())
	s.auth = service.NewAuthService(users, crypto.NewHasher(s.cfg.HashCost), codec)
	s.posts = service.NewPostService(database.NewPostRepository(database.GetDB()), recent)
	s.limiter = service.NewLoginLimiter(s.cfg.Login)
	return nil
}

// getHtmlFiles lists the templates under web/html on disk. Used only in debug mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses the embedded templates, one directory at a time.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.Use(middleware.RequestCounter(s.requests))
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/healthz"}),
	))
	engine.Use(sessions.Sessions(session.FlashCookieName, session.NewFlashStore([]byte(s.cfg.SessionSecret), s.codec)))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(middleware.RedirectMiddleware(middleware.LegacyRedirects))

	var counter middleware.Counter
	if s.cache != nil {
		counter = s.cache
	}
	engine.Use(middleware.RateLimitMiddleware(counter, middleware.DefaultRateLimitConfig(s.cfg.WriteRateLimit)))

	// i18n in templates
	funcMap := template.FuncMap{"i18n": locale.I18n}
	engine.SetFuncMap(funcMap)

	files, err := s.getHtmlFiles()
	if config.IsDebug() && err == nil && len(files) > 0 {
		engine.LoadHTMLFiles(files...)
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	var pinger controller.Pinger
	if s.cache != nil {
		pinger = s.cache
	}
	controller.NewHealthController(engine.Group("/"), startTime, s.requests, pinger)

	g := engine.Group("/", middleware.CurrentUserMiddleware(s.auth))
	controller.NewIndexController(g)
	controller.NewAuthController(g.Group("/auth"), s.auth, s.limiter)
	controller.NewPostController(g.Group("/posts"), s.auth, s.posts)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules the maintenance jobs.
func (s *Server) startTask() {
	s.addJob("@every 5m", job.NewCheckpointJob())
	s.addJob("@every 1m", job.NewLoginSweepJob(s.limiter))
	s.addJob("@every 1m", job.NewCheckMemJob(90))
}

func (s *Server) addJob(spec string, j cron.Job) {
	if _, err := s.cron.AddJob(spec, cron.NewChain(cron.Recover(cronLogger{})).Then(j)); err != nil {
		logger.Warning("add job error:", err)
	}
}

// Start opens the cache, builds the router and starts serving in the background.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if s.cache, err = cache.Open(s.ctx, s.cfg.Redis); err != nil {
		logger.Warning("running without cache:", err)
		s.cache, err = nil, nil
	}

	if err = s.initServices(); err != nil {
		return err
	}

	s.cron = cron.New(cron.WithSeconds())
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}

	if s.cfg.TLSEnabled() {
		if cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile); err == nil {
			tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewAutoHttpsListener(listener)
			listener = tls.NewListener(listener, tlsCfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer common.Recover("http server")
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts down the HTTP server, the cron scheduler and the cache.
func (s *Server) Stop() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err1, err2, err3 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		err2 = s.listener.Close()
	}
	if s.cache != nil {
		err3 = s.cache.Close()
	}
	s.cancel()
	return common.Combine(err1, err2, err3)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }

// cronLogger routes cron's panic reports into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug(append([]any{msg}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Error(append([]any{msg, err}, keysAndValues...)...)
}
