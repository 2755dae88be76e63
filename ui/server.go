package ui

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"qcview/app"
	"qcview/internal"
	"qcview/internal/api"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static help.md
var embeddedFiles embed.FS

// Options holds UI server settings
type Options struct {
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server is the browser-facing web server
type Server struct {
	router    *gin.Engine
	workbench *app.Workbench
	hub       *api.SSEHub
	templates *template.Template
	help      template.HTML
	opts      Options
	logger    *internal.Logger
	http      *http.Server
}

// NewServer parses the embedded templates and registers every route
func NewServer(wb *app.Workbench, hub *api.SSEHub, opts Options, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:    gin.New(),
		workbench: wb,
		hub:       hub,
		opts:      opts,
		logger:    logger.WithComponent("UI"),
	}

	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, err
	}
	s.templates = templates

	help, err := renderHelp(embeddedFiles)
	if err != nil {
		return nil, err
	}
	s.help = help

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware and static files
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.logger.Error("failed to open static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/help", s.handleHelp)
	s.router.GET("/healthz", s.handleHealth)

	s.router.POST("/api/workbook", s.handleWorkbookUpload)
	s.router.GET("/api/view", s.handleView)
	s.router.GET("/charts/:file", s.handleChartImage)

	if s.hub != nil {
		s.router.GET("/api/events", s.hub.HandleSSE)
	}
}

// Handler exposes the router, used by tests and the API binary
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the server is shut down
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	s.logger.Info("starting qcview UI on http://%s", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if view, ok := s.workbench.Current(); ok {
		status["generation"] = view.Generation
		status["filename"] = view.Filename
	}
	c.JSON(http.StatusOK, status)
}

// isHTMXRequest reports whether the request came from an htmx trigger
func isHTMXRequest(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
