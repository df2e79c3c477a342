// Package web serves the single-page CSV analyzer: upload, preview, ask.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"

	"github.com/KaramelBytes/csvask/internal/analyzer"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionName = "csvask"

// Options configures the presenter.
type Options struct {
	// MaxUploadBytes caps a multipart upload; 0 means 200 MiB.
	MaxUploadBytes int64
	// SessionSecret signs the session cookie; empty uses a random per-process key.
	SessionSecret string
	// AllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	AllowedOrigins []string
	// MaxUploads bounds how many session uploads are held in memory.
	MaxUploads int
	Logger     log.Interface
}

// Server is the browser-facing presenter.
type Server struct {
	svc      *analyzer.Service
	engine   *gin.Engine
	uploads  *uploadStore
	sessions sessions.Store
	maxBytes int64
	origins  []string
	logger   log.Interface
}

// New builds the gin engine and routes.
func New(svc *analyzer.Service, o Options) *Server {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 200 << 20
	}
	secret := o.SessionSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
	}
	logger := o.Logger
	if logger == nil {
		logger = log.Log
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}

	s := &Server{
		svc:      svc,
		uploads:  newUploadStore(o.MaxUploads),
		sessions: store,
		maxBytes: o.MaxUploadBytes,
		origins:  o.AllowedOrigins,
		logger:   logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.MaxMultipartMemory = 32 << 20
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", s.index)
	r.POST("/upload", s.upload)
	r.POST("/ask", s.ask)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "csvask"})
	})
	api := r.Group("/api/v1")
	{
		api.POST("/analyze", s.analyze)
	}
	s.engine = r
	return s
}

// Handler returns the HTTP handler, wrapped with CORS when origins are configured.
func (s *Server) Handler() http.Handler {
	if len(s.origins) == 0 {
		return s.engine
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.engine)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger log.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}
