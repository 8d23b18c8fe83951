package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/config"
)

//go:embed templates/*.html
var templates embed.FS

const shutdownTimeout = 5 * time.Second

type Server struct {
	engine *cloak.Engine
	cfg    config.Config
	logger *slog.Logger
	router *gin.Engine
}

func New(engine *cloak.Engine, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))

	r.GET("/", s.index)
	r.POST("/process_frame", s.processFrame)
	r.POST("/capture_background", s.captureBackground)
	r.POST("/set_color", s.setColor)
	r.GET("/status", s.status)
	r.GET("/colors", s.colors)
	r.GET("/background", s.background)
	r.DELETE("/background", s.clearBackground)
	r.GET("/ws", s.stream)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 阻塞直到 ctx 结束或监听失败
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Server.Addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}
