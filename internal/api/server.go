// Package api exposes the read-only HTTP surface over gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/observability"
	"github.com/whogoverns/api/internal/service"
)

// Server wires the service into a gin router.
type Server struct {
	cfg     *config.Config
	svc     *service.Service
	logger  *slog.Logger
	metrics *observability.Metrics
	params  paramParser
	router  *gin.Engine
}

// NewServer builds the router. metrics may be nil, in which case /metrics is
// not mounted.
func NewServer(cfg *config.Config, svc *service.Service, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		params:  paramParser{dataset: cfg.Dataset},
	}
	s.initRouter()
	return s
}

func (s *Server) initRouter() {
	r := gin.New()
	r.Use(requestID(s.logger), accessLog(), recovery())
	if s.cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(s.cfg.Tracing.ServiceName))
	}
	if s.metrics != nil {
		r.Use(instrument(s.metrics))
	}
	r.Use(corsPolicy(s.cfg.Server.CORSOrigins))

	r.GET("/health", s.health)
	r.GET("/health/db", s.healthDB)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		r.GET(s.cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group(s.cfg.Server.APIPrefix, cacheControl(s.cfg.Server.CacheMaxAgeSeconds))
	v1.GET("/metadata", s.metadata)
	v1.GET("/map", s.mapSnapshot)
	v1.GET("/country/:iso3", s.countryDetail)
	v1.GET("/country/:iso3/summary", s.countrySummary)
	v1.GET("/timeline/:iso3", s.timeline)
	v1.GET("/events", s.events)
	v1.GET("/articles", s.articles)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "not found"})
	})

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr, "prefix", s.cfg.Server.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// healthDB always answers 200; an unreachable store reports degraded.
func (s *Server) healthDB(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	c.JSON(http.StatusOK, s.svc.DatabaseHealth(ctx))
}

func (s *Server) metadata(c *gin.Context) {
	lang, err := s.params.metadataLang(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.Metadata(c.Request.Context(), lang)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) mapSnapshot(c *gin.Context) {
	p, err := s.params.mapParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.Map(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) countryDetail(c *gin.Context) {
	p, err := s.params.detailParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.CountryDetail(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) countrySummary(c *gin.Context) {
	p, err := s.params.summaryParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.CountrySummary(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) timeline(c *gin.Context) {
	p, err := s.params.timelineParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.Timeline(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) events(c *gin.Context) {
	p, err := s.params.eventsParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.Events(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) articles(c *gin.Context) {
	p, err := s.params.articlesParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp, err := s.svc.Articles(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
