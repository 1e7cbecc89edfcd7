// Package httpapi exposes the question-answering pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driving"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// Server wires the driving ports to HTTP routes.
type Server struct {
	answers driving.AnswerService
	corpus  driving.CorpusService
	source  driven.MessageSource
	metrics *Metrics
	engine  *gin.Engine
}

// NewServer builds the HTTP surface. The source may be nil, in which case
// the refresh route reports that no ingestion source is configured.
func NewServer(answers driving.AnswerService, corpus driving.CorpusService, source driven.MessageSource) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		answers: answers,
		corpus:  corpus,
		source:  source,
		metrics: NewMetrics(),
		engine:  engine,
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.POST("/ask/detailed", s.handleAskDetailed)
	api.POST("/refresh", s.handleRefresh)
	api.GET("/insights", s.handleInsights)
}

// askRequest is the question payload.
type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleAsk(c *gin.Context) {
	ans, ok := s.ask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": ans.Text})
}

func (s *Server) handleAskDetailed(c *gin.Context) {
	ans, ok := s.ask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ans)
}

// ask runs the shared question path. On failure it writes the error
// response and returns ok=false.
func (s *Server) ask(c *gin.Context) (domain.Answer, bool) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return domain.Answer{}, false
	}

	start := time.Now()
	ans, err := s.answers.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			s.metrics.observeQuestion("not_ready", time.Since(start).Seconds())
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "corpus not ready, refresh first"})
			return domain.Answer{}, false
		}
		s.metrics.observeQuestion("error", time.Since(start).Seconds())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return domain.Answer{}, false
	}

	outcome := "answered"
	if !ans.Supported {
		outcome = "unsupported"
	}
	s.metrics.observeQuestion(outcome, time.Since(start).Seconds())
	return ans, true
}

func (s *Server) handleRefresh(c *gin.Context) {
	if s.source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no message source configured"})
		return
	}

	batch, err := s.source.Fetch(c.Request.Context())
	if err != nil {
		s.metrics.observeRebuild("fetch_error", 0)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("fetch messages: %v", err)})
		return
	}

	genID, report, err := s.corpus.Rebuild(c.Request.Context(), batch.Messages)
	if err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			s.metrics.observeRebuild("busy", 0)
			c.JSON(http.StatusConflict, gin.H{"error": "a rebuild is already in progress"})
			return
		}
		s.metrics.observeRebuild("error", 0)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.metrics.observeRebuild("success", report.Highlights.TotalMessages)
	c.JSON(http.StatusOK, gin.H{
		"generation":    genID,
		"message_count": report.Highlights.TotalMessages,
		"findings":      len(report.Findings),
	})
}

func (s *Server) handleInsights(c *gin.Context) {
	report, err := s.corpus.LatestReport()
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "corpus not ready, refresh first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleHealth(c *gin.Context) {
	genID, ready := s.corpus.Generation()
	status := "ok"
	if !ready {
		status = "starting"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"ready":         ready,
		"generation":    genID,
		"message_count": s.corpus.MessageCount(),
	})
}
