// Package api exposes stored reconciliation runs and on-demand runs over
// HTTP for the finance dashboard.
package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/openledgerhq/orders-to-cash/internal/application/reconcile"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
// If service is nil, the reconcile endpoint is not registered.
type Server struct {
	config  Config
	router  *gin.Engine
	repo    storage.Repository
	service *reconcile.Service
	logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, service *reconcile.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		config:  cfg,
		router:  router,
		repo:    repo,
		service: service,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// Router exposes the underlying router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	addr := ":" + strconv.Itoa(s.config.Port)
	s.logger.Info("starting API server", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := s.router.Group("/api")
	{
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:runId", s.getRun)
		api.GET("/runs/:runId/results", s.getResults)
		if s.service != nil {
			api.POST("/reconcile", s.startReconcile)
		}
	}
}

func (s *Server) listRuns(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}
	if limit <= 0 {
		limit = 50
	}

	runs, err := s.repo.ListRuns(limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.repo.GetRun(c.Param("runId"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		s.logger.Error("failed to fetch run", "run_id", c.Param("runId"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) getResults(c *gin.Context) {
	runID := c.Param("runId")
	if _, err := s.repo.GetRun(runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		s.logger.Error("failed to fetch run", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}

	results, err := s.repo.GetResults(runID)
	if err != nil {
		s.logger.Error("failed to fetch results", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch results"})
		return
	}
	if results == nil {
		results = []storage.ResultRecord{}
	}
	c.JSON(http.StatusOK, results)
}

type reconcileRequest struct {
	DryRun bool `json:"dry_run"`
}

type reconcileResponse struct {
	RunID            string `json:"run_id"`
	OrderCount       int    `json:"order_count"`
	TransactionCount int    `json:"transaction_count"`
	Balanced         bool   `json:"balanced"`
	DurationMs       int64  `json:"duration_ms"`
}

// startReconcile runs a reconciliation synchronously. Runs finish in seconds
// at current volumes; a job queue is not worth the plumbing yet.
func (s *Server) startReconcile(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	result, err := s.service.Run(c.Request.Context(), reconcile.Options{DryRun: req.DryRun})
	if err != nil {
		s.logger.Error("reconciliation run failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reconcileResponse{
		RunID:            result.RunID,
		OrderCount:       result.OrderCount,
		TransactionCount: result.TransactionCount,
		Balanced:         result.Report.Summary.Balanced,
		DurationMs:       result.Duration.Milliseconds(),
	})
}
