// Package server exposes the HTTP API: expense registration plus
// read-only views over the cost ledger.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/BailaoHugo/gestao-facturas/constants"
	"github.com/BailaoHugo/gestao-facturas/internal/async"
	"github.com/BailaoHugo/gestao-facturas/internal/ledger"
	"github.com/BailaoHugo/gestao-facturas/internal/mailbox"
	"github.com/BailaoHugo/gestao-facturas/internal/repository"
)

// HealthChecker reports backend liveness, usually a database ping.
type HealthChecker func(ctx context.Context) error

type Server struct {
	logger     *slog.Logger
	queue      async.Queue
	costs      repository.CostLineRepository
	health     HealthChecker
	uploadsDir string
	valid      map[string]struct{}
}

func New(logger *slog.Logger, queue async.Queue, costs repository.CostLineRepository, health HealthChecker, uploadsDir string, valid map[string]struct{}) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:     logger,
		queue:      queue,
		costs:      costs,
		health:     health,
		uploadsDir: uploadsDir,
		valid:      valid,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	api.POST("/registar-despesa", s.registarDespesa)
	api.GET("/centros-custo", s.centrosCusto)
	api.GET("/custos/obras", s.custosObras)
	api.GET("/custos/obras/:centro", s.custosObra)

	return r
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// registarDespesa accepts a multipart upload with the invoice file and
// a "centro" field (code or free-form subject, same rules as email).
func (s *Server) registarDespesa(c *gin.Context) {
	centroField := c.PostForm("centro")
	centro := ledger.ParseCostCenter(centroField, s.valid)
	if centro == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "centro de custo inválido", "centro": centroField})
		return
	}

	fh, err := c.FormFile("ficheiro")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ficheiro em falta"})
		return
	}
	if _, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(fh.Filename))]; !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "tipo de ficheiro não suportado", "ficheiro": fh.Filename})
		return
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		s.logger.Error("uploads dir unavailable", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
		return
	}
	name := mailbox.SanitizeFilename(fh.Filename)
	dst := filepath.Join(s.uploadsDir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		s.logger.Error("upload save failed", "filename", name, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
		return
	}

	origin := fmt.Sprintf("email:%s|centro:%s", name, centro)
	job := async.NewJob(dst, origin, centro)
	if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
		s.logger.Error("enqueue failed", "filename", name, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
		return
	}

	s.logger.Info("despesa registada", "ficheiro", name, "centro", centro, "trace_id", job.TraceID)
	c.JSON(http.StatusAccepted, gin.H{
		"status":   string(constants.JobStatusQueued),
		"ficheiro": name,
		"centro":   centro,
		"trace_id": job.TraceID,
	})
}

func (s *Server) centrosCusto(c *gin.Context) {
	centers, err := s.costs.Centers(c.Request.Context())
	if err != nil {
		s.logger.Error("list centers failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
		return
	}
	if centers == nil {
		centers = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"centros": centers})
}

func (s *Server) custosObras(c *gin.Context) {
	summaries, err := s.costs.SummarizeByCenter(c.Request.Context())
	if err != nil {
		s.logger.Error("summarize failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
		return
	}
	if summaries == nil {
		summaries = []repository.CenterSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"obras": summaries})
}

func (s *Server) custosObra(c *gin.Context) {
	centro := c.Param("centro")
	lines, err := s.costs.ListByCenter(c.Request.Context(), centro)
	if err != nil {
		s.logger.Error("list cost lines failed", "centro", centro, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
		return
	}
	if len(lines) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "centro sem registos", "centro": centro})
		return
	}
	c.JSON(http.StatusOK, gin.H{"centro": centro, "linhas": lines})
}
