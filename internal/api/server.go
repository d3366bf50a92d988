// Package api exposes the frame-time analysis over HTTP: synchronous
// analysis of uploaded or remote videos, and asynchronous submissions
// handed off to the worker through the request queue.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
	"github.com/framepulse/frametime-service/internal/domain/port"
)

// Analyzer runs the full frame-time analysis on a local video file.
type Analyzer func(ctx context.Context, path string) (*analysis.Result, error)

type Server struct {
	analyze    Analyzer
	store      port.MediaStore
	repo       port.AnalysisRepository
	requests   port.RequestPublisher
	logger     *zap.Logger
	tempDir    string
	maxUpload  int64
	maxRetries int
	client     *http.Client
}

type ServerConfig struct {
	Analyzer   Analyzer
	Store      port.MediaStore
	Repo       port.AnalysisRepository
	Requests   port.RequestPublisher
	Logger     *zap.Logger
	TempDir    string
	MaxUpload  int64
	MaxRetries int
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		analyze:    cfg.Analyzer,
		store:      cfg.Store,
		repo:       cfg.Repo,
		requests:   cfg.Requests,
		logger:     cfg.Logger,
		tempDir:    cfg.TempDir,
		maxUpload:  cfg.MaxUpload,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Post("/analyze", s.handleAnalyze)
	r.Post("/analyze-url", s.handleAnalyzeURL)

	r.Route("/analyses", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/{id}", s.handleGetAnalysis)
	})

	return r
}
