// Package api serves the prediction and analysis HTTP endpoints. Every
// request opens its own read-only store connection and re-reads the
// model artifact, so a retrain or new ETL load takes effect without a
// restart.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sgdatalabs/btopricer/internal/config"
	"github.com/sgdatalabs/btopricer/internal/narrate"
	"github.com/sgdatalabs/btopricer/internal/report"
)

// Server is the HTTP API server.
type Server struct {
	cfg       *config.Config
	generator *report.Generator
	explainer narrate.Explainer
	logger    *slog.Logger
}

// NewServer creates the API server with its narrative explainer and
// report generator wired from config. A nil logger discards output.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	explainer := narrate.NewService(cfg.LLM, logger)
	return &Server{
		cfg:       cfg,
		generator: report.NewGenerator(cfg, explainer, logger),
		explainer: explainer,
		logger:    logger,
	}
}

// Routes builds the router. Exposed so tests can drive handlers without
// binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Post("/predict", s.handlePredict)
	r.Get("/recommend", s.handleRecommend)
	r.Post("/bto_analysis", s.handleAnalysis)
	r.Get("/report_md", s.handleReportMD)
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port)
	s.logger.Info("starting API server", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
