package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"call-analyzer-go/internal/dataset"
	"call-analyzer-go/internal/extractor"
	"call-analyzer-go/internal/logger"
	"call-analyzer-go/internal/metrics"
	"call-analyzer-go/internal/monitoring"
	"call-analyzer-go/internal/processor"
	"call-analyzer-go/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web form and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// newAnalyzer returns nil when no provider can be built; every transcript
// then goes to the keyword fallback.
func newAnalyzer(log *logger.Logger) extractor.Analyzer {
	analyzer, err := extractor.New(cfg.ExtractorConfig())
	if err != nil {
		log.WithError(err).Warn("AI provider not configured, using fallback analysis only")
		return nil
	}
	log.WithField("provider", analyzer.Provider()).Info("AI provider configured")
	return analyzer
}

func serve(ctx context.Context) error {
	log := logger.New()
	log.WithField("csv_file", cfg.CSVFile).Info("starting service")

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Init(prometheus.DefaultRegisterer)

	status := &monitoring.Status{}
	analyzer := newAnalyzer(log)
	if analyzer != nil {
		go func() {
			_ = monitoring.Probe(ctx, analyzer, cfg.AIProbeTimeout, status)
		}()
	}

	store := dataset.NewCSVStore(cfg.CSVFile)
	h := server.NewHandler(processor.NewDispatcher(analyzer), store, status)
	router := server.NewRouter(h, server.Options{
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     promhttp.Handler(),
		Log:         log,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server terminated")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
