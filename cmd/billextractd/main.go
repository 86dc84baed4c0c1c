// billextractd serves the bill extraction API over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"billextract/internal/common"
	"billextract/internal/docfetch"
	"billextract/internal/engine"
	"billextract/internal/export"
	"billextract/internal/llm/openai"
	"billextract/internal/server"
	"billextract/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	var exporter *export.Service
	if cfg.Store.Path != "" {
		var err error
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("open audit store", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = st.Close()
		}()
		exporter = export.NewService(st, logger)
		logger.Info("audit store ready", "path", cfg.Store.Path)
	} else {
		logger.Info("audit store disabled")
	}

	reader := docfetch.NewReader(logger, cfg.Fetch.Timeout, cfg.Fetch.MaxDocumentMB,
		cfg.PDF.Converter, cfg.PDF.DPI)
	extractor := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
		PageDelay:       cfg.LLM.PageDelay,
		UseAzure:        cfg.LLM.UseAzure,
		AzureEndpoint:   cfg.LLM.AzureEndpoint,
		AzureAPIVersion: cfg.LLM.AzureAPIVersion,
		AzureDeployment: cfg.LLM.AzureDeployment,
	}, logger)

	pipeline := engine.NewPipeline(logger,
		engine.NewSummaryFilter(cfg.Engine.SummaryKeywords...),
		engine.NewDeduplicator(logger, cfg.Engine.SimilarityThreshold))

	svc := server.NewService(logger, reader, extractor, pipeline, st, exporter,
		cfg.Server.AllowAllOrigins)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      svc.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // extraction calls the vision model per page
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
