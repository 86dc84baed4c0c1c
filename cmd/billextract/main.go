// billextract runs one extraction from the command line: document URL in,
// reconciled JSON on stdout or an XLSX workbook on disk.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"billextract/internal/common"
	"billextract/internal/docfetch"
	"billextract/internal/engine"
	"billextract/internal/export"
	"billextract/internal/llm/openai"
	"billextract/internal/server"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		docURL  = flag.String("url", "", "document URL to extract (required)")
		out     = flag.String("out", "", "write an XLSX workbook to this path instead of printing JSON")
		verbose = flag.Bool("v", false, "log pipeline progress to stderr")
	)
	flag.Parse()

	if *docURL == "" {
		printError("Error: --url is required\n")
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	pages, err := reader.ReadPages(ctx, *docURL)
	if err != nil {
		printError("Error reading document: %v\n", err)
		os.Exit(1)
	}
	extracted, err := extractor.ExtractPages(ctx, pages)
	if err != nil {
		printError("Error extracting bill data: %v\n", err)
		os.Exit(1)
	}

	result := pipeline.Process(extracted.Pages)
	output := server.BuildOutput(result, extracted.Usage)

	body, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		printError("Error encoding output: %v\n", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(string(body))
		return
	}

	workbook, err := export.WorkbookFromResponse(body)
	if err != nil {
		printError("Error building workbook: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		printError("Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d items to %s (reconciled amount %s)\n",
		output.Data.TotalItemCount, *out, output.Data.ReconciledAmount)
}
