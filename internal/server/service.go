// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"billextract/internal/common"
	"billextract/internal/docfetch"
	"billextract/internal/engine"
	"billextract/internal/export"
	"billextract/internal/llm"
	"billextract/internal/store"
)

// PageSource turns a document URL into ordered page images.
type PageSource interface {
	ReadPages(ctx context.Context, url string) ([]llm.PageImage, error)
}

// Service wires the document reader, the vision extractor and the
// reconciliation pipeline behind the HTTP surface. The audit store and the
// exporter are optional; without them the history endpoints report the
// feature as disabled.
type Service struct {
	logger    *slog.Logger
	source    PageSource
	extractor llm.PageExtractor
	pipeline  *engine.Pipeline
	store     *store.Store
	exporter  *export.Service
	allowCORS bool
}

func NewService(logger *slog.Logger, source PageSource, extractor llm.PageExtractor,
	pipeline *engine.Pipeline, st *store.Store, exporter *export.Service, allowCORS bool) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pipeline == nil {
		pipeline = engine.NewPipeline(logger, nil, nil)
	}
	return &Service{
		logger:    logger,
		source:    source,
		extractor: extractor,
		pipeline:  pipeline,
		store:     st,
		exporter:  exporter,
		allowCORS: allowCORS,
	}
}

// Router builds the HTTP routing table.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/extract-bill-data", s.handleExtract).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/extractions", s.handleListExtractions).Methods(http.MethodGet)
	r.HandleFunc("/extractions/{id:[0-9]+}/export", s.handleExportExtraction).Methods(http.MethodGet)

	var h http.Handler = r
	if s.allowCORS {
		h = corsMiddleware(h)
	}
	return loggingMiddleware(s.logger)(h)
}

func (s *Service) handleRoot(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Bill extraction service is running",
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := common.RequestIDFromContext(ctx)

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteHTTPError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateDocumentURL(req.Document); err != nil {
		common.WriteHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("server.extract.start", "req_id", reqID, "document", req.Document)
	start := time.Now()

	pages, err := s.source.ReadPages(ctx, req.Document)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, docfetch.ErrHTMLResponse) ||
			errors.Is(err, docfetch.ErrTooSmall) ||
			errors.Is(err, docfetch.ErrTooLarge) {
			status = http.StatusBadRequest
		}
		s.logger.Error("server.extract.fetch_failed", "req_id", reqID, "error", err)
		common.WriteHTTPErrorf(w, status, "error reading document: %v", err)
		return
	}

	extracted, err := s.extractor.ExtractPages(ctx, pages)
	if err != nil {
		s.logger.Error("server.extract.llm_failed", "req_id", reqID, "error", err)
		common.WriteHTTPErrorf(w, http.StatusBadGateway, "error extracting bill data: %v", err)
		return
	}

	result := s.pipeline.Process(extracted.Pages)
	out := BuildOutput(result, extracted.Usage)

	s.recordExtraction(ctx, req.Document, out)
	s.logger.Info("server.extract.done",
		"req_id", reqID,
		"pages", len(out.Data.PagewiseLineItems),
		"item_count", out.Data.TotalItemCount,
		"reconciled_amount", out.Data.ReconciledAmount,
		"total_tokens", out.TokenUsage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	common.WriteJSON(w, http.StatusOK, out)
}

// recordExtraction persists the response for later listing and export. The
// extraction response never fails because of an audit write.
func (s *Service) recordExtraction(ctx context.Context, documentURL string, out ServiceOutput) {
	if s.store == nil {
		return
	}
	body, err := json.Marshal(out)
	if err != nil {
		s.logger.Error("server.audit.encode_failed", "error", err)
		return
	}
	if _, err := s.store.SaveExtraction(ctx, store.ExtractionRecord{
		DocumentURL:      documentURL,
		RequestedAt:      time.Now().UTC(),
		Success:          out.IsSuccess,
		ItemCount:        out.Data.TotalItemCount,
		ReconciledAmount: string(out.Data.ReconciledAmount),
		ResponseJSON:     body,
	}); err != nil {
		s.logger.Error("server.audit.save_failed", "error", err)
	}
}

func (s *Service) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		common.WriteHTTPError(w, http.StatusServiceUnavailable, "audit store is disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := s.store.ListExtractions(r.Context(), limit)
	if err != nil {
		s.logger.Error("server.extractions.list_failed", "error", err)
		common.WriteHTTPError(w, http.StatusInternalServerError, "failed to list extractions")
		return
	}
	out := make([]ExtractionSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summaryFromRecord(rec))
	}
	common.WriteJSON(w, http.StatusOK, out)
}

func (s *Service) handleExportExtraction(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		common.WriteHTTPError(w, http.StatusServiceUnavailable, "audit store is disabled")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		common.WriteHTTPError(w, http.StatusBadRequest, "invalid extraction id")
		return
	}
	out, err := s.exporter.ExtractionXLSX(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		common.WriteHTTPError(w, http.StatusNotFound, "extraction not found")
		return
	}
	if err != nil {
		s.logger.Error("server.extractions.export_failed", "id", id, "error", err)
		common.WriteHTTPError(w, http.StatusInternalServerError, "failed to export extraction")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="extraction-%d.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func validateDocumentURL(raw string) error {
	if raw == "" {
		return errors.New("document URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("document must be an http(s) URL")
	}
	return nil
}
