// Package docfetch downloads bill documents and turns them into per-page
// images for the vision extractor.
package docfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"billextract/constants"
)

// minDocumentBytes guards against sharing links that return a stub body.
const minDocumentBytes = 100

var (
	ErrHTMLResponse = errors.New("the URL returned HTML instead of a document; it is likely a sharing link, not a direct download")
	ErrTooSmall     = errors.New("downloaded content is too small to be a document")
	ErrTooLarge     = errors.New("downloaded content exceeds the size limit")
)

// Document is a downloaded bill with its sniffed format.
type Document struct {
	Format  constants.DocumentFormat
	Content []byte
}

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	logger   *slog.Logger
	client   *http.Client
	maxBytes int64
}

func NewFetcher(logger *slog.Logger, timeout time.Duration, maxMB int) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxMB <= 0 {
		maxMB = 25
	}
	return &Fetcher{
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		maxBytes: int64(maxMB) << 20,
	}
}

// Download fetches the document and sniffs its format. Magic bytes win over
// the Content-Type header, which wins over the URL extension.
func (f *Fetcher) Download(ctx context.Context, url string) (Document, error) {
	f.logger.Info("docfetch.download.start", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("download document: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, fmt.Errorf("download document: status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	if int64(len(content)) > f.maxBytes {
		return Document{}, ErrTooLarge
	}
	if len(content) < minDocumentBytes {
		return Document{}, fmt.Errorf("%w (%d bytes)", ErrTooSmall, len(content))
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if looksLikeHTML(contentType, content) {
		return Document{}, ErrHTMLResponse
	}

	format := constants.SniffFormat(content)
	if format == constants.FormatUnknown {
		format = fallbackFormat(contentType, url)
		f.logger.Warn("docfetch.download.format_fallback",
			"content_type", contentType, "assumed", string(format))
	}

	f.logger.Info("docfetch.download.ok",
		"bytes", len(content), "format", string(format))
	return Document{Format: format, Content: content}, nil
}

func looksLikeHTML(contentType string, content []byte) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	preview := content
	if len(preview) > 500 {
		preview = preview[:500]
	}
	lower := bytes.ToLower(preview)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.Contains(lower, []byte("<html"))
}

// fallbackFormat decides a format when magic bytes are inconclusive. Unclear
// content is attempted as an image, matching the extractor's tolerance for
// odd scans.
func fallbackFormat(contentType, url string) constants.DocumentFormat {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	if strings.Contains(contentType, "pdf") || ext == ".pdf" {
		return constants.FormatPDF
	}
	return constants.FormatImage
}
