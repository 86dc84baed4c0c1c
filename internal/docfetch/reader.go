package docfetch

import (
	"context"
	"log/slog"
	"time"

	"billextract/internal/llm"
)

// Reader combines download and rasterization into the single operation the
// request handler needs.
type Reader struct {
	fetcher    *Fetcher
	rasterizer *Rasterizer
}

func NewReader(logger *slog.Logger, timeout time.Duration, maxMB int, converter string, dpi int) *Reader {
	return &Reader{
		fetcher:    NewFetcher(logger, timeout, maxMB),
		rasterizer: NewRasterizer(logger, converter, dpi),
	}
}

// ReadPages downloads the document at url and returns its ordered page
// images.
func (r *Reader) ReadPages(ctx context.Context, url string) ([]llm.PageImage, error) {
	doc, err := r.fetcher.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	return r.rasterizer.Pages(ctx, doc)
}
