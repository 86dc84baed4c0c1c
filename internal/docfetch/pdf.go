package docfetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ledongthuc/pdf"

	"billextract/constants"
	"billextract/internal/llm"
)

// Rasterizer turns a downloaded document into per-page images. PDF rendering
// is delegated to an external pdftoppm-compatible binary; single images pass
// through untouched as page 1.
type Rasterizer struct {
	logger    *slog.Logger
	runner    Runner
	converter string
	dpi       int
}

func NewRasterizer(logger *slog.Logger, converter string, dpi int) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if converter == "" {
		converter = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 144
	}
	return &Rasterizer{
		logger:    logger,
		runner:    execRunner{logger: logger},
		converter: converter,
		dpi:       dpi,
	}
}

// Pages rasterizes doc into ordered page images.
func (r *Rasterizer) Pages(ctx context.Context, doc Document) ([]llm.PageImage, error) {
	if doc.Format != constants.FormatPDF {
		return []llm.PageImage{{
			PageNo:   "1",
			Data:     doc.Content,
			MIMEType: constants.ImageMIMEType(doc.Content),
		}}, nil
	}

	// Page count from the PDF itself, to verify the converter's output.
	expected, err := pageCount(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "billextract-pdf-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	in := filepath.Join(tmpDir, "document.pdf")
	if err := os.WriteFile(in, doc.Content, 0o600); err != nil {
		return nil, err
	}
	prefix := filepath.Join(tmpDir, "page")

	if _, errb, err := r.runner.Run(ctx, r.converter,
		"-png", "-r", strconv.Itoa(r.dpi), in, prefix); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", r.converter, err, string(errb))
	}

	pages, err := collectPageImages(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s produced no pages", r.converter)
	}
	if len(pages) != expected {
		r.logger.Warn("docfetch.rasterize.page_count_mismatch",
			"expected", expected, "got", len(pages))
	}

	r.logger.Info("docfetch.rasterize.ok", "pages", len(pages), "dpi", r.dpi)
	return pages, nil
}

func pageCount(content []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

// pdftoppm names output page-1.png, page-2.png (zero-padded once the count
// has multiple digits), so page order comes from the numeric suffix.
var pageSuffix = regexp.MustCompile(`-(\d+)\.png$`)

func collectPageImages(dir string) ([]llm.PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		no   int
		path string
	}
	var files []numbered
	for _, e := range entries {
		m := pageSuffix.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		no, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, numbered{no: no, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].no < files[j].no })

	pages := make([]llm.PageImage, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, llm.PageImage{
			PageNo:   strconv.Itoa(f.no),
			Data:     data,
			MIMEType: "image/png",
		})
	}
	return pages, nil
}
