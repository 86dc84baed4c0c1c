// Package export renders stored extraction responses as XLSX workbooks.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"billextract/internal/store"
)

// Service is a tiny façade over the audit store that produces XLSX bytes for
// past extractions.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// storedResponse mirrors the wire shape persisted by the extraction handler.
// Only the fields the workbook needs are decoded.
type storedResponse struct {
	IsSuccess bool `json:"is_success"`
	Data      struct {
		PagewiseLineItems []struct {
			PageNo    string `json:"page_no"`
			PageType  string `json:"page_type"`
			BillItems []struct {
				ItemName     string  `json:"item_name"`
				ItemAmount   float64 `json:"item_amount"`
				ItemRate     float64 `json:"item_rate"`
				ItemQuantity float64 `json:"item_quantity"`
			} `json:"bill_items"`
		} `json:"pagewise_line_items"`
		TotalItemCount   int         `json:"total_item_count"`
		ReconciledAmount json.Number `json:"reconciled_amount"`
	} `json:"data"`
}

// ExtractionXLSX loads the stored extraction and renders its line items as a
// workbook.
func (s *Service) ExtractionXLSX(ctx context.Context, id int64) ([]byte, error) {
	start := time.Now()

	rec, err := s.store.GetExtraction(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := WorkbookFromResponse(rec.ResponseJSON)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"extraction_id", id,
		"bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// WorkbookFromResponse builds the XLSX workbook from a raw extraction
// response body.
func WorkbookFromResponse(body []byte) ([]byte, error) {
	var resp storedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Line Items"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Page No",
		"Page Type",
		"Item Name",
		"Amount",
		"Rate",
		"Quantity",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, page := range resp.Data.PagewiseLineItems {
		for _, item := range page.BillItems {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, page.PageNo)
			write(2, page.PageType)
			write(3, item.ItemName)
			write(4, item.ItemAmount)
			write(5, item.ItemRate)
			write(6, item.ItemQuantity)
			row++
		}
	}

	// Summary block below the items.
	row++
	totalCell, _ := excelize.CoordinatesToCellName(3, row)
	totalVal, _ := excelize.CoordinatesToCellName(4, row)
	_ = f.SetCellValue(sheet, totalCell, "Total Items")
	_ = f.SetCellValue(sheet, totalVal, resp.Data.TotalItemCount)
	row++
	amtCell, _ := excelize.CoordinatesToCellName(3, row)
	amtVal, _ := excelize.CoordinatesToCellName(4, row)
	_ = f.SetCellValue(sheet, amtCell, "Reconciled Amount")
	_ = f.SetCellValue(sheet, amtVal, resp.Data.ReconciledAmount.String())

	_ = f.SetColWidth(sheet, "A", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 36)
	_ = f.SetColWidth(sheet, "D", "F", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
