// Package report renders approval collections into Excel workbooks for
// accountants who want the data outside the API.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
	"github.com/garyjia/approval-flow/internal/presenter"
)

const (
	summarySheet = "Summary"
	itemsSheet   = "Items"
)

// Exporter writes approval summaries and item listings as xlsx workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Write renders the workbook for the given items to w
func (e *Exporter) Write(w io.Writer, items []*entity.Item) error {
	f, err := e.build(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile renders the workbook for the given items to a file path
func (e *Exporter) WriteFile(path string, items []*entity.Item) error {
	f, err := e.build(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Workbook exported", zap.String("path", path), zap.Int("items", len(items)))
	return nil
}

func (e *Exporter) build(items []*entity.Item) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := e.fillSummary(f, presenter.Summarize(items)); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.fillItems(f, items); err != nil {
		f.Close()
		return nil, err
	}

	// Drop the default sheet and land on the summary
	index, err := f.GetSheetIndex(summarySheet)
	if err == nil {
		f.SetActiveSheet(index)
	}
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

func (e *Exporter) fillSummary(f *excelize.File, summary presenter.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	e.setCell(f, summarySheet, "A1", "Generated")
	e.setCell(f, summarySheet, "B1", time.Now().Format("2006-01-02 15:04"))
	e.setCell(f, summarySheet, "A2", "Total Items")
	e.setCell(f, summarySheet, "B2", summary.TotalItems)

	e.setCell(f, summarySheet, "A4", "Status")
	e.setCell(f, summarySheet, "B4", "Count")
	e.setCell(f, summarySheet, "C4", "Amount")

	row := 5
	for _, state := range workflow.States() {
		bucket := summary.ByStatus[state]
		e.setCell(f, summarySheet, fmt.Sprintf("A%d", row), state.String())
		e.setCell(f, summarySheet, fmt.Sprintf("B%d", row), bucket.Count)
		e.setCell(f, summarySheet, fmt.Sprintf("C%d", row), bucket.Amount.String())
		row++
	}

	return nil
}

func (e *Exporter) fillItems(f *excelize.File, items []*entity.Item) error {
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return fmt.Errorf("failed to create items sheet: %w", err)
	}

	headers := []string{"ID", "Title", "Kind", "Amount", "Status", "Submitted By", "Submitted At", "Decided By", "Decided At", "Rejection Reason"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		e.setCell(f, itemsSheet, cell, h)
	}

	for row, item := range items {
		values := []interface{}{
			item.ID,
			item.Title,
			item.Kind,
			item.AmountOrZero().String(),
			item.Status.String(),
			item.SubmittedBy,
			item.SubmittedAt.Format(time.RFC3339),
			item.DecidedBy,
			"",
			item.RejectionReason,
		}
		if item.DecidedAt != nil {
			values[8] = item.DecidedAt.Format(time.RFC3339)
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			e.setCell(f, itemsSheet, cell, v)
		}
	}

	return nil
}

func (e *Exporter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
